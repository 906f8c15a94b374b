package gate

import "errors"

var ErrUnknownMethod = errors.New("unknown method")

// TrustClass is the static trust classification of an RPC method.
type TrustClass uint8

const (
	// Protected methods execute only for the one trusted wallet origin.
	Protected TrustClass = iota
	// Public methods execute for any caller origin, but operate
	// exclusively on that origin's own data.
	Public
)

func (c TrustClass) String() string {
	switch c {
	case Protected:
		return "protected"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

// Method is the closed set of RPC methods. The trust class is a property of
// the variant, fixed at compile time; dispatch never compares raw strings
// after Lookup.
type Method int

const (
	methodInvalid Method = iota

	IdentityAdd
	IdentityLogin
	IdentityGetLoginOptions
	IdentityEditPseudonym
	IdentityStopSession
	IdentityUnlinkOne
	IdentityUnlinkAll
	VaultCreate
	VaultImport
	VaultUnlock
	VaultLock
	VaultExport
	VaultChangePassword
	VaultStatus
	AssetAdd
	AssetRemove
	AssetList
	AssetTransfer
	StatisticsGet
	StatisticsReset
	ConfirmPending
	ConfirmResolve
	WalletStatus

	IdentitySign
	IdentityGetPublicKey
	IdentityRequestLogout
	IdentityRequestLink
	IdentityRequestUnlink
	IdentityGetLinks
	IdentitySessionExists
	HealthCheck
)

type methodSpec struct {
	name        string
	class       TrustClass
	userGesture bool
}

var methodSpecs = map[Method]methodSpec{
	IdentityAdd:             {name: "identity.add", class: Protected},
	IdentityLogin:           {name: "identity.login", class: Protected},
	IdentityGetLoginOptions: {name: "identity.get_login_options", class: Protected},
	IdentityEditPseudonym:   {name: "identity.edit_pseudonym", class: Protected},
	IdentityStopSession:     {name: "identity.stop_session", class: Protected},
	IdentityUnlinkOne:       {name: "identity.unlink_one", class: Protected},
	IdentityUnlinkAll:       {name: "identity.unlink_all", class: Protected},
	VaultCreate:             {name: "vault.create", class: Protected},
	VaultImport:             {name: "vault.import", class: Protected},
	VaultUnlock:             {name: "vault.unlock", class: Protected},
	VaultLock:               {name: "vault.lock", class: Protected},
	VaultExport:             {name: "vault.export", class: Protected},
	VaultChangePassword:     {name: "vault.change_password", class: Protected},
	VaultStatus:             {name: "vault.status", class: Protected},
	AssetAdd:                {name: "asset.add", class: Protected},
	AssetRemove:             {name: "asset.remove", class: Protected},
	AssetList:               {name: "asset.list", class: Protected},
	AssetTransfer:           {name: "asset.transfer", class: Protected},
	StatisticsGet:           {name: "statistics.get", class: Protected},
	StatisticsReset:         {name: "statistics.reset", class: Protected},
	ConfirmPending:          {name: "confirm.pending", class: Protected},
	ConfirmResolve:          {name: "confirm.resolve", class: Protected},
	WalletStatus:            {name: "wallet.status", class: Protected},

	IdentitySign:          {name: "identity.sign", class: Public},
	IdentityGetPublicKey:  {name: "identity.get_public_key", class: Public},
	IdentityRequestLogout: {name: "identity.request_logout", class: Public},
	IdentityRequestLink:   {name: "identity.request_link", class: Public, userGesture: true},
	IdentityRequestUnlink: {name: "identity.request_unlink", class: Public, userGesture: true},
	IdentityGetLinks:      {name: "identity.get_links", class: Public},
	IdentitySessionExists: {name: "identity.session_exists", class: Public},
	HealthCheck:           {name: "health.check", class: Public},
}

var methodsByName = func() map[string]Method {
	out := make(map[string]Method, len(methodSpecs))
	for method, spec := range methodSpecs {
		out[spec.name] = method
	}
	return out
}()

// Lookup maps a wire method name onto the closed enum.
func Lookup(name string) (Method, error) {
	method, ok := methodsByName[name]
	if !ok {
		return methodInvalid, ErrUnknownMethod
	}
	return method, nil
}

func (m Method) Name() string {
	return methodSpecs[m].name
}

func (m Method) TrustClass() TrustClass {
	return methodSpecs[m].class
}

// NeedsUserGesture reports whether the method may only run from a
// user-initiated action, as asserted by the host.
func (m Method) NeedsUserGesture() bool {
	return methodSpecs[m].userGesture
}

// Methods returns every known method, for tests and metric pre-registration.
func Methods() []Method {
	out := make([]Method, 0, len(methodSpecs))
	for method := range methodSpecs {
		out = append(out, method)
	}
	return out
}
