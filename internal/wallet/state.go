package wallet

// Mask is one pseudonymous identity available to the user on an origin. Its
// position in the origin's mask list is the identity id: slots are
// append-only, never reused and never reordered, so an id stays valid for
// the lifetime of the wallet.
type Mask struct {
	Pseudonym string `json:"pseudonym"`
	Principal string `json:"principal"`
}

// Session binds a visiting origin to a mask. DerivationOrigin is the origin
// whose entropy path actually derives the active key; when a link is in
// effect it differs from the origin the user is browsing.
type Session struct {
	IdentityID       int    `json:"identity_id"`
	DerivationOrigin string `json:"derivation_origin"`
	TimestampMs      int64  `json:"timestamp_ms"`
}

type OriginRecord struct {
	Masks          []Mask
	CurrentSession *Session
}

// Asset is one tracked token ledger. The ledger id doubles as the
// derivation salt for transfer signing keys.
type Asset struct {
	Symbol   string `json:"symbol"`
	Ledger   string `json:"ledger"`
	Decimals int    `json:"decimals"`
}

type Statistics struct {
	Logins     int64 `json:"logins"`
	Signatures int64 `json:"signatures"`
	Links      int64 `json:"links"`
	Unlinks    int64 `json:"unlinks"`
	Transfers  int64 `json:"transfers"`
	Violations int64 `json:"violations"`
}

const stateVersion = 2

// State is the whole persisted wallet tree. Operations work on an explicit
// State value: the service loads it, transforms a copy and persists before
// installing, so a failed call leaves nothing half-written.
type State struct {
	Version    int
	Origins    map[string]*OriginRecord
	Links      Links
	Assets     map[string]Asset
	Statistics Statistics
}

func NewState() *State {
	return &State{
		Version: stateVersion,
		Origins: make(map[string]*OriginRecord),
		Links:   make(Links),
		Assets:  make(map[string]Asset),
	}
}

func (s *State) Clone() *State {
	out := &State{
		Version:    s.Version,
		Origins:    make(map[string]*OriginRecord, len(s.Origins)),
		Links:      s.Links.Clone(),
		Assets:     make(map[string]Asset, len(s.Assets)),
		Statistics: s.Statistics,
	}
	for origin, rec := range s.Origins {
		cloned := &OriginRecord{
			Masks: append([]Mask(nil), rec.Masks...),
		}
		if rec.CurrentSession != nil {
			session := *rec.CurrentSession
			cloned.CurrentSession = &session
		}
		out.Origins[origin] = cloned
	}
	for symbol, asset := range s.Assets {
		out.Assets[symbol] = asset
	}
	return out
}

// record returns the OriginRecord for origin, creating it lazily. Callers
// must pass a normalized origin.
func (s *State) record(origin string) *OriginRecord {
	rec, ok := s.Origins[origin]
	if !ok {
		rec = &OriginRecord{}
		s.Origins[origin] = rec
	}
	return rec
}

// Record is the read-only lookup; it never creates.
func (s *State) Record(origin string) (*OriginRecord, bool) {
	rec, ok := s.Origins[origin]
	return rec, ok
}
