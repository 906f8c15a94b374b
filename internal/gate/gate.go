package gate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"mask-wallet/go-backend/internal/platform/privacylog"
	"mask-wallet/go-backend/internal/wallet"
)

var (
	ErrProtectedMethodViolation = errors.New("protected method violation")
	ErrSecurityViolation        = errors.New("security violation")
)

// Call is one inbound invocation as asserted by the host. CallerOrigin and
// UserGesture come from the host sandbox out of band, never from the
// attacker-influenced payload.
type Call struct {
	Method       Method
	CallerOrigin string
	UserGesture  bool
}

// ViolationEvent describes a rejected call. The origin is already
// fingerprinted: a violation log line must not become browsing history.
type ViolationEvent struct {
	ID       string
	Kind     string
	Method   string
	OriginFP string
}

// Gate is the trust boundary. It runs exactly once per call, before
// dispatch, and its decision is final for the call.
type Gate struct {
	trustedOrigin string
	log           *slog.Logger
	onViolation   func(ViolationEvent)
}

func New(trustedOrigin string, log *slog.Logger, onViolation func(ViolationEvent)) (*Gate, error) {
	normalized, err := wallet.NormalizeOrigin(trustedOrigin)
	if err != nil {
		return nil, fmt.Errorf("trusted origin: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gate{
		trustedOrigin: normalized,
		log:           log,
		onViolation:   onViolation,
	}, nil
}

func (g *Gate) TrustedOrigin() string {
	return g.trustedOrigin
}

// Authorize validates the caller origin against the method's trust class
// and gesture requirement. It returns the normalized caller origin; every
// downstream lookup must use that value, which is what binds a public call
// to its own origin's data.
func (g *Gate) Authorize(call Call) (string, error) {
	caller, err := wallet.NormalizeOrigin(call.CallerOrigin)
	if err != nil {
		return "", err
	}
	if call.Method.TrustClass() == Protected && caller != g.trustedOrigin {
		g.reportViolation("protected_method", call.Method, caller)
		return "", fmt.Errorf("%w: %s", ErrProtectedMethodViolation, call.Method.Name())
	}
	if call.Method.NeedsUserGesture() && !call.UserGesture {
		g.reportViolation("missing_user_gesture", call.Method, caller)
		return "", fmt.Errorf("%w: %s requires a user gesture", ErrSecurityViolation, call.Method.Name())
	}
	return caller, nil
}

func (g *Gate) reportViolation(kind string, method Method, caller string) {
	event := ViolationEvent{
		ID:       ulid.Make().String(),
		Kind:     kind,
		Method:   method.Name(),
		OriginFP: privacylog.FingerprintID(caller),
	}
	g.log.Warn("access gate violation",
		"event_id", event.ID,
		"kind", event.Kind,
		"method", event.Method,
		"origin", caller,
	)
	if g.onViolation != nil {
		g.onViolation(event)
	}
}
