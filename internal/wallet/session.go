package wallet

import (
	"fmt"

	"mask-wallet/go-backend/internal/keyring"
)

// Login installs a session for origin. With no linkedOrigin the key derives
// under origin itself. With linkedOrigin present the stored edge
// linkedOrigin -> origin must exist — the target website, not the source,
// is the one receiving delegated access — otherwise the login fails with
// ErrUnauthorizedLink. The mask at identityID under the derivation origin
// is created on demand when it addresses the next free slot. Any previous
// session on origin is overwritten.
func (s *State) Login(kr *keyring.KeyRing, origin string, identityID int, linkedOrigin string, nowMs int64) (Mask, error) {
	derivationOrigin := origin
	if linkedOrigin != "" {
		if !s.Links.Has(linkedOrigin, origin) {
			return Mask{}, fmt.Errorf("%w: no link from %q", ErrUnauthorizedLink, linkedOrigin)
		}
		derivationOrigin = linkedOrigin
	}
	mask, err := s.MaskAt(kr, derivationOrigin, identityID)
	if err != nil {
		return Mask{}, err
	}
	s.record(origin).CurrentSession = &Session{
		IdentityID:       identityID,
		DerivationOrigin: derivationOrigin,
		TimestampMs:      nowMs,
	}
	return mask, nil
}

// Logout clears origin's session. Idempotent: logging out a logged-out
// origin reports false and succeeds.
func (s *State) Logout(origin string) bool {
	rec, ok := s.Origins[origin]
	if !ok || rec.CurrentSession == nil {
		return false
	}
	rec.CurrentSession = nil
	return true
}

// SessionExists is a pure query; no transition.
func (s *State) SessionExists(origin string) bool {
	rec, ok := s.Origins[origin]
	return ok && rec.CurrentSession != nil
}

// ActiveSession returns a copy of origin's session, if any.
func (s *State) ActiveSession(origin string) (Session, bool) {
	rec, ok := s.Origins[origin]
	if !ok || rec.CurrentSession == nil {
		return Session{}, false
	}
	return *rec.CurrentSession, true
}
