package wallet

import (
	"fmt"

	"mask-wallet/go-backend/internal/keyring"
)

// GetPublicKey re-derives the key bound to origin's live session and
// returns the public side. The caller origin is the session lookup key:
// there is no parameter that can select another origin's session, which is
// what makes cross-origin key requests impossible by construction.
func (s *State) GetPublicKey(kr *keyring.KeyRing, origin string, salt []byte) ([]byte, error) {
	session, ok := s.ActiveSession(origin)
	if !ok {
		return nil, fmt.Errorf("%w: no active session for origin", ErrUnauthorized)
	}
	key, err := kr.Derive(session.DerivationOrigin, uint32(session.IdentityID), salt)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.PublicKey(), nil
}

// SignRequest canonicalizes request, hashes it under the signing domain and
// signs with the session's key. Signing is deterministic: the same
// (request, salt, session) always yields the identical signature.
func (s *State) SignRequest(kr *keyring.KeyRing, origin string, request any, salt []byte) ([]byte, error) {
	session, ok := s.ActiveSession(origin)
	if !ok {
		return nil, fmt.Errorf("%w: no active session for origin", ErrUnauthorized)
	}
	digest, err := CanonicalRequestDigest(request)
	if err != nil {
		return nil, err
	}
	key, err := kr.Derive(session.DerivationOrigin, uint32(session.IdentityID), salt)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.Sign(digest)
}
