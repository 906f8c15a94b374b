package app

import (
	"mask-wallet/go-backend/internal/wallet"
)

// GetPublicKey re-derives the caller's session key and returns the public
// side. The caller origin, as asserted by the host and normalized by the
// gate, is the only session lookup key.
func (s *Service) GetPublicKey(caller string, salt []byte) ([]byte, error) {
	caller, err := wallet.NormalizeOrigin(caller)
	if err != nil {
		return nil, err
	}
	kr, err := s.keyring()
	if err != nil {
		return nil, err
	}
	var out []byte
	err = s.read(func(st *wallet.State) error {
		key, err := st.GetPublicKey(kr, caller, salt)
		if err != nil {
			return err
		}
		out = key
		return nil
	})
	return out, err
}

// Sign canonicalizes and signs request under the caller's session key.
// Deterministic: identical (request, salt, session) yields the identical
// signature.
func (s *Service) Sign(caller string, request any, salt []byte) ([]byte, error) {
	caller, err := wallet.NormalizeOrigin(caller)
	if err != nil {
		return nil, err
	}
	kr, err := s.keyring()
	if err != nil {
		return nil, err
	}
	var out []byte
	err = s.mutate(func(st *wallet.State) error {
		signature, err := st.SignRequest(kr, caller, request, salt)
		if err != nil {
			return err
		}
		st.Statistics.Signatures++
		out = signature
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Signatures.Inc()
	}
	return out, nil
}
