package wallet

import (
	"fmt"
	"strings"

	"mask-wallet/go-backend/internal/keyring"
)

// AddMask mints the mask at the next unused identity slot for origin,
// deriving it from the keyring and appending it to the origin's list.
func (s *State) AddMask(kr *keyring.KeyRing, origin string) (Mask, int, error) {
	rec := s.record(origin)
	id := len(rec.Masks)
	mask, err := deriveMask(kr, origin, id)
	if err != nil {
		return Mask{}, 0, err
	}
	rec.Masks = append(rec.Masks, mask)
	return mask, id, nil
}

// MaskAt returns the mask at identityID under origin, deriving and
// appending it when identityID addresses the next free slot. Ids beyond
// that are invalid: slots are append-only and gaps cannot exist.
func (s *State) MaskAt(kr *keyring.KeyRing, origin string, identityID int) (Mask, error) {
	if identityID < 0 {
		return Mask{}, fmt.Errorf("%w: negative identity id", ErrInvalidInput)
	}
	rec := s.record(origin)
	if identityID < len(rec.Masks) {
		return rec.Masks[identityID], nil
	}
	if identityID > len(rec.Masks) {
		return Mask{}, fmt.Errorf("%w: identity id %d is out of range", ErrInvalidInput, identityID)
	}
	mask, err := deriveMask(kr, origin, identityID)
	if err != nil {
		return Mask{}, err
	}
	rec.Masks = append(rec.Masks, mask)
	return mask, nil
}

// EditPseudonym renames the mask at identityID. The key and principal never
// change; only the label does.
func (s *State) EditPseudonym(origin string, identityID int, pseudonym string) (Mask, error) {
	pseudonym = strings.TrimSpace(pseudonym)
	if pseudonym == "" {
		return Mask{}, fmt.Errorf("%w: pseudonym is empty", ErrInvalidInput)
	}
	rec, ok := s.Origins[origin]
	if !ok || identityID < 0 || identityID >= len(rec.Masks) {
		return Mask{}, fmt.Errorf("%w: no mask at identity id %d", ErrInvalidInput, identityID)
	}
	rec.Masks[identityID].Pseudonym = pseudonym
	return rec.Masks[identityID], nil
}

// Link inserts the directed edge from -> to.
func (s *State) Link(from, to string) error {
	return s.Links.Add(from, to)
}

// UnlinkOne removes the directed edge from -> to and invalidates any
// session the edge was carrying: a live session must never survive the edge
// it depends on. Both orientations are checked because either endpoint may
// hold a session deriving under the other.
func (s *State) UnlinkOne(from, to string) (bool, error) {
	if from == to {
		return false, fmt.Errorf("%w: origin cannot unlink from itself", ErrInvalidInput)
	}
	if !s.Links.Remove(from, to) {
		return false, nil
	}
	s.invalidateDependentSession(to, from)
	s.invalidateDependentSession(from, to)
	return true, nil
}

// UnlinkAll detaches every edge incident to origin, in both directions, and
// invalidates every session that depended on a removed edge. It returns the
// number of edges removed.
func (s *State) UnlinkAll(origin string) (int, error) {
	count := 0
	for _, to := range s.Links.To(origin) {
		removed, err := s.UnlinkOne(origin, to)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	for _, from := range s.Links.From(origin) {
		removed, err := s.UnlinkOne(from, origin)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (s *State) invalidateDependentSession(origin, derivationOrigin string) {
	rec, ok := s.Origins[origin]
	if !ok || rec.CurrentSession == nil {
		return
	}
	if rec.CurrentSession.DerivationOrigin == derivationOrigin {
		rec.CurrentSession = nil
	}
}

func deriveMask(kr *keyring.KeyRing, origin string, identityID int) (Mask, error) {
	key, err := kr.Derive(origin, uint32(identityID), nil)
	if err != nil {
		return Mask{}, err
	}
	defer key.Zero()
	return Mask{
		Pseudonym: key.Pseudonym(),
		Principal: key.Principal(),
	}, nil
}
