package app

import (
	"context"
	"errors"
	"fmt"

	"mask-wallet/go-backend/internal/wallet"
	"mask-wallet/go-backend/pkg/models"
)

// AddIdentity mints the next mask for origin. Protected surface: the
// trusted UI calls this on the user's behalf for any origin.
func (s *Service) AddIdentity(origin string) (models.Mask, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return models.Mask{}, err
	}
	kr, err := s.keyring()
	if err != nil {
		return models.Mask{}, err
	}
	var out models.Mask
	err = s.mutate(func(st *wallet.State) error {
		mask, id, err := st.AddMask(kr, origin)
		if err != nil {
			return err
		}
		out = maskView(mask, id)
		return nil
	})
	return out, err
}

// Login starts a session for origin under identityID, optionally deriving
// under linkedOrigin when that origin has delegated access.
func (s *Service) Login(origin string, identityID int, linkedOrigin string) (models.Mask, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return models.Mask{}, err
	}
	if linkedOrigin != "" {
		if linkedOrigin, err = wallet.NormalizeOrigin(linkedOrigin); err != nil {
			return models.Mask{}, err
		}
	}
	kr, err := s.keyring()
	if err != nil {
		return models.Mask{}, err
	}
	var out models.Mask
	err = s.mutate(func(st *wallet.State) error {
		mask, err := st.Login(kr, origin, identityID, linkedOrigin, s.now().UnixMilli())
		if err != nil {
			return err
		}
		st.Statistics.Logins++
		out = maskView(mask, identityID)
		return nil
	})
	if err != nil {
		return models.Mask{}, err
	}
	if s.metrics != nil {
		s.metrics.Logins.Inc()
	}
	s.hub.Publish(NotifySessionChanged, map[string]any{"active": true})
	return out, nil
}

// GetLoginOptions lists everything origin's visitor may log in as: the
// origin's own masks plus the masks of every origin linked into it.
func (s *Service) GetLoginOptions(origin string) (models.LoginOptions, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return models.LoginOptions{}, err
	}
	out := models.LoginOptions{Origin: origin}
	err = s.read(func(st *wallet.State) error {
		out.Options = append(out.Options, loginOption(st, origin, false))
		for _, linked := range st.Links.From(origin) {
			out.Options = append(out.Options, loginOption(st, linked, true))
		}
		return nil
	})
	return out, err
}

func loginOption(st *wallet.State, origin string, linked bool) models.LoginOption {
	option := models.LoginOption{Origin: origin, Linked: linked, Masks: []models.Mask{}}
	if rec, ok := st.Record(origin); ok {
		for id, mask := range rec.Masks {
			option.Masks = append(option.Masks, maskView(mask, id))
		}
	}
	return option
}

func (s *Service) EditPseudonym(origin string, identityID int, pseudonym string) (models.Mask, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return models.Mask{}, err
	}
	var out models.Mask
	err = s.mutate(func(st *wallet.State) error {
		mask, err := st.EditPseudonym(origin, identityID, pseudonym)
		if err != nil {
			return err
		}
		out = maskView(mask, identityID)
		return nil
	})
	return out, err
}

// StopSession ends origin's session. Idempotent; reports whether a session
// was actually live.
func (s *Service) StopSession(origin string) (bool, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return false, err
	}
	stopped := false
	err = s.mutate(func(st *wallet.State) error {
		stopped = st.Logout(origin)
		return nil
	})
	if err != nil {
		return false, err
	}
	if stopped {
		s.hub.Publish(NotifySessionChanged, map[string]any{"active": false})
	}
	return stopped, nil
}

// RequestLogout is the public-surface logout; the caller can only ever end
// its own session.
func (s *Service) RequestLogout(caller string) (bool, error) {
	return s.StopSession(caller)
}

func (s *Service) SessionExists(origin string) (bool, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return false, err
	}
	exists := false
	_ = s.read(func(st *wallet.State) error {
		exists = st.SessionExists(origin)
		return nil
	})
	return exists, nil
}

func (s *Service) GetLinks(origin string) (models.Links, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return models.Links{}, err
	}
	out := models.Links{LinksFrom: []string{}, LinksTo: []string{}}
	_ = s.read(func(st *wallet.State) error {
		if from := st.Links.From(origin); from != nil {
			out.LinksFrom = from
		}
		if to := st.Links.To(origin); to != nil {
			out.LinksTo = to
		}
		return nil
	})
	return out, nil
}

// RequestLink asks the user to let the caller log in with identities
// derived under target, i.e. to create the stored edge target -> caller.
// The confirmation wait happens outside the state lock and the edge is
// re-validated before commit. Decline resolves to false, not an error.
func (s *Service) RequestLink(ctx context.Context, caller, target string) (bool, error) {
	caller, err := wallet.NormalizeOrigin(caller)
	if err != nil {
		return false, err
	}
	target, err = wallet.NormalizeOrigin(target)
	if err != nil {
		return false, err
	}
	if caller == target {
		return false, fmt.Errorf("%w: origin cannot link to itself", wallet.ErrInvalidInput)
	}

	already := false
	_ = s.read(func(st *wallet.State) error {
		already = st.Links.Has(target, caller)
		return nil
	})
	if already {
		// An existing grant is not re-prompted.
		return true, nil
	}

	approved := s.confirm.Ask(ctx, "link", caller, map[string]any{"target": target})
	if !approved {
		return false, nil
	}

	err = s.mutate(func(st *wallet.State) error {
		if err := st.Link(target, caller); err != nil {
			if errors.Is(err, wallet.ErrAlreadyLinked) {
				// Raced with another approval; the grant exists either way.
				return nil
			}
			return err
		}
		st.Statistics.Links++
		return nil
	})
	if err != nil {
		return false, err
	}
	if s.metrics != nil {
		s.metrics.LinksCreated.Inc()
	}
	s.hub.Publish(NotifyLinksChanged, map[string]any{})
	return true, nil
}

// RequestUnlink severs the delegation edge target -> caller after user
// confirmation, the mirror image of RequestLink.
func (s *Service) RequestUnlink(ctx context.Context, caller, target string) (bool, error) {
	caller, err := wallet.NormalizeOrigin(caller)
	if err != nil {
		return false, err
	}
	target, err = wallet.NormalizeOrigin(target)
	if err != nil {
		return false, err
	}

	approved := s.confirm.Ask(ctx, "unlink", caller, map[string]any{"target": target})
	if !approved {
		return false, nil
	}
	removed := false
	err = s.mutate(func(st *wallet.State) error {
		var err error
		removed, err = st.UnlinkOne(target, caller)
		if err != nil {
			return err
		}
		if removed {
			st.Statistics.Unlinks++
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.recordUnlink()
	}
	return removed, nil
}

// UnlinkOne removes exactly the named directed edge. Protected surface.
func (s *Service) UnlinkOne(from, to string) (bool, error) {
	from, err := wallet.NormalizeOrigin(from)
	if err != nil {
		return false, err
	}
	to, err = wallet.NormalizeOrigin(to)
	if err != nil {
		return false, err
	}
	removed := false
	err = s.mutate(func(st *wallet.State) error {
		var err error
		removed, err = st.UnlinkOne(from, to)
		if err != nil {
			return err
		}
		if removed {
			st.Statistics.Unlinks++
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.recordUnlink()
	}
	return removed, nil
}

// UnlinkAll detaches every edge incident to origin. Protected surface.
func (s *Service) UnlinkAll(origin string) (bool, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return false, err
	}
	removed := 0
	err = s.mutate(func(st *wallet.State) error {
		var err error
		removed, err = st.UnlinkAll(origin)
		if err != nil {
			return err
		}
		// One unlink per detached edge, same accounting as UnlinkOne.
		st.Statistics.Unlinks += int64(removed)
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed > 0 {
		if s.metrics != nil {
			s.metrics.Unlinks.Add(float64(removed))
		}
		s.hub.Publish(NotifyLinksChanged, map[string]any{})
	}
	return removed > 0, nil
}

func (s *Service) recordUnlink() {
	if s.metrics != nil {
		s.metrics.Unlinks.Inc()
	}
	s.hub.Publish(NotifyLinksChanged, map[string]any{})
}

func maskView(mask wallet.Mask, identityID int) models.Mask {
	return models.Mask{
		IdentityID: identityID,
		Pseudonym:  mask.Pseudonym,
		Principal:  mask.Principal,
	}
}
