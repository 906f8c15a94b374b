package app

import (
	"log/slog"
	"sync"
	"time"

	"mask-wallet/go-backend/internal/agent"
	"mask-wallet/go-backend/internal/confirm"
	"mask-wallet/go-backend/internal/gate"
	"mask-wallet/go-backend/internal/keyring"
	"mask-wallet/go-backend/internal/metrics"
	"mask-wallet/go-backend/internal/vault"
	"mask-wallet/go-backend/internal/wallet"
	"mask-wallet/go-backend/pkg/models"
)

// Config carries the service-level knobs resolved by the daemon bootstrap.
type Config struct {
	ConfirmMode confirm.Mode
}

// Service orchestrates every wallet operation. All state transitions run
// under one mutex around the load -> validate -> mutate(copy) -> persist ->
// install cycle, so concurrent calls from different browser tabs cannot
// interleave into a half-written record. Confirmation waits happen outside
// the lock; preconditions are re-validated before commit.
type Service struct {
	mu    sync.Mutex
	store *wallet.Store
	state *wallet.State

	vault     *vault.Vault
	submitter agent.Submitter
	confirm   *confirm.Broker
	hub       *NotificationHub
	metrics   *metrics.Set
	log       *slog.Logger
	now       func() time.Time
}

func NewService(store *wallet.Store, v *vault.Vault, submitter agent.Submitter, met *metrics.Set, log *slog.Logger, cfg Config) (*Service, error) {
	state, err := store.Bootstrap()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:     store,
		state:     state,
		vault:     v,
		submitter: submitter,
		hub:       NewNotificationHub(256),
		metrics:   met,
		log:       log,
		now:       time.Now,
	}
	s.confirm = confirm.NewBroker(cfg.ConfirmMode, func(prompt confirm.Prompt) {
		s.hub.Publish(NotifyConfirmationRequested, prompt)
	})
	return s, nil
}

// mutate applies fn to a deep copy of the state and installs it only after
// a successful persist. A failed call therefore leaves no observable
// partial mutation.
func (s *Service) mutate(fn func(st *wallet.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.store.Persist(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Service) read(fn func(st *wallet.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *Service) keyring() (*keyring.KeyRing, error) {
	return s.vault.KeyRing()
}

// RecordViolation is the gate's sink for security events: the statistics
// counter and the Prometheus counter both move.
func (s *Service) RecordViolation(event gate.ViolationEvent) {
	if s.metrics != nil {
		s.metrics.GateViolations.WithLabelValues(event.Kind).Inc()
	}
	if err := s.mutate(func(st *wallet.State) error {
		st.Statistics.Violations++
		return nil
	}); err != nil {
		s.log.Error("failed to record gate violation", "error", err)
	}
}

func (s *Service) SubscribeNotifications(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	return s.hub.Subscribe(fromSeq)
}

func (s *Service) WalletStatus() models.WalletStatus {
	status := models.WalletStatus{
		PendingConfirmations: len(s.confirm.Pending()),
	}
	vaultStatus := s.vault.Status()
	status.Vault = models.VaultStatus{
		Initialized: vaultStatus.Initialized,
		Unlocked:    vaultStatus.Unlocked,
		Curve:       vaultStatus.Curve,
	}
	_ = s.read(func(st *wallet.State) error {
		status.Origins = len(st.Origins)
		status.TrackedAssets = len(st.Assets)
		for _, rec := range st.Origins {
			if rec.CurrentSession != nil {
				status.ActiveSessions++
			}
		}
		for _, targets := range st.Links {
			status.Links += len(targets)
		}
		return nil
	})
	return status
}

func (s *Service) GetStatistics() wallet.Statistics {
	var out wallet.Statistics
	_ = s.read(func(st *wallet.State) error {
		out = st.Statistics
		return nil
	})
	return out
}

func (s *Service) ResetStatistics() error {
	return s.mutate(func(st *wallet.State) error {
		st.Statistics = wallet.Statistics{}
		return nil
	})
}

func (s *Service) PendingConfirmations() []confirm.Prompt {
	return s.confirm.Pending()
}

func (s *Service) ResolveConfirmation(id string, approved bool) bool {
	resolved := s.confirm.Resolve(id, approved)
	if resolved && s.metrics != nil {
		outcome := "declined"
		if approved {
			outcome = "approved"
		}
		s.metrics.Confirmations.WithLabelValues(outcome).Inc()
	}
	return resolved
}
