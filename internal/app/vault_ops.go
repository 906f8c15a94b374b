package app

import "mask-wallet/go-backend/pkg/models"

// Vault operations are thin passthroughs: the vault owns its own locking
// and backoff, and none of them touch the wallet state tree.

func (s *Service) CreateVault(password string) (string, error) {
	return s.vault.Create(password)
}

func (s *Service) ImportVault(mnemonic, password string) error {
	return s.vault.Import(mnemonic, password)
}

func (s *Service) UnlockVault(password string) error {
	return s.vault.Unlock(password)
}

func (s *Service) LockVault() {
	s.vault.Lock()
}

func (s *Service) ExportVault(password string) (string, error) {
	return s.vault.Export(password)
}

func (s *Service) ChangeVaultPassword(oldPassword, newPassword string) error {
	return s.vault.ChangePassword(oldPassword, newPassword)
}

func (s *Service) VaultStatus() models.VaultStatus {
	status := s.vault.Status()
	return models.VaultStatus{
		Initialized: status.Initialized,
		Unlocked:    status.Unlocked,
		Curve:       status.Curve,
	}
}
