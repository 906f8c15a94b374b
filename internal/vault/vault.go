package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tyler-smith/go-bip39"

	"mask-wallet/go-backend/internal/keyring"
	"mask-wallet/go-backend/internal/securestore"
)

var (
	ErrPasswordRequired   = errors.New("password is required")
	ErrMnemonicRequired   = errors.New("mnemonic is required")
	ErrInvalidMnemonic    = errors.New("invalid mnemonic")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNotInitialized     = errors.New("vault is not initialized")
	ErrAlreadyInitialized = errors.New("vault is already initialized")
	ErrLocked             = errors.New("vault is locked")
	ErrAttemptsLocked     = errors.New("password attempts are temporarily locked")
)

// Vault custodies the master secret. At rest it holds only the
// password-sealed mnemonic; unlocking derives the master entropy and hands
// a keyring to the rest of the daemon. The entropy never leaves this
// package except inside that keyring.
type Vault struct {
	mu             sync.Mutex
	path           string
	curve          keyring.Curve
	sealed         []byte
	ring           *keyring.KeyRing
	failedAttempts int
	lockedUntil    time.Time
	now            func() time.Time
}

// Open loads the sealed vault file if one exists. An empty path keeps the
// vault in memory only.
func Open(path string, curve keyring.Curve) (*Vault, error) {
	v := &Vault{
		path:  strings.TrimSpace(path),
		curve: curve,
		now:   time.Now,
	}
	if v.path == "" {
		return v, nil
	}
	sealed, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, err
	}
	v.sealed = sealed
	return v, nil
}

type Status struct {
	Initialized bool   `json:"initialized"`
	Unlocked    bool   `json:"unlocked"`
	Curve       string `json:"curve"`
}

func (v *Vault) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Status{
		Initialized: v.sealed != nil,
		Unlocked:    v.ring != nil,
		Curve:       v.curve.String(),
	}
}

// Create generates a fresh 24-word mnemonic, seals it under password and
// unlocks the vault in place. The mnemonic is returned exactly once, for
// the user to back up.
func (v *Vault) Create(password string) (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", err
	}
	if err := v.Import(mnemonic, password); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// Import seals an existing mnemonic under password and unlocks the vault.
// Re-importing over an initialized vault is rejected; the user must wipe
// the data directory deliberately instead.
func (v *Vault) Import(mnemonic, password string) error {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return ErrMnemonicRequired
	}
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sealed != nil {
		return ErrAlreadyInitialized
	}
	sealed, err := securestore.Encrypt(password, []byte(mnemonic))
	if err != nil {
		return err
	}
	ring, err := ringFromMnemonic(mnemonic, v.curve)
	if err != nil {
		return err
	}
	if err := v.writeSealed(sealed); err != nil {
		return err
	}
	v.sealed = sealed
	v.installRing(ring)
	v.resetAttemptState()
	return nil
}

// Unlock opens the sealed mnemonic and derives the master entropy. Failed
// attempts back off exponentially, the same as the password flows below.
func (v *Vault) Unlock(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sealed == nil {
		return ErrNotInitialized
	}
	if err := v.ensureAttemptsAllowed(); err != nil {
		return err
	}
	plaintext, err := securestore.Decrypt(password, v.sealed)
	if err != nil {
		v.onFailedAttempt()
		return ErrInvalidPassword
	}
	mnemonic := strings.TrimSpace(string(plaintext))
	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("%w: corrupted mnemonic", ErrInvalidMnemonic)
	}
	ring, err := ringFromMnemonic(mnemonic, v.curve)
	if err != nil {
		return err
	}
	v.installRing(ring)
	v.resetAttemptState()
	return nil
}

// Lock wipes the derived entropy. The sealed mnemonic stays.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ring != nil {
		v.ring.Zero()
		v.ring = nil
	}
}

// Export returns the mnemonic for backup after re-proving the password.
func (v *Vault) Export(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sealed == nil {
		return "", ErrNotInitialized
	}
	if err := v.ensureAttemptsAllowed(); err != nil {
		return "", err
	}
	plaintext, err := securestore.Decrypt(password, v.sealed)
	if err != nil {
		v.onFailedAttempt()
		return "", ErrInvalidPassword
	}
	v.resetAttemptState()
	mnemonic := strings.TrimSpace(string(plaintext))
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("%w: corrupted mnemonic", ErrInvalidMnemonic)
	}
	return mnemonic, nil
}

func (v *Vault) ChangePassword(oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrPasswordRequired
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sealed == nil {
		return ErrNotInitialized
	}
	if err := v.ensureAttemptsAllowed(); err != nil {
		return err
	}
	plaintext, err := securestore.Decrypt(oldPassword, v.sealed)
	if err != nil {
		v.onFailedAttempt()
		return ErrInvalidPassword
	}
	sealed, err := securestore.Encrypt(newPassword, plaintext)
	if err != nil {
		return err
	}
	if err := v.writeSealed(sealed); err != nil {
		return err
	}
	v.sealed = sealed
	v.resetAttemptState()
	return nil
}

// KeyRing hands out the live keyring. Callers must not retain it across a
// Lock.
func (v *Vault) KeyRing() (*keyring.KeyRing, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sealed == nil {
		return nil, ErrNotInitialized
	}
	if v.ring == nil {
		return nil, ErrLocked
	}
	return v.ring, nil
}

func (v *Vault) installRing(ring *keyring.KeyRing) {
	if v.ring != nil {
		v.ring.Zero()
	}
	v.ring = ring
}

func (v *Vault) writeSealed(sealed []byte) error {
	if v.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(v.path, sealed, 0o600)
}

func (v *Vault) ensureAttemptsAllowed() error {
	if v.lockedUntil.IsZero() {
		return nil
	}
	if v.now().Before(v.lockedUntil) {
		return ErrAttemptsLocked
	}
	return nil
}

func (v *Vault) onFailedAttempt() {
	v.failedAttempts++
	v.lockedUntil = v.now().Add(failedAttemptBackoff(v.failedAttempts))
}

func (v *Vault) resetAttemptState() {
	v.failedAttempts = 0
	v.lockedUntil = time.Time{}
}

func failedAttemptBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// 1s, 2s, 4s... capped at 32s.
	shift := attempt - 1
	if shift > 5 {
		shift = 5
	}
	return time.Second * time.Duration(1<<shift)
}

// ringFromMnemonic turns the mnemonic into the 64-byte bip39 seed that is
// the wallet's master entropy.
func ringFromMnemonic(mnemonic string, curve keyring.Curve) (*keyring.KeyRing, error) {
	seed := bip39.NewSeed(mnemonic, "")
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()
	return keyring.New(seed, curve)
}
