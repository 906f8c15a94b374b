package vault

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mask-wallet/go-backend/internal/keyring"
)

func newMemVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open("", keyring.CurveEd25519)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return v
}

func TestCreateUnlocksAndReturnsMnemonic(t *testing.T) {
	v := newMemVault(t)
	mnemonic, err := v.Create("hunter2hunter2")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(strings.Fields(mnemonic)) != 24 {
		t.Fatalf("expected a 24-word mnemonic, got %d words", len(strings.Fields(mnemonic)))
	}
	status := v.Status()
	if !status.Initialized || !status.Unlocked {
		t.Fatalf("unexpected status %+v", status)
	}
	if _, err := v.KeyRing(); err != nil {
		t.Fatalf("keyring after create: %v", err)
	}
}

func TestImportValidation(t *testing.T) {
	v := newMemVault(t)
	if err := v.Import("", "pw"); !errors.Is(err, ErrMnemonicRequired) {
		t.Fatalf("empty mnemonic: %v", err)
	}
	if err := v.Import("abandon abandon", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("empty password: %v", err)
	}
	if err := v.Import("not a real mnemonic phrase at all", "pw"); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("bad mnemonic: %v", err)
	}
}

func TestImportRejectsReinitialization(t *testing.T) {
	v := newMemVault(t)
	mnemonic, err := v.Create("pw")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.Import(mnemonic, "other"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestLockAndUnlock(t *testing.T) {
	v := newMemVault(t)
	if err := v.Unlock("pw"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("unlock before init: %v", err)
	}
	if _, err := v.Create("pw"); err != nil {
		t.Fatalf("create: %v", err)
	}
	v.Lock()
	if _, err := v.KeyRing(); !errors.Is(err, ErrLocked) {
		t.Fatalf("keyring while locked: %v", err)
	}
	if err := v.Unlock("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong password: %v", err)
	}
	// Clear the backoff window so the correct attempt is not throttled.
	v.resetAttemptState()
	if err := v.Unlock("pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := v.KeyRing(); err != nil {
		t.Fatalf("keyring after unlock: %v", err)
	}
}

func TestUnlockDerivesSameKeys(t *testing.T) {
	v := newMemVault(t)
	if _, err := v.Create("pw"); err != nil {
		t.Fatalf("create: %v", err)
	}
	kr, _ := v.KeyRing()
	before, err := kr.Derive("https://google.com", 0, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	principal := before.Principal()

	v.Lock()
	if err := v.Unlock("pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	kr, _ = v.KeyRing()
	after, err := kr.Derive("https://google.com", 0, nil)
	if err != nil {
		t.Fatalf("derive after relock: %v", err)
	}
	if after.Principal() != principal {
		t.Fatal("identities must survive a lock/unlock cycle")
	}
}

func TestFailedAttemptsBackOff(t *testing.T) {
	v := newMemVault(t)
	if _, err := v.Create("pw"); err != nil {
		t.Fatalf("create: %v", err)
	}
	v.Lock()

	current := time.Now()
	v.now = func() time.Time { return current }

	if err := v.Unlock("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong password: %v", err)
	}
	// Within the 1s window even the correct password is refused.
	if err := v.Unlock("pw"); !errors.Is(err, ErrAttemptsLocked) {
		t.Fatalf("expected ErrAttemptsLocked, got %v", err)
	}
	current = current.Add(2 * time.Second)
	if err := v.Unlock("pw"); err != nil {
		t.Fatalf("unlock after window: %v", err)
	}
}

func TestBackoffSchedule(t *testing.T) {
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 32 * time.Second,
	}
	for i, expected := range want {
		if got := failedAttemptBackoff(i + 1); got != expected {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, expected)
		}
	}
}

func TestExportAndChangePassword(t *testing.T) {
	v := newMemVault(t)
	mnemonic, err := v.Create("pw")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	exported, err := v.Export("pw")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported != mnemonic {
		t.Fatal("export must return the sealed mnemonic")
	}
	if _, err := v.Export("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong password export: %v", err)
	}
	v.resetAttemptState()
	if err := v.ChangePassword("pw", "newpw"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	v.Lock()
	if err := v.Unlock("pw"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("old password should fail: %v", err)
	}
	v.resetAttemptState()
	if err := v.Unlock("newpw"); err != nil {
		t.Fatalf("new password: %v", err)
	}
}

func TestVaultPersistsSealedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	v, err := Open(path, keyring.CurveEd25519)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mnemonic, err := v.Create("pw")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reopened, err := Open(path, keyring.CurveEd25519)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Status().Initialized {
		t.Fatal("reopened vault should be initialized")
	}
	if reopened.Status().Unlocked {
		t.Fatal("reopened vault starts locked")
	}
	if err := reopened.Unlock("pw"); err != nil {
		t.Fatalf("unlock reopened: %v", err)
	}
	exported, err := reopened.Export("pw")
	if err != nil {
		t.Fatalf("export reopened: %v", err)
	}
	if exported != mnemonic {
		t.Fatal("sealed mnemonic must survive a restart")
	}
}
