package walletconfig

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	storagePassphraseEnv = "MASK_STORAGE_PASSPHRASE"
	storageKeyWrappedEnv = "MASK_STORAGE_KEY_WRAPPED"
)

var ErrInsecureStorageKeyMode = errors.New("insecure storage key mode is forbidden in production")

// StoragePassphrase resolves the at-rest encryption secret: env first, then
// the data directory's key file, then generate-and-persist. Production
// refuses the generated-file path unless the key is keystore-wrapped;
// better to fail closed than to silently run with a plaintext key file.
func StoragePassphrase(dataDir string) (string, error) {
	if secret := strings.TrimSpace(os.Getenv(storagePassphraseEnv)); secret != "" {
		return secret, nil
	}
	keyPath := filepath.Join(dataDir, "storage.key")
	existing, err := os.ReadFile(keyPath)
	if err == nil {
		if secret := strings.TrimSpace(string(existing)); secret != "" {
			if policyErr := enforceStorageKeyPolicy("file"); policyErr != nil {
				return "", policyErr
			}
			return secret, nil
		}
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if policyErr := enforceStorageKeyPolicy("auto-generate"); policyErr != nil {
		return "", policyErr
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := base64.RawStdEncoding.EncodeToString(buf)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(keyPath, []byte(secret), 0o600); err != nil {
		return "", err
	}
	return secret, nil
}

func enforceStorageKeyPolicy(source string) error {
	if !isProductionEnv() {
		return nil
	}
	if source == "auto-generate" {
		return fmt.Errorf(
			"%w: production requires %s or a wrapped key; raw storage.key generation is disabled",
			ErrInsecureStorageKeyMode, storagePassphraseEnv,
		)
	}
	if wrapped := strings.TrimSpace(os.Getenv(storageKeyWrappedEnv)); wrapped == "1" || strings.EqualFold(wrapped, "true") {
		return nil
	}
	return fmt.Errorf(
		"%w: raw storage.key is forbidden in production; set %s or enable the wrapped key flow (%s=true)",
		ErrInsecureStorageKeyMode, storagePassphraseEnv, storageKeyWrappedEnv,
	)
}

func isProductionEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MASK_ENV"))) {
	case "prod", "production":
		return true
	default:
		return false
	}
}
