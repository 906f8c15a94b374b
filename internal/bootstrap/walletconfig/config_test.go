package walletconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.RPCAddr != "127.0.0.1:8791" {
		t.Fatalf("rpc addr = %q", cfg.RPCAddr)
	}
	if cfg.TrustedOrigin != "https://wallet.maskwallet.app" {
		t.Fatalf("trusted origin = %q", cfg.TrustedOrigin)
	}
	if cfg.Curve != "ed25519" || cfg.Agent.Transport != "mock" || cfg.Confirmations.Mode != "prompt" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFromPathMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"rpcAddr: 127.0.0.1:9999",
		"trustedOrigin: https://wallet.example",
		"agent:",
		"  transport: http",
		"  endpoint: /dns4/gw.example/tcp/443/https",
		"rateLimit:",
		"  enabled: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.RPCAddr != "127.0.0.1:9999" {
		t.Fatalf("rpc addr = %q", cfg.RPCAddr)
	}
	if cfg.TrustedOrigin != "https://wallet.example" {
		t.Fatalf("trusted origin = %q", cfg.TrustedOrigin)
	}
	if cfg.Agent.Transport != "http" || cfg.Agent.Endpoint != "/dns4/gw.example/tcp/443/https" {
		t.Fatalf("agent config %+v", cfg.Agent)
	}
	// Untouched keys keep their defaults.
	if cfg.Curve != "ed25519" || cfg.DataDir != "data" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.RateLimitEnabled() {
		t.Fatal("explicit rateLimit.enabled=false should win")
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.RPCAddr != Default().RPCAddr {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("MASK_RPC_ADDR", "127.0.0.1:7000")
	t.Setenv("MASK_TRUSTED_ORIGIN", "https://wallet.override")
	t.Setenv("MASK_CURVE", "secp256k1")
	t.Setenv("MASK_CONFIRM_MODE", "approve")
	t.Setenv("MASK_RATE_LIMIT_ENABLED", "false")

	cfg := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.RPCAddr != "127.0.0.1:7000" || cfg.TrustedOrigin != "https://wallet.override" {
		t.Fatalf("env overrides lost: %+v", cfg)
	}
	if cfg.Curve != "secp256k1" || cfg.Confirmations.Mode != "approve" {
		t.Fatalf("env overrides lost: %+v", cfg)
	}
	if cfg.RateLimitEnabled() {
		t.Fatal("MASK_RATE_LIMIT_ENABLED=false should disable the limiter")
	}
}

func TestRateLimitDefaultsByEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("MASK_ENV", "test")
	if cfg.RateLimitEnabled() {
		t.Fatal("test env disables rate limiting by default")
	}
	t.Setenv("MASK_ENV", "production")
	if !cfg.RateLimitEnabled() {
		t.Fatal("production enables rate limiting by default")
	}
}

func TestStoragePassphraseEnvWins(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "from-env")
	secret, err := StoragePassphrase(t.TempDir())
	if err != nil {
		t.Fatalf("storage passphrase: %v", err)
	}
	if secret != "from-env" {
		t.Fatalf("secret = %q", secret)
	}
}

func TestStoragePassphraseGeneratesAndReusesKeyFile(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	t.Setenv("MASK_ENV", "test")
	dir := t.TempDir()

	first, err := StoragePassphrase(dir)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first == "" {
		t.Fatal("expected a generated secret")
	}
	if _, err := os.Stat(filepath.Join(dir, "storage.key")); err != nil {
		t.Fatalf("key file should exist: %v", err)
	}
	second, err := StoragePassphrase(dir)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second != first {
		t.Fatal("key file must be reused, not regenerated")
	}
}

func TestStoragePassphraseFailsClosedInProduction(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	t.Setenv(storageKeyWrappedEnv, "")
	t.Setenv("MASK_ENV", "production")

	if _, err := StoragePassphrase(t.TempDir()); !errors.Is(err, ErrInsecureStorageKeyMode) {
		t.Fatalf("expected ErrInsecureStorageKeyMode, got %v", err)
	}
}
