package walletconfig

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's resolved configuration: file values merged over
// defaults, then environment overrides on top.
type Config struct {
	RPCAddr       string        `yaml:"rpcAddr"`
	DataDir       string        `yaml:"dataDir"`
	TrustedOrigin string        `yaml:"trustedOrigin"`
	Curve         string        `yaml:"curve"`
	Agent         AgentConfig   `yaml:"agent"`
	RateLimit     RateConfig    `yaml:"rateLimit"`
	Confirmations ConfirmConfig `yaml:"confirmations"`
}

type AgentConfig struct {
	// Transport selects the submitter: mock (default) or http.
	Transport string `yaml:"transport"`
	// Endpoint is the gateway target, as URL or multiaddr.
	Endpoint string `yaml:"endpoint"`
}

type RateConfig struct {
	Enabled *bool   `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type ConfirmConfig struct {
	// Mode is prompt (wait for the trusted UI), approve or decline.
	Mode string `yaml:"mode"`
}

func Default() Config {
	return Config{
		RPCAddr:       "127.0.0.1:8791",
		DataDir:       "data",
		TrustedOrigin: "https://wallet.maskwallet.app",
		Curve:         "ed25519",
		Agent: AgentConfig{
			Transport: "mock",
		},
		RateLimit: RateConfig{
			RPS:   30,
			Burst: 60,
		},
		Confirmations: ConfirmConfig{
			Mode: "prompt",
		},
	}
}

// RateLimitEnabled resolves the tri-state flag: explicit config wins, then
// MASK_ENV=test disables, then the default of enabled.
func (c Config) RateLimitEnabled() bool {
	if c.RateLimit.Enabled != nil {
		return *c.RateLimit.Enabled
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MASK_ENV"))) {
	case "test", "testing":
		return false
	}
	return true
}

func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		Merge(&cfg, parsed)
		ApplyEnvOverrides(&cfg)
		return cfg
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src Config) {
	if src.RPCAddr != "" {
		dst.RPCAddr = src.RPCAddr
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.TrustedOrigin != "" {
		dst.TrustedOrigin = src.TrustedOrigin
	}
	if src.Curve != "" {
		dst.Curve = src.Curve
	}
	if src.Agent.Transport != "" {
		dst.Agent.Transport = src.Agent.Transport
	}
	if src.Agent.Endpoint != "" {
		dst.Agent.Endpoint = src.Agent.Endpoint
	}
	if src.RateLimit.Enabled != nil {
		dst.RateLimit.Enabled = src.RateLimit.Enabled
	}
	if src.RateLimit.RPS != 0 {
		dst.RateLimit.RPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst != 0 {
		dst.RateLimit.Burst = src.RateLimit.Burst
	}
	if src.Confirmations.Mode != "" {
		dst.Confirmations.Mode = src.Confirmations.Mode
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MASK_RPC_ADDR")); v != "" {
		cfg.RPCAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_TRUSTED_ORIGIN")); v != "" {
		cfg.TrustedOrigin = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_CURVE")); v != "" {
		cfg.Curve = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_AGENT_TRANSPORT")); v != "" {
		cfg.Agent.Transport = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_AGENT_ENDPOINT")); v != "" {
		cfg.Agent.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_CONFIRM_MODE")); v != "" {
		cfg.Confirmations.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("MASK_RATE_LIMIT_ENABLED")); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimit.Enabled = &parsed
		}
	}
}
