package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"mask-wallet/go-backend/internal/adapters/rpc"
	"mask-wallet/go-backend/internal/agent"
	"mask-wallet/go-backend/internal/app"
	"mask-wallet/go-backend/internal/bootstrap/walletconfig"
	"mask-wallet/go-backend/internal/confirm"
	"mask-wallet/go-backend/internal/gate"
	"mask-wallet/go-backend/internal/keyring"
	"mask-wallet/go-backend/internal/metrics"
	"mask-wallet/go-backend/internal/platform/privacylog"
	"mask-wallet/go-backend/internal/vault"
	"mask-wallet/go-backend/internal/wallet"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	dataDir := flag.String("data-dir", "", "Directory for daemon local data (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Mask-RPC-Token (optional)")
	trustedOrigin := flag.String("trusted-origin", "", "Trusted wallet origin override")
	agentTransport := flag.String("agent-transport", "", "Agent transport override: mock | http")
	confirmMode := flag.String("confirm-mode", "", "Confirmation mode override: prompt | approve | decline")
	flag.Parse()
	if *showVersion {
		fmt.Printf("wallet-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *rpcToken != "" {
		_ = os.Setenv("MASK_RPC_TOKEN", *rpcToken)
	}
	if *trustedOrigin != "" {
		_ = os.Setenv("MASK_TRUSTED_ORIGIN", *trustedOrigin)
	}
	if *agentTransport != "" {
		_ = os.Setenv("MASK_AGENT_TRANSPORT", *agentTransport)
	}
	if *confirmMode != "" {
		_ = os.Setenv("MASK_CONFIRM_MODE", *confirmMode)
	}

	logger := slog.New(privacylog.WrapHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(logger)

	cfg := walletconfig.LoadFromPath(*configPath)
	if *rpcAddr != "" {
		cfg.RPCAddr = *rpcAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	srv, err := buildServer(cfg, logger)
	if err != nil {
		log.Fatalf("wallet-daemon failed to initialize: %v", err)
	}

	logger.Info("wallet-daemon starting", "rpc_addr", cfg.RPCAddr, "trusted_origin", cfg.TrustedOrigin)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("wallet-daemon failed: %v", err)
	}
	logger.Info("wallet-daemon stopped")
}

func buildServer(cfg walletconfig.Config, logger *slog.Logger) (*rpc.Server, error) {
	curve, err := keyring.ParseCurve(cfg.Curve)
	if err != nil {
		return nil, err
	}
	secret, err := walletconfig.StoragePassphrase(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	v, err := vault.Open(filepath.Join(cfg.DataDir, "vault.enc"), curve)
	if err != nil {
		return nil, err
	}
	store := wallet.NewStore(filepath.Join(cfg.DataDir, "wallet.enc"), secret, logger)

	submitter, err := buildSubmitter(cfg.Agent)
	if err != nil {
		return nil, err
	}

	met := metrics.New()
	svc, err := app.NewService(store, v, submitter, met, logger, app.Config{
		ConfirmMode: confirm.Mode(cfg.Confirmations.Mode),
	})
	if err != nil {
		return nil, err
	}

	g, err := gate.New(cfg.TrustedOrigin, logger, svc.RecordViolation)
	if err != nil {
		return nil, err
	}

	return rpc.NewServer(cfg.RPCAddr, svc, g, met, rpc.RateLimitConfig{
		Enabled: cfg.RateLimitEnabled(),
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
	}, logger), nil
}

func buildSubmitter(cfg walletconfig.AgentConfig) (agent.Submitter, error) {
	switch cfg.Transport {
	case "", "mock":
		return agent.NewMock(), nil
	case "http":
		return agent.NewHTTPSubmitter(cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unknown agent transport %q", cfg.Transport)
	}
}
