package privacylog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSanitizeArgsFingerprintsOriginKeys(t *testing.T) {
	args := SanitizeArgs(
		"origin", "https://google.com",
		"linked_origin", "https://dfinity.org",
		"kind", "login",
	)
	if len(args) != 6 {
		t.Fatalf("unexpected args length: %d", len(args))
	}
	if got := args[0]; got != "origin_fp" {
		t.Fatalf("unexpected key: %v", got)
	}
	if got := args[1].(string); !strings.HasPrefix(got, "fp_") {
		t.Fatalf("unexpected fingerprint value: %q", got)
	}
	if got := args[2]; got != "linked_origin_fp" {
		t.Fatalf("unexpected key: %v", got)
	}
	if got := args[4]; got != "kind" {
		t.Fatalf("expected untouched key, got %v", got)
	}
}

func TestFingerprintIsStableWithinProcess(t *testing.T) {
	a := FingerprintID("https://google.com")
	b := FingerprintID("https://google.com")
	if a == "" || a != b {
		t.Fatalf("expected stable fingerprint, got %q and %q", a, b)
	}
	if a == FingerprintID("https://dfinity.org") {
		t.Fatal("distinct origins should not collide")
	}
}

func TestSanitizingHandlerRedactsSensitiveAndOrigins(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))
	logger.Info("test",
		"caller_origin", "https://evil.example",
		"rpc_token", "secret",
		"mnemonic", "abandon abandon ability",
		"status", "ok",
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if _, ok := payload["caller_origin"]; ok {
		t.Fatal("caller_origin should not be present verbatim")
	}
	if _, ok := payload["caller_origin_fp"]; !ok {
		t.Fatal("caller_origin_fp should be present")
	}
	if got, _ := payload["rpc_token"].(string); got != redactedValue {
		t.Fatalf("expected redacted token, got %q", got)
	}
	if got, _ := payload["mnemonic"].(string); got != redactedValue {
		t.Fatalf("expected redacted mnemonic, got %q", got)
	}
	if got, _ := payload["status"].(string); got != "ok" {
		t.Fatalf("expected untouched status, got %q", got)
	}
}

func TestSanitizingHandlerImplementsSlogHandlerContract(t *testing.T) {
	var buf bytes.Buffer
	h := WrapHandler(slog.NewJSONHandler(&buf, nil))
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected handler enabled for info")
	}
	rec := slog.NewRecord(time.Now().UTC(), slog.LevelInfo, "msg", 0)
	rec.AddAttrs(slog.String("derivation_origin", "https://google.com"))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(buf.String(), "derivation_origin_fp") {
		t.Fatalf("expected sanitized origin key, got %s", buf.String())
	}
}
