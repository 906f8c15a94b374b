package wallet

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"mask-wallet/go-backend/internal/securestore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStoreBootstrapCreatesStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.enc")
	store := NewStore(path, "secret", testLogger())

	state, err := store.Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if state.Version != stateVersion {
		t.Fatalf("version = %d, want %d", state.Version, stateVersion)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file should exist after bootstrap: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	if bytes.Contains(raw, []byte("origin_data")) {
		t.Fatal("state file must not contain plaintext")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.enc")
	store := NewStore(path, "secret", testLogger())
	kr := testRing(t)

	state := NewState()
	if _, _, err := state.AddMask(kr, "https://google.com"); err != nil {
		t.Fatalf("add mask: %v", err)
	}
	if err := state.Link("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := state.Login(kr, "https://google.com", 0, "", 42); err != nil {
		t.Fatalf("login: %v", err)
	}
	state.Assets["ICP"] = Asset{Symbol: "ICP", Ledger: "ryjl3-tyaaa", Decimals: 8}
	state.Statistics.Logins = 3
	if err := store.Persist(state); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := store.Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	rec, ok := loaded.Record("https://google.com")
	if !ok || len(rec.Masks) != 1 {
		t.Fatalf("expected one mask, got %+v", rec)
	}
	if rec.CurrentSession == nil || rec.CurrentSession.TimestampMs != 42 {
		t.Fatalf("session did not survive the round trip: %+v", rec.CurrentSession)
	}
	if !loaded.Links.Has("https://dfinity.org", "https://google.com") {
		t.Fatal("link did not survive the round trip")
	}
	if loaded.Assets["ICP"].Decimals != 8 {
		t.Fatalf("asset did not survive: %+v", loaded.Assets)
	}
	if loaded.Statistics.Logins != 3 {
		t.Fatalf("statistics did not survive: %+v", loaded.Statistics)
	}
}

func TestStoreInMemoryMode(t *testing.T) {
	store := NewStore("", "", testLogger())
	state, err := store.Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := store.Persist(state); err != nil {
		t.Fatalf("persist: %v", err)
	}
}

func TestStoreRejectsWrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.enc")
	if _, err := NewStore(path, "secret", testLogger()).Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := NewStore(path, "wrong", testLogger()).Bootstrap(); err == nil {
		t.Fatal("wrong secret should fail to decrypt")
	}
}

func TestStorePersistedFormMirrorsLinkViews(t *testing.T) {
	state := NewState()
	if err := state.Link("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("link: %v", err)
	}
	persisted := encodeState(state)

	from := persisted.OriginData["https://dfinity.org"]
	to := persisted.OriginData["https://google.com"]
	if len(from.LinksTo) != 1 || from.LinksTo[0] != "https://google.com" {
		t.Fatalf("source record links_to = %v", from.LinksTo)
	}
	if len(to.LinksFrom) != 1 || to.LinksFrom[0] != "https://dfinity.org" {
		t.Fatalf("target record links_from = %v", to.LinksFrom)
	}
}

func TestStoreLoadRepairsDisagreeingViews(t *testing.T) {
	// A hand-edited payload where only one side of the edge is recorded
	// loads as the union of both views.
	persisted := persistedState{
		Version: stateVersion,
		OriginData: map[string]persistedOriginRecord{
			"https://google.com": {LinksFrom: []string{"https://dfinity.org"}},
		},
	}
	store := NewStore("", "", testLogger())
	state, err := store.decode(persisted)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !state.Links.Has("https://dfinity.org", "https://google.com") {
		t.Fatal("edge should be rebuilt from the links_from view")
	}
}

func TestStoreMigratesVersionOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.enc")
	payload, err := json.Marshal(persistedState{
		Version: 1,
		OriginData: map[string]persistedOriginRecord{
			"https://google.com": {Masks: []Mask{{Pseudonym: "Old-Name-01", Principal: "mask1abc"}}},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	encrypted, err := securestore.Encrypt("secret", payload)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := os.WriteFile(path, encrypted, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	state, err := NewStore(path, "secret", testLogger()).Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap v1 payload: %v", err)
	}
	rec, ok := state.Record("https://google.com")
	if !ok || len(rec.Masks) != 1 {
		t.Fatalf("mask lost in migration: %+v", rec)
	}
	if state.Statistics != (Statistics{}) {
		t.Fatalf("v1 migration should start statistics at zero: %+v", state.Statistics)
	}
}

func TestStoreRejectsUnknownVersion(t *testing.T) {
	store := NewStore("", "", testLogger())
	if _, err := store.decode(persistedState{Version: 99}); err == nil {
		t.Fatal("future versions must be rejected")
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if _, err := state.Login(kr, "https://google.com", 0, "", 1); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := state.Link("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("link: %v", err)
	}
	state.Assets["ICP"] = Asset{Symbol: "ICP", Ledger: "l", Decimals: 8}

	clone := state.Clone()
	clone.Logout("https://google.com")
	clone.Links.Remove("https://dfinity.org", "https://google.com")
	delete(clone.Assets, "ICP")
	clone.Statistics.Logins = 99

	if !state.SessionExists("https://google.com") {
		t.Fatal("clone mutation leaked into the original session")
	}
	if !state.Links.Has("https://dfinity.org", "https://google.com") {
		t.Fatal("clone mutation leaked into the original links")
	}
	if _, ok := state.Assets["ICP"]; !ok {
		t.Fatal("clone mutation leaked into the original assets")
	}
	if state.Statistics.Logins != 0 {
		t.Fatal("clone mutation leaked into the original statistics")
	}
}
