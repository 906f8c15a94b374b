package wallet

import (
	"errors"
	"strings"
	"testing"

	"mask-wallet/go-backend/internal/keyring"
)

func testRing(t *testing.T) *keyring.KeyRing {
	t.Helper()
	entropy := make([]byte, keyring.MasterEntropySize)
	for i := range entropy {
		entropy[i] = byte(i + 1)
	}
	kr, err := keyring.New(entropy, keyring.CurveEd25519)
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return kr
}

func TestAddMaskAppendsSlots(t *testing.T) {
	kr := testRing(t)
	state := NewState()

	first, id, err := state.AddMask(kr, "https://google.com")
	if err != nil {
		t.Fatalf("add mask: %v", err)
	}
	if id != 0 {
		t.Fatalf("first mask id = %d, want 0", id)
	}
	second, id, err := state.AddMask(kr, "https://google.com")
	if err != nil {
		t.Fatalf("add second mask: %v", err)
	}
	if id != 1 {
		t.Fatalf("second mask id = %d, want 1", id)
	}
	if first.Principal == second.Principal {
		t.Fatal("distinct identity slots must have distinct principals")
	}
	if !strings.HasPrefix(first.Principal, "mask1") {
		t.Fatalf("principal %q lacks prefix", first.Principal)
	}
}

func TestMaskAtCreatesOnlyNextFreeSlot(t *testing.T) {
	kr := testRing(t)
	state := NewState()

	mask0, err := state.MaskAt(kr, "https://google.com", 0)
	if err != nil {
		t.Fatalf("mask at 0: %v", err)
	}
	again, err := state.MaskAt(kr, "https://google.com", 0)
	if err != nil {
		t.Fatalf("mask at 0 again: %v", err)
	}
	if mask0 != again {
		t.Fatal("existing slot must return the stored mask unchanged")
	}
	if _, err := state.MaskAt(kr, "https://google.com", 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("gap slot: expected ErrInvalidInput, got %v", err)
	}
	if _, err := state.MaskAt(kr, "https://google.com", -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative slot: expected ErrInvalidInput, got %v", err)
	}
	if _, err := state.MaskAt(kr, "https://google.com", 1); err != nil {
		t.Fatalf("next free slot: %v", err)
	}
}

func TestEditPseudonymKeepsPrincipal(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	mask, _, err := state.AddMask(kr, "https://google.com")
	if err != nil {
		t.Fatalf("add mask: %v", err)
	}

	renamed, err := state.EditPseudonym("https://google.com", 0, "Work")
	if err != nil {
		t.Fatalf("edit pseudonym: %v", err)
	}
	if renamed.Pseudonym != "Work" {
		t.Fatalf("pseudonym = %q, want Work", renamed.Pseudonym)
	}
	if renamed.Principal != mask.Principal {
		t.Fatal("renaming must not change the principal")
	}
	if _, err := state.EditPseudonym("https://google.com", 0, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := state.EditPseudonym("https://google.com", 5, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing slot: expected ErrInvalidInput, got %v", err)
	}
}

func TestUnlinkOneInvalidatesDependentSessions(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if err := state.Link("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("link: %v", err)
	}
	// google.com logs in with a dfinity.org-derived identity over the edge.
	if _, err := state.Login(kr, "https://google.com", 0, "https://dfinity.org", 1000); err != nil {
		t.Fatalf("linked login: %v", err)
	}

	removed, err := state.UnlinkOne("https://dfinity.org", "https://google.com")
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if !removed {
		t.Fatal("unlink should report the edge removed")
	}
	if state.SessionExists("https://google.com") {
		t.Fatal("session depending on the removed edge must be invalidated")
	}
}

func TestUnlinkOneLeavesIndependentSessions(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if err := state.Link("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("link: %v", err)
	}
	// A self-derived session on google.com does not depend on the edge.
	if _, err := state.Login(kr, "https://google.com", 0, "", 1000); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := state.UnlinkOne("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if !state.SessionExists("https://google.com") {
		t.Fatal("self-derived session must survive the unlink")
	}
}

func TestUnlinkAllDetachesBothDirections(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if err := state.Link("https://hub.example", "https://a.example"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := state.Link("https://b.example", "https://hub.example"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := state.Login(kr, "https://a.example", 0, "https://hub.example", 1); err != nil {
		t.Fatalf("linked login: %v", err)
	}

	removed, err := state.UnlinkAll("https://hub.example")
	if err != nil {
		t.Fatalf("unlink all: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if len(state.Links) != 0 {
		t.Fatalf("expected no edges left, have %v", state.Links)
	}
	if state.SessionExists("https://a.example") {
		t.Fatal("dependent session must be invalidated")
	}
}

func TestUnlinkOneRejectsSelf(t *testing.T) {
	state := NewState()
	if _, err := state.UnlinkOne("https://a.example", "https://a.example"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
