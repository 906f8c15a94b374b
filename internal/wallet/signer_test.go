package wallet

import (
	"bytes"
	"errors"
	"testing"

	"mask-wallet/go-backend/internal/keyring"
)

func TestSignRequestRequiresSession(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	request := map[string]any{"hello": "world"}

	if _, err := state.SignRequest(kr, "https://google.com", request, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := state.GetPublicKey(kr, "https://google.com", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSignRequestIsRepeatableAndVerifiable(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if _, err := state.Login(kr, "https://google.com", 0, "", 1); err != nil {
		t.Fatalf("login: %v", err)
	}
	request := map[string]any{"action": "transfer", "amount": float64(7)}

	sig, err := state.SignRequest(kr, "https://google.com", request, nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != keyring.SignatureSize {
		t.Fatalf("signature length = %d, want %d", len(sig), keyring.SignatureSize)
	}
	again, err := state.SignRequest(kr, "https://google.com", request, nil)
	if err != nil {
		t.Fatalf("sign again: %v", err)
	}
	if !bytes.Equal(sig, again) {
		t.Fatal("same request under the same session must sign identically")
	}

	pub, err := state.GetPublicKey(kr, "https://google.com", nil)
	if err != nil {
		t.Fatalf("get public key: %v", err)
	}
	digest, err := CanonicalRequestDigest(request)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	ok, err := keyring.Verify(kr.Curve(), pub, digest, sig)
	if err != nil || !ok {
		t.Fatalf("verify = %v, %v; want true, nil", ok, err)
	}
}

func TestSignRequestUsesLinkedDerivationOrigin(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if err := state.Link("https://dfinity.org", "https://google.com"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := state.Login(kr, "https://google.com", 0, "https://dfinity.org", 1); err != nil {
		t.Fatalf("linked login: %v", err)
	}
	if _, err := state.Login(kr, "https://dfinity.org", 0, "", 2); err != nil {
		t.Fatalf("direct login: %v", err)
	}

	linkedPub, err := state.GetPublicKey(kr, "https://google.com", nil)
	if err != nil {
		t.Fatalf("linked pub: %v", err)
	}
	directPub, err := state.GetPublicKey(kr, "https://dfinity.org", nil)
	if err != nil {
		t.Fatalf("direct pub: %v", err)
	}
	if !bytes.Equal(linkedPub, directPub) {
		t.Fatal("linked session must expose the linked origin's key")
	}

	request := map[string]any{"n": float64(1)}
	linkedSig, err := state.SignRequest(kr, "https://google.com", request, nil)
	if err != nil {
		t.Fatalf("linked sign: %v", err)
	}
	directSig, err := state.SignRequest(kr, "https://dfinity.org", request, nil)
	if err != nil {
		t.Fatalf("direct sign: %v", err)
	}
	if !bytes.Equal(linkedSig, directSig) {
		t.Fatal("both sessions sign with the same derived key")
	}
}

func TestSignRequestSaltSelectsDifferentKey(t *testing.T) {
	kr := testRing(t)
	state := NewState()
	if _, err := state.Login(kr, "https://google.com", 0, "", 1); err != nil {
		t.Fatalf("login: %v", err)
	}
	plain, err := state.GetPublicKey(kr, "https://google.com", nil)
	if err != nil {
		t.Fatalf("pub: %v", err)
	}
	salted, err := state.GetPublicKey(kr, "https://google.com", []byte("ledger-1"))
	if err != nil {
		t.Fatalf("salted pub: %v", err)
	}
	if bytes.Equal(plain, salted) {
		t.Fatal("salt must select an unrelated key")
	}
}
