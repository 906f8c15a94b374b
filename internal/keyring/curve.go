package keyring

import (
	"crypto/ed25519"
	"errors"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	seedSize = 32

	// SignatureSize holds for both curves: ed25519 natively, secp256k1 as
	// fixed r||s. Deterministic signing on both (RFC 6979 for ECDSA), so
	// the same digest under the same key always yields the same bytes.
	SignatureSize = 64
)

type Curve uint8

const (
	CurveEd25519 Curve = iota
	CurveSecp256k1
)

var (
	ErrUnknownCurve     = errors.New("unknown derivation curve")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid signature encoding")
)

func ParseCurve(name string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ed25519":
		return CurveEd25519, nil
	case "secp256k1":
		return CurveSecp256k1, nil
	default:
		return 0, ErrUnknownCurve
	}
}

func (c Curve) String() string {
	switch c {
	case CurveEd25519:
		return "ed25519"
	case CurveSecp256k1:
		return "secp256k1"
	default:
		return "unknown"
	}
}

func (c Curve) valid() bool {
	return c == CurveEd25519 || c == CurveSecp256k1
}

func (c Curve) publicKeySize() int {
	switch c {
	case CurveEd25519:
		return ed25519.PublicKeySize
	case CurveSecp256k1:
		return 33 // compressed
	default:
		return 0
	}
}

// DerivedKey is a private key handle scoped to one derivation. Callers get
// the public side and a signing operation; the private material stays inside
// and can be wiped with Zero once the call completes.
type DerivedKey struct {
	curve    Curve
	edPriv   ed25519.PrivateKey
	secpPriv *secp256k1.PrivateKey
	pub      []byte
}

func newDerivedKey(curve Curve, seed []byte) (*DerivedKey, error) {
	switch curve {
	case CurveEd25519:
		priv := ed25519.NewKeyFromSeed(seed)
		return &DerivedKey{
			curve:  curve,
			edPriv: priv,
			pub:    append([]byte(nil), priv.Public().(ed25519.PublicKey)...),
		}, nil
	case CurveSecp256k1:
		priv := secp256k1.PrivKeyFromBytes(seed)
		return &DerivedKey{
			curve:    curve,
			secpPriv: priv,
			pub:      priv.PubKey().SerializeCompressed(),
		}, nil
	default:
		return nil, ErrUnknownCurve
	}
}

func (k *DerivedKey) Curve() Curve {
	return k.curve
}

func (k *DerivedKey) PublicKey() []byte {
	return append([]byte(nil), k.pub...)
}

func (k *DerivedKey) Principal() string {
	return PrincipalFromPublicKey(k.curve, k.pub)
}

func (k *DerivedKey) Pseudonym() string {
	return PseudonymFromPublicKey(k.pub)
}

// Sign signs a prehashed message. Output is always SignatureSize bytes.
func (k *DerivedKey) Sign(digest []byte) ([]byte, error) {
	switch k.curve {
	case CurveEd25519:
		return ed25519.Sign(k.edPriv, digest), nil
	case CurveSecp256k1:
		// SignCompact yields [recovery, r, s]; the recovery byte is
		// dropped to keep the fixed r||s form.
		compact := secpecdsa.SignCompact(k.secpPriv, digest, true)
		return append([]byte(nil), compact[1:]...), nil
	default:
		return nil, ErrUnknownCurve
	}
}

func (k *DerivedKey) Zero() {
	zeroBytes(k.edPriv)
	k.edPriv = nil
	if k.secpPriv != nil {
		k.secpPriv.Zero()
		k.secpPriv = nil
	}
}

// Verify checks a SignatureSize-byte signature over a prehashed message.
func Verify(curve Curve, pub, digest, sig []byte) (bool, error) {
	if len(pub) != curve.publicKeySize() {
		return false, ErrInvalidPublicKey
	}
	if len(sig) != SignatureSize {
		return false, ErrInvalidSignature
	}
	switch curve {
	case CurveEd25519:
		return ed25519.Verify(ed25519.PublicKey(pub), digest, sig), nil
	case CurveSecp256k1:
		parsed, err := secp256k1.ParsePubKey(pub)
		if err != nil {
			return false, ErrInvalidPublicKey
		}
		var r, s secp256k1.ModNScalar
		if overflow := r.SetByteSlice(sig[:32]); overflow {
			return false, nil
		}
		if overflow := s.SetByteSlice(sig[32:]); overflow {
			return false, nil
		}
		return secpecdsa.NewSignature(&r, &s).Verify(digest, parsed), nil
	default:
		return false, ErrUnknownCurve
	}
}
