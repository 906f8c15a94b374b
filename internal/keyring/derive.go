package keyring

import (
	"crypto/sha256"
	"errors"
	"io"

	"github.com/multiformats/go-varint"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

const (
	// MasterEntropySize is the exact length of the master secret handed
	// over by the vault. All derived identities hang off this one value.
	MasterEntropySize = 64

	pathDomain      = "maskwallet/path/v1"
	hkdfInfoSigning = "maskwallet/identity/signing/v1"
)

var (
	ErrMasterEntropySize = errors.New("master entropy has wrong length")
	ErrEmptyOrigin       = errors.New("derivation origin is empty")
)

// KeyRing derives per-(origin, identity, salt) keypairs from the master
// entropy. Derivation is a pure function of its inputs: the same inputs
// always reproduce the same keypair, which is what lets an origin log the
// user back in with the same identity after a restart.
type KeyRing struct {
	master []byte
	curve  Curve
}

func New(masterEntropy []byte, curve Curve) (*KeyRing, error) {
	if len(masterEntropy) != MasterEntropySize {
		return nil, ErrMasterEntropySize
	}
	if !curve.valid() {
		return nil, ErrUnknownCurve
	}
	return &KeyRing{
		master: append([]byte(nil), masterEntropy...),
		curve:  curve,
	}, nil
}

func (kr *KeyRing) Curve() Curve {
	return kr.curve
}

// Derive produces the keypair for one identity slot under one origin.
// Distinct origins, identity ids, or salts map to cryptographically
// unrelated keys; there is no way to correlate two derived keys short of
// holding the master entropy.
func (kr *KeyRing) Derive(origin string, identityID uint32, salt []byte) (*DerivedKey, error) {
	if origin == "" {
		return nil, ErrEmptyOrigin
	}
	if len(kr.master) != MasterEntropySize {
		return nil, ErrMasterEntropySize
	}
	path := derivationPath(origin, identityID, salt)
	seed, err := hkdfExpand(kr.master, path, hkdfInfoSigning, seedSize)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	return newDerivedKey(kr.curve, seed)
}

// Zero wipes the master entropy. The ring is unusable afterwards.
func (kr *KeyRing) Zero() {
	zeroBytes(kr.master)
	kr.master = nil
}

// derivationPath hashes the (origin, identityID, salt) triple into the HKDF
// salt. Every component is length-prefixed so the encoding is injective:
// no two distinct triples can collide on the same byte stream.
func derivationPath(origin string, identityID uint32, salt []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(pathDomain))
	h.Write(varint.ToUvarint(uint64(len(origin))))
	h.Write([]byte(origin))
	h.Write(varint.ToUvarint(uint64(identityID)))
	h.Write(varint.ToUvarint(uint64(len(salt))))
	h.Write(salt)
	return h.Sum(nil)
}

func hkdfExpand(secret, salt []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
