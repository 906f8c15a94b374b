package keyring

import (
	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	principalPrefix = "mask1"
	principalDomain = "maskwallet/principal/v1"
)

// PrincipalFromPublicKey renders the textual public identifier for a derived
// key. The curve tag is folded into the hash so the same key bytes on
// different curves never collide on one principal.
func PrincipalFromPublicKey(curve Curve, pub []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(principalDomain))
	h.Write([]byte{byte(curve)})
	h.Write(pub)
	return principalPrefix + base58.Encode(h.Sum(nil))
}
