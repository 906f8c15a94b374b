package keyring

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/crypto/blake2b"
)

const pseudonymDomain = "maskwallet/pseudonym/v1"

// PseudonymFromPublicKey renders a stable human-readable label for a derived
// key: two wordlist words plus a two-digit suffix. The same public key always
// maps to the same label, so a mask keeps its name across restarts.
func PseudonymFromPublicKey(pub []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(pseudonymDomain))
	h.Write(pub)
	sum := h.Sum(nil)

	words := wordlists.English
	first := words[int(binary.BigEndian.Uint16(sum[0:2]))%len(words)]
	second := words[int(binary.BigEndian.Uint16(sum[2:4]))%len(words)]
	suffix := binary.BigEndian.Uint16(sum[4:6]) % 100
	return fmt.Sprintf("%s-%s-%02d", capitalize(first), capitalize(second), suffix)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
