// Package securestore seals wallet state at rest with an argon2id-stretched
// passphrase and XChaCha20-Poly1305. The envelope metadata is bound into the
// cipher as associated data, so a tampered header fails authentication the
// same way a tampered ciphertext does.
package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	filePrefix      = "MASKENC1\n"
	kdfName         = "argon2id"

	// aadDomain ties ciphertexts to this store. An envelope produced by any
	// other argon2id+XChaCha scheme, even one with the same JSON shape, will
	// not open here.
	aadDomain = "maskwallet/securestore/v1"

	defaultKDFTime     = 2
	defaultKDFMemoryKB = 64 * 1024
	defaultKDFThreads  = 1

	// Upper bounds for stored KDF parameters. They cap the work an attacker
	// can demand of us through a doctored envelope, not what we produce.
	maxKDFTime     = 16
	maxKDFMemoryKB = 1 << 20
	maxKDFThreads  = 8
)

var (
	ErrAuthFailed = errors.New("securestore authentication failed")
	ErrInvalid    = errors.New("securestore envelope is invalid")
	ErrLegacyData = errors.New("securestore legacy plaintext data")
)

// Envelope is the persisted form of one sealed payload. The KDF parameters
// are recorded per envelope so old files stay readable after a cost bump.
type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Encrypt seals plaintext and renders it in the on-disk file format.
func Encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	env, err := EncryptEnvelope(passphrase, plaintext)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(filePrefix), raw...), nil
}

// EncryptEnvelope seals plaintext under a fresh salt and nonce at the
// current default KDF cost.
func EncryptEnvelope(passphrase string, plaintext []byte) (*Envelope, error) {
	env := &Envelope{
		Version:     envelopeVersion,
		KDF:         kdfName,
		KDFTime:     defaultKDFTime,
		KDFMemoryKB: defaultKDFMemoryKB,
		KDFThreads:  defaultKDFThreads,
		Salt:        make([]byte, saltSize),
		Nonce:       make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(env.Salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(env.Nonce); err != nil {
		return nil, err
	}

	key := deriveKey(passphrase, env)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	env.Ciphertext = aead.Seal(nil, env.Nonce, plaintext, associatedData(env))
	return env, nil
}

// Decrypt opens data produced by Encrypt. Data without the file prefix is
// reported as ErrLegacyData so callers can offer a migration path.
func Decrypt(passphrase string, data []byte) ([]byte, error) {
	if !strings.HasPrefix(string(data), filePrefix) {
		return nil, ErrLegacyData
	}
	var env Envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		return nil, ErrInvalid
	}
	return DecryptEnvelope(passphrase, &env)
}

func DecryptEnvelope(passphrase string, env *Envelope) ([]byte, error) {
	if err := validate(env); err != nil {
		return nil, err
	}
	key := deriveKey(passphrase, env)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, associatedData(env))
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func validate(env *Envelope) error {
	switch {
	case env == nil,
		env.Version != envelopeVersion,
		env.KDF != kdfName,
		env.KDFTime == 0 || env.KDFTime > maxKDFTime,
		env.KDFMemoryKB == 0 || env.KDFMemoryKB > maxKDFMemoryKB,
		env.KDFThreads == 0 || env.KDFThreads > maxKDFThreads,
		len(env.Nonce) != chacha20poly1305.NonceSizeX:
		return ErrInvalid
	}
	return nil
}

// associatedData binds the envelope header to its ciphertext. Any edit to
// the version or KDF parameters after sealing fails authentication instead
// of silently changing how the key is derived.
func associatedData(env *Envelope) []byte {
	return fmt.Appendf(nil, "%s|v%d|%s|t%d|m%d|p%d",
		aadDomain, env.Version, env.KDF, env.KDFTime, env.KDFMemoryKB, env.KDFThreads)
}

func deriveKey(passphrase string, env *Envelope) []byte {
	return argon2.IDKey([]byte(passphrase), env.Salt,
		env.KDFTime, env.KDFMemoryKB, env.KDFThreads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
