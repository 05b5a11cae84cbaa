// Package cryptox implements the symmetric cipher applied to resource
// payloads before they leave the process.
package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/shackstack/shackstack/internal/common"
	"github.com/shackstack/shackstack/internal/jsonx"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the secretbox key length in bytes.
	KeySize = 32
	// NonceSize is the secretbox nonce length in bytes.
	NonceSize = 24
)

// Cipher seals payloads with NaCl secretbox (XSalsa20-Poly1305) under a
// long-lived key. A Cipher is immutable and safe for concurrent use.
type Cipher struct {
	key [KeySize]byte
}

// NewCipher returns a Cipher for the given 32-byte key. The key is copied.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrValidation, KeySize, len(key))
	}
	c := &Cipher{}
	copy(c.key[:], key)
	return c, nil
}

// GenerateCipher returns a Cipher with a fresh random key. Anything it
// encrypts is unrecoverable once the process exits unless KeyBase64 is
// persisted by the caller.
func GenerateCipher() (*Cipher, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return NewCipher(key)
}

// CipherFromBase64 imports a key previously exported with KeyBase64.
func CipherFromBase64(s string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not valid base64", common.ErrValidation)
	}
	return NewCipher(key)
}

// KeyBase64 exports the key for persistence across restarts.
func (c *Cipher) KeyBase64() string {
	return base64.StdEncoding.EncodeToString(c.key[:])
}

// DeriveKey stretches a passphrase into a cipher key with argon2id.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Encrypt serializes v to JSON and seals it with a fresh random nonce.
//
// The result is base64(nonce || box), the same layout PyNaCl's
// SecretBox.encrypt produces, so it can be embedded in a text payload.
func (c *Cipher) Encrypt(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize payload: %w", err)
	}

	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. The plaintext is parsed as a single JSON value
// when possible, numbers as json.Number, and returned as a raw string
// otherwise.
//
// Every failure (bad encoding, truncated input, failed authentication,
// wrong key) is reported as common.ErrDecryption with no further detail.
func (c *Cipher) Decrypt(s string) (any, error) {
	sealed, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(sealed) < NonceSize+secretbox.Overhead {
		return nil, common.ErrDecryption
	}

	var nonce [NonceSize]byte
	copy(nonce[:], sealed[:NonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[NonceSize:], &nonce, &c.key)
	if !ok {
		return nil, common.ErrDecryption
	}

	v, err := jsonx.Decode(plaintext)
	if err != nil {
		return string(plaintext), nil
	}
	return v, nil
}

// Wipe zeroes b. Use it on key material once it has been copied.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
