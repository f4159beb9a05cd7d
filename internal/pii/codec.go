package pii

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// ErrDecryption is returned when a value is malformed, was not produced by
// this codec, or was encrypted under a different key. Callers use it to tell
// "already encrypted" apart from plaintext and must treat it as fatal for the
// record rather than substituting an empty string.
var ErrDecryption = errors.New("pii: decryption failed")

// Key derivation parameters. The salt is fixed per deployment so the same
// secret always derives the same key.
const (
	scryptN   = 32768
	scryptR   = 8
	scryptP   = 1
	keyLength = 32
)

var derivationSalt = []byte("origination-pii-v1")

// Codec encrypts and decrypts sensitive scalar fields (ID numbers).
// Values are stored as base64(nonceHex ":" cipherHex). The key is derived
// exactly once from the configured secret and reused for the life of the
// process.
type Codec struct {
	secret string

	once sync.Once
	aead cipher.AEAD
	err  error
}

// NewCodec returns a codec for the given secret. Derivation is deferred to
// the first Encrypt/Decrypt call.
func NewCodec(secret string) *Codec {
	return &Codec{secret: secret}
}

func (c *Codec) derive() (cipher.AEAD, error) {
	c.once.Do(func() {
		if c.secret == "" {
			c.err = errors.New("pii: encryption secret is not configured")
			return
		}
		key, err := scrypt.Key([]byte(c.secret), derivationSalt, scryptN, scryptR, scryptP, keyLength)
		if err != nil {
			c.err = fmt.Errorf("pii: key derivation failed: %w", err)
			return
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			c.err = fmt.Errorf("pii: cipher init failed: %w", err)
			return
		}
		c.aead, c.err = cipher.NewGCM(block)
	})
	return c.aead, c.err
}

// Encrypt encrypts plaintext under the derived key. A fresh random nonce is
// generated per call, so encrypting the same plaintext twice yields different
// ciphertexts.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	aead, err := c.derive()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("pii: nonce generation failed: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)
	framed := hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext)
	return base64.StdEncoding.EncodeToString([]byte(framed)), nil
}

// Decrypt reverses Encrypt. Any value not produced by Encrypt, or produced
// under a different key, fails with an error wrapping ErrDecryption.
func (c *Codec) Decrypt(encrypted string) (string, error) {
	aead, err := c.derive()
	if err != nil {
		return "", err
	}

	framed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: not base64", ErrDecryption)
	}

	parts := strings.SplitN(string(framed), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: missing nonce separator", ErrDecryption)
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != aead.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce", ErrDecryption)
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext", ErrDecryption)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether the value decrypts under this codec. Used by
// the migration tool to skip rows that were already converted.
func (c *Codec) IsEncrypted(value string) bool {
	_, err := c.Decrypt(value)
	return err == nil
}
