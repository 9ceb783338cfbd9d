// Package aead implements the credential cipher: authenticated
// encryption of token strings for storage in plain TEXT columns.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Algorithm selects the AEAD used for new ciphertext. Decryption
// dispatches on the blob's version byte, so either cipher reads blobs
// written by the other and the algorithm can be rotated in place.
type Algorithm string

const (
	AlgorithmAESGCM  Algorithm = "aes-gcm"
	AlgorithmXChaCha Algorithm = "xchacha20-poly1305"
)

const (
	// versionAESGCM and versionXChaCha identify the blob layout:
	// version(1) || nonce || ciphertext.
	versionAESGCM  = 0x01
	versionXChaCha = 0x02

	// keySize is the required raw key size for both AEADs.
	keySize = 32
)

var (
	// ErrInvalidKey is returned when the key doesn't normalize to 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes, hex or base64 encoded")

	// ErrInvalidBlobSize is returned when the encrypted blob is too small.
	ErrInvalidBlobSize = errors.New("encrypted blob is too small")

	// ErrUnsupportedVersion is returned when the blob version byte is unknown.
	ErrUnsupportedVersion = errors.New("unsupported ciphertext version")

	// ErrUnknownAlgorithm is returned for an unrecognized algorithm name.
	ErrUnknownAlgorithm = errors.New("unknown cipher algorithm")
)

// Ensure Cipher implements TokenCipher
var _ driven.TokenCipher = (*Cipher)(nil)

// Cipher seals token strings with AES-256-GCM or XChaCha20-Poly1305.
// Output format: base64(version(1) || nonce || ciphertext).
type Cipher struct {
	gcm     cipher.AEAD
	xchacha cipher.AEAD
	seal    cipher.AEAD
	version byte
}

// NewCipher creates a cipher from an operator-supplied key in hex or
// base64 form. The algorithm applies to new ciphertext only; an empty
// Algorithm selects AES-GCM.
func NewCipher(key string, alg Algorithm) (*Cipher, error) {
	raw, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	xchacha, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, fmt.Errorf("create XChaCha20-Poly1305: %w", err)
	}

	c := &Cipher{gcm: gcm, xchacha: xchacha}
	switch alg {
	case AlgorithmAESGCM, "":
		c.seal, c.version = gcm, versionAESGCM
	case AlgorithmXChaCha:
		c.seal, c.version = xchacha, versionXChaCha
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}
	return c, nil
}

// NormalizeKey accepts a 32-byte key as 64 hex characters or any common
// base64 form (std or url-safe, padded or not) and returns raw bytes.
func NormalizeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if len(key) == hex.EncodedLen(keySize) {
		if raw, err := hex.DecodeString(key); err == nil {
			return raw, nil
		}
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(key); err == nil && len(raw) == keySize {
			return raw, nil
		}
	}
	return nil, ErrInvalidKey
}

// Encrypt seals a plaintext token into a storable string.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.seal.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.seal.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 1+len(nonce)+len(sealed))
	blob[0] = c.version
	copy(blob[1:1+len(nonce)], nonce)
	copy(blob[1+len(nonce):], sealed)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a stored string. Tampered input and key mismatches fail
// with domain.ErrDecryptionFailed.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed encoding", domain.ErrDecryptionFailed)
	}
	if len(blob) < 1 {
		return "", ErrInvalidBlobSize
	}

	var aead cipher.AEAD
	switch blob[0] {
	case versionAESGCM:
		aead = c.gcm
	case versionXChaCha:
		aead = c.xchacha
	default:
		return "", fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	minSize := 1 + aead.NonceSize() + aead.Overhead()
	if len(blob) < minSize {
		return "", ErrInvalidBlobSize
	}

	nonce := blob[1 : 1+aead.NonceSize()]
	sealed := blob[1+aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", domain.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// GenerateKey returns a fresh random key, base64 encoded.
func GenerateKey() (string, error) {
	raw := make([]byte, keySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// GenerateKeyHex returns a fresh random key, hex encoded.
func GenerateKeyHex() (string, error) {
	raw := make([]byte, keySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// ValidateKey checks an operator key by round-tripping a probe value
// through a cipher built from it. Used at startup to fail fast on a
// misconfigured key.
func ValidateKey(key string) error {
	c, err := NewCipher(key, AlgorithmAESGCM)
	if err != nil {
		return err
	}
	sealed, err := c.Encrypt("probe")
	if err != nil {
		return err
	}
	got, err := c.Decrypt(sealed)
	if err != nil {
		return err
	}
	if got != "probe" {
		return domain.ErrDecryptionFailed
	}
	return nil
}
