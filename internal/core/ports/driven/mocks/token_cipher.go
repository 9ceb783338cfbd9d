package mocks

import (
	"strings"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure MockTokenCipher implements TokenCipher
var _ driven.TokenCipher = (*MockTokenCipher)(nil)

// MockTokenCipher is a mock implementation of TokenCipher for testing.
// It prefixes plaintext instead of encrypting so tests can assert on
// stored values. NOT secure - only for testing.
type MockTokenCipher struct {
	// Custom behavior hooks (optional)
	EncryptFn func(plaintext string) (string, error)
	DecryptFn func(ciphertext string) (string, error)
}

const mockCipherPrefix = "enc:"

// NewMockTokenCipher creates a new MockTokenCipher
func NewMockTokenCipher() *MockTokenCipher {
	return &MockTokenCipher{}
}

func (m *MockTokenCipher) Encrypt(plaintext string) (string, error) {
	if m.EncryptFn != nil {
		return m.EncryptFn(plaintext)
	}
	return mockCipherPrefix + plaintext, nil
}

func (m *MockTokenCipher) Decrypt(ciphertext string) (string, error) {
	if m.DecryptFn != nil {
		return m.DecryptFn(ciphertext)
	}
	if !strings.HasPrefix(ciphertext, mockCipherPrefix) {
		return "", domain.ErrDecryptionFailed
	}
	return strings.TrimPrefix(ciphertext, mockCipherPrefix), nil
}
