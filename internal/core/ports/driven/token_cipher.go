package driven

// TokenCipher encrypts and decrypts credential strings at rest.
// Implementations use authenticated encryption; plaintext and key
// material must never reach a log line.
type TokenCipher interface {
	// Encrypt seals a plaintext credential into a storable string.
	Encrypt(plaintext string) (string, error)

	// Decrypt opens a stored credential. Tampered input or a
	// mismatched key fails with domain.ErrDecryptionFailed, never a
	// silent garbage result.
	Decrypt(ciphertext string) (string, error)
}
