// Package pkce implements the Proof Key for Code Exchange helpers from
// RFC 7636 used by the authorization flow.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const (
	// MinVerifierLength and MaxVerifierLength bound the code verifier
	// per RFC 7636 section 4.1.
	MinVerifierLength = 43
	MaxVerifierLength = 128

	// DefaultVerifierLength is used when callers pass a length of 0.
	DefaultVerifierLength = 64

	// MethodS256 is the only challenge method this package produces.
	MethodS256 = "S256"
)

// NewVerifier returns a cryptographically random code verifier of the
// given length. A length of 0 selects DefaultVerifierLength; lengths
// outside the RFC 7636 range are rejected.
func NewVerifier(length int) (string, error) {
	if length == 0 {
		length = DefaultVerifierLength
	}
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", fmt.Errorf("pkce: verifier length %d outside range [%d, %d]", length, MinVerifierLength, MaxVerifierLength)
	}

	// Base64url output stays inside the RFC 7636 unreserved set. Three
	// random bytes yield four characters; round up and trim.
	raw := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("pkce: generate verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}

// ChallengeS256 computes the S256 code challenge for a verifier:
// base64url(sha256(verifier)) without padding. Deterministic for the
// same verifier. The verifier itself is never placed in the authorize
// URL; it travels only once, in the code exchange.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyS256 reports whether a verifier matches a previously issued
// challenge, in constant time.
func VerifyS256(verifier, challenge string) bool {
	expected := ChallengeS256(verifier)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(challenge)) == 1
}
