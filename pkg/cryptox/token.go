package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Random byte counts for GenerateToken.
const (
	TokenSize128 = 16 // key ids
	TokenSize256 = 32 // API key secrets, authorization codes, refresh tokens, PKCE verifiers
)

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken is the lookup key stored in place of a bearer secret
// (refresh tokens, authorization codes): unpadded base64url SHA-256.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// HexDigest returns the lowercase hex SHA-256 of b. Used where the digest
// is part of an external format and must be stable across implementations.
func HexDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
