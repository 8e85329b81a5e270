package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const tokenBytes = 32

// GenerateToken returns a fresh 256-bit random token, hex encoded.
func GenerateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashToken returns the hex-encoded sha256 of a raw token. Only hashes are
// stored; the raw token is shown to the caller once at issuance.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func MaskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:8] + "..."
}
