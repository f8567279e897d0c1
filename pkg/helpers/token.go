package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the entropy of magic-link and session tokens: 32 random
// bytes, hex encoded to 64 characters.
const tokenBytes = 32

// GenerateToken returns a cryptographically random opaque token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
