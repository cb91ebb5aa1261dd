package auth

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 32

// GenerateSessionToken returns an unguessable, URL-safe opaque token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
