package newsletter

import (
	"crypto/rand"
	"fmt"
)

const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 25
)

// generateSubscriptionToken returns a 25-character alphanumeric token
// from a cryptographic random source. 62^25 possible values make
// collisions and guesses negligible over any realistic volume.
func generateSubscriptionToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
