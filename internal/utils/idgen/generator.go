// Package idgen builds the prefixed identifiers used for consultation
// and payment records.
package idgen

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSecureID returns "<prefix>_<suffix>" where suffix is length
// characters drawn from [0-9a-z] via crypto/rand.
func GenerateSecureID(prefix string, length int) (string, error) {
	suffix := make([]byte, length)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = alphabet[int(b)%len(alphabet)]
	}
	return prefix + "_" + string(suffix), nil
}
