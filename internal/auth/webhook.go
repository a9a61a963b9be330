package auth

import (
	"crypto/subtle"
)

// VerifyWebhookSecret compares the presented webhook secret in constant
// time so the comparison does not leak the secret length or prefix.
func VerifyWebhookSecret(presented, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
