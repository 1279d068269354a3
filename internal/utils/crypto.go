// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateTemporaryPassword returns the one-time credential issued to admin
// users created by the approval workflow. The plaintext only lives long enough
// to be hashed and handed to the notification email.
func GenerateTemporaryPassword() (string, error) {
	return GenerateRandomString(16)
}

func GenerateVerificationCode() (string, error) {
	return GenerateRandomString(32)
}
