package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Ambiguous glyphs (0/O, 1/l/I) are left out so the password can be read over the phone.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TemporaryPasswordLength is the size of generated guardian passwords.
const TemporaryPasswordLength = 10

// GeneratePassword returns a random password of n characters.
func GeneratePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
