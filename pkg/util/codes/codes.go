package codes

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
	ErrEmptyCharset  = errors.New("charset cannot be empty")
)

const (
	// DocumentIDLength matches the length of ids assigned by the previous document store.
	DocumentIDLength = 20

	// TemporaryPasswordLength is the default length of generated patient passwords.
	TemporaryPasswordLength = 10

	charsetAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Mixed case alphanumeric excluding ambiguous characters (I, O, l, 0, 1).
	CharsetPassword = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// DocumentID returns a random 20-character alphanumeric id.
func DocumentID() (string, error) {
	return GenerateCode(DocumentIDLength, charsetAlphanumeric)
}

// TemporaryPassword returns a random password drawn from CharsetPassword.
// Non-positive lengths fall back to TemporaryPasswordLength.
func TemporaryPassword(length int) (string, error) {
	if length <= 0 {
		length = TemporaryPasswordLength
	}
	return GenerateCode(length, CharsetPassword)
}

// GenerateSecureToken creates a cryptographically secure hex token.
// byteLength specifies the number of random bytes (output will be 2x this length in hex).
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// GenerateCode creates a code of specified length from a given character set.
func GenerateCode(length int, charset string) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	if len(charset) == 0 {
		return "", ErrEmptyCharset
	}

	return generateFromCharset(length, charset)
}

func generateFromCharset(length int, charset string) (string, error) {
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		result[i] = charset[n.Int64()]
	}

	return string(result), nil
}
