package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GenerateUniqueID creates a secure random hex string of 2*length characters.
func GenerateUniqueID(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateAPIKey returns a 64 character hex key.
func GenerateAPIKey() (string, error) {
	return GenerateUniqueID(32)
}

// ShortReference returns the first 12 hex characters of a random UUID.
func ShortReference() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GenerateOTP returns a zero-padded random 6 digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
