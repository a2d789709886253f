// Package crypto derives purpose-bound keys from the configured secret.
package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Purpose separates keys derived from the same secret
type Purpose string

const (
	// PurposeTokenSigning keys the HS256 bearer tokens.
	PurposeTokenSigning Purpose = "floatbank/v1/token-signing"
)

// KeySize is the length of every derived key in bytes
const KeySize = 32

// DeriveKey derives a KeySize-byte key for purpose from secret using HKDF-SHA256.
func DeriveKey(secret string, purpose Purpose) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("crypto: secret must not be empty")
	}
	if purpose == "" {
		return nil, fmt.Errorf("crypto: purpose must not be empty")
	}

	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("crypto: hkdf key derivation failed: %w", err)
	}
	return key, nil
}
