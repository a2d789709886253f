package cliclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = "floatbank"

// SaveToken stores the bearer token for serverURL in the OS keyring.
func SaveToken(serverURL, token string) error {
	if err := keyring.Set(keyringService, normalizeServer(serverURL), token); err != nil {
		return fmt.Errorf("saving token to keyring: %w", err)
	}
	return nil
}

// LoadToken returns the stored token for serverURL, or "" when none is stored.
func LoadToken(serverURL string) (string, error) {
	token, err := keyring.Get(keyringService, normalizeServer(serverURL))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token from keyring: %w", err)
	}
	return token, nil
}

// DeleteToken removes the stored token for serverURL.
func DeleteToken(serverURL string) error {
	err := keyring.Delete(keyringService, normalizeServer(serverURL))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("removing token from keyring: %w", err)
	}
	return nil
}

func normalizeServer(serverURL string) string {
	return strings.TrimRight(strings.ToLower(serverURL), "/")
}
