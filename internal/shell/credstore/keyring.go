package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name miniploy entries appear under in the
// OS keyring.
const keyringService = "miniploy"

// KeyringStore keeps tokens in the OS keyring (Keychain, Secret Service,
// Credential Manager). The backend is selected by the keyring library.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Get(platformID string) (string, error) {
	tok, err := keyring.Get(keyringService, platformID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return tok, nil
}

func (s *KeyringStore) Set(platformID, token string) error {
	if err := keyring.Set(keyringService, platformID, token); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(platformID string) error {
	err := keyring.Delete(keyringService, platformID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring entry: %w", err)
	}
	return nil
}
