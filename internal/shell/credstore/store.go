// Package credstore stores and retrieves platform API tokens.
//
// The deployment engine only ever consumes an already-resolved credential;
// writing tokens is strictly a CLI concern. Two real backends exist: a
// .env-style file and the OS keyring. Process environment variables take
// precedence over both on reads, so CI can inject tokens without touching
// local state.
package credstore

import (
	"errors"
	"os"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
)

// ErrNotFound is returned when no token is stored for a platform.
var ErrNotFound = errors.New("no token stored")

// Store persists platform tokens keyed by platform id.
type Store interface {
	// Get returns the stored token, or ErrNotFound.
	Get(platformID string) (string, error)

	// Set stores a token, replacing any prior value.
	Set(platformID, token string) error

	// Delete removes a stored token. Deleting an absent token is not an
	// error.
	Delete(platformID string) error
}

// CredentialSource names where a resolved token came from.
type CredentialSource string

const (
	SourceEnvironment CredentialSource = "environment"
	SourceStore       CredentialSource = "store"
	SourceNone        CredentialSource = "none"
)

// ResolveCredential finds the token for a platform, preferring the process
// environment (the platform's token env var) over the store. An absent
// token yields an empty credential and SourceNone, not an error.
func ResolveCredential(store Store, p platform.Platform) (domain.Credential, CredentialSource, error) {
	if tok := os.Getenv(p.TokenEnvVar); tok != "" {
		return domain.Credential{PlatformID: p.ID, Token: tok}, SourceEnvironment, nil
	}

	tok, err := store.Get(p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Credential{PlatformID: p.ID}, SourceNone, nil
		}
		return domain.Credential{}, SourceNone, err
	}
	return domain.Credential{PlatformID: p.ID, Token: tok}, SourceStore, nil
}

// =============================================================================
// Mock Store
// =============================================================================

// MockStore is an in-memory store for tests.
type MockStore struct {
	tokens map[string]string
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (s *MockStore) Get(platformID string) (string, error) {
	tok, ok := s.tokens[platformID]
	if !ok {
		return "", ErrNotFound
	}
	return tok, nil
}

func (s *MockStore) Set(platformID, token string) error {
	s.tokens[platformID] = token
	return nil
}

func (s *MockStore) Delete(platformID string) error {
	delete(s.tokens, platformID)
	return nil
}
