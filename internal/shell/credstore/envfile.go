package credstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/artpar/miniploy/internal/core/platform"
)

// EnvFileStore keeps tokens in a .env-style key-value file. Keys are the
// platforms' token environment variable names (VERCEL_TOKEN, ...), so the
// same file works with plain `source .env` workflows.
type EnvFileStore struct {
	path string
}

// NewEnvFileStore creates a store backed by the file at path. The file is
// created on first write; a missing file reads as empty.
func NewEnvFileStore(path string) *EnvFileStore {
	return &EnvFileStore{path: path}
}

// Path returns the backing file path.
func (s *EnvFileStore) Path() string {
	return s.path
}

func (s *EnvFileStore) key(platformID string) (string, error) {
	p, err := platform.Lookup(platformID)
	if err != nil {
		return "", err
	}
	return p.TokenEnvVar, nil
}

func (s *EnvFileStore) read() (map[string]string, error) {
	vars, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", s.path, err)
	}
	return vars, nil
}

func (s *EnvFileStore) write(vars map[string]string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create env file directory: %w", err)
		}
	}
	if err := godotenv.Write(vars, s.path); err != nil {
		return fmt.Errorf("write env file %s: %w", s.path, err)
	}
	// Tokens live in this file; keep it private to the user.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("restrict env file permissions: %w", err)
	}
	return nil
}

func (s *EnvFileStore) Get(platformID string) (string, error) {
	key, err := s.key(platformID)
	if err != nil {
		return "", err
	}

	vars, err := s.read()
	if err != nil {
		return "", err
	}

	tok, ok := vars[key]
	if !ok || tok == "" {
		return "", ErrNotFound
	}
	return tok, nil
}

func (s *EnvFileStore) Set(platformID, token string) error {
	key, err := s.key(platformID)
	if err != nil {
		return err
	}

	vars, err := s.read()
	if err != nil {
		return err
	}

	vars[key] = token
	return s.write(vars)
}

func (s *EnvFileStore) Delete(platformID string) error {
	key, err := s.key(platformID)
	if err != nil {
		return err
	}

	vars, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := vars[key]; !ok {
		return nil
	}
	delete(vars, key)
	return s.write(vars)
}
