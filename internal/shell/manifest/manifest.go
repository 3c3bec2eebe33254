// Package manifest reads and writes the miniploy.yaml project file.
//
// The manifest records which platform a project deploys to and how it is
// built. `deploy --auto` and `setup` write it; `run` reads it. Like other
// project files it is searched for upward from the working directory.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Filename is the manifest file name looked up in the project tree.
const Filename = "miniploy.yaml"

// ErrNotFound is returned when no manifest exists in the directory tree.
var ErrNotFound = errors.New("no miniploy.yaml found")

// Manifest is the on-disk project configuration.
type Manifest struct {
	Platform    string `yaml:"platform,omitempty"`
	ProjectID   string `yaml:"project_id,omitempty"`
	ProjectName string `yaml:"project_name,omitempty"`

	Framework      string `yaml:"framework,omitempty"`
	Runtime        string `yaml:"runtime,omitempty"`
	BuildCommand   string `yaml:"build_command,omitempty"`
	StartCommand   string `yaml:"start_command,omitempty"`
	InstallCommand string `yaml:"install_command,omitempty"`
	OutputDir      string `yaml:"output_directory,omitempty"`
	Dockerfile     string `yaml:"dockerfile,omitempty"`

	ProjectPath string `yaml:"project_path,omitempty"`
	RepoURL     string `yaml:"repo_url,omitempty"`
	Branch      string `yaml:"branch,omitempty"`

	EnvVars map[string]string `yaml:"env_vars,omitempty"`
}

// Load reads a manifest file. A missing file yields an empty manifest, so
// callers can treat the manifest as always present.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Find walks from dir upward to the filesystem root looking for a manifest
// file and returns its path, or ErrNotFound.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Configured reports whether the manifest points at an existing platform
// project that `run` can redeploy.
func (m *Manifest) Configured() bool {
	return m.Platform != "" && m.ProjectID != ""
}
