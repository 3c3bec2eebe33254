// Package project reads deployment inputs from a project directory: the
// artifact files to publish and the git remote a repo-backed platform
// builds from.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/miniploy/internal/core/domain"
)

// skippedDirs are never part of a static artifact payload.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
}

// CollectArtifacts walks dir and builds the artifact set for a static
// deploy. Dotfiles, dot-directories and dependency directories are skipped;
// paths in the set are slash-separated and relative to dir.
func CollectArtifacts(dir string) (*domain.ArtifactSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []domain.Artifact
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		files = append(files, domain.Artifact{
			Path: filepath.ToSlash(rel),
			Data: data,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return domain.NewArtifactSet(files)
}

// HasIndexHTML reports whether the directory carries an index.html at its
// root. Static platforms serve a blank page without one, so the CLI warns.
func HasIndexHTML(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil && !info.IsDir()
}

// HasDockerfile reports whether the project root carries a Dockerfile.
func HasDockerfile(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "Dockerfile"))
	return err == nil && !info.IsDir()
}
