package analyzer

import (
	"os"
	"path/filepath"
	"strings"
)

// targetFiles are the manifests and entrypoints worth showing the model.
var targetFiles = []string{
	"package.json",
	"requirements.txt",
	"pyproject.toml",
	"Pipfile",
	"go.mod",
	"Cargo.toml",
	"Gemfile",
	"composer.json",
	"Dockerfile",
	"docker-compose.yml",
	"next.config.js",
	"next.config.mjs",
	"nuxt.config.js",
	"vite.config.js",
	"vite.config.ts",
	"svelte.config.js",
	"astro.config.mjs",
	"angular.json",
	"index.html",
	"main.py",
	"app.py",
	"manage.py",
	"Procfile",
}

// scanSkipDirs are never descended into.
var scanSkipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"venv":         true,
	".venv":        true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"out":          true,
}

const (
	maxScanDepth   = 2
	maxFileContent = 5000
)

// Scan reads the recognizable project files under dir, at most two levels
// deep, each truncated to a model-friendly size. Keys are slash-separated
// relative paths.
func Scan(dir string) map[string]string {
	found := make(map[string]string)
	scanLevel(dir, dir, 0, found)
	return found
}

func scanLevel(root, dir string, depth int, found map[string]string) {
	if depth > maxScanDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") || scanSkipDirs[name] {
				continue
			}
			scanLevel(root, filepath.Join(dir, name), depth+1, found)
			continue
		}
		if !isTarget(name) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if len(data) > maxFileContent {
			data = data[:maxFileContent]
		}

		rel, err := filepath.Rel(root, filepath.Join(dir, name))
		if err != nil {
			continue
		}
		found[filepath.ToSlash(rel)] = string(data)
	}
}

func isTarget(name string) bool {
	for _, t := range targetFiles {
		if name == t {
			return true
		}
	}
	return false
}
