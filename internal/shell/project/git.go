package project

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoGitRemote is returned when the project has no usable git origin.
var ErrNoGitRemote = errors.New("no git remote found")

// GitInfo is the repository reference a repo-backed platform builds from.
type GitInfo struct {
	RemoteURL string
	Branch    string
}

// DetectGit reads the origin URL and current branch from .git/config and
// .git/HEAD. The config parsing is deliberately hand-rolled: git section
// headers quote the subsection name (`[remote "origin"]`), which generic
// INI readers mangle.
func DetectGit(dir string) (*GitInfo, error) {
	gitDir := filepath.Join(dir, ".git")

	url, err := originURL(filepath.Join(gitDir, "config"))
	if err != nil {
		return nil, err
	}

	info := &GitInfo{
		RemoteURL: normalizeRemoteURL(url),
		Branch:    currentBranch(filepath.Join(gitDir, "HEAD")),
	}
	return info, nil
}

func originURL(configPath string) (string, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return "", ErrNoGitRemote
	}
	defer f.Close()

	inOrigin := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "["):
			inOrigin = line == `[remote "origin"]`
		case inOrigin && strings.HasPrefix(line, "url"):
			if _, value, ok := strings.Cut(line, "="); ok {
				return strings.TrimSpace(value), nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoGitRemote
}

// currentBranch reads the symbolic ref from .git/HEAD. A detached HEAD or
// unreadable file falls back to "main".
func currentBranch(headPath string) string {
	data, err := os.ReadFile(headPath)
	if err != nil {
		return "main"
	}
	head := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(head, "ref: refs/heads/"); ok && ref != "" {
		return ref
	}
	return "main"
}

// normalizeRemoteURL rewrites SSH remotes to the https form platform APIs
// accept and strips a trailing .git.
func normalizeRemoteURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "git@"); ok {
		if host, path, found := strings.Cut(rest, ":"); found {
			url = "https://" + host + "/" + path
		}
	}
	return strings.TrimSuffix(url, ".git")
}
