package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<h1>hi</h1>")
	writeFile(t, dir, "css/style.css", "body {}")
	writeFile(t, dir, ".env", "SECRET=1")
	writeFile(t, dir, ".git/config", "[core]")
	writeFile(t, dir, "node_modules/pkg/index.js", "x")

	set, err := CollectArtifacts(dir)
	require.NoError(t, err)

	paths := make([]string, 0, set.Len())
	for _, f := range set.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"css/style.css", "index.html"}, paths)
}

func TestCollectArtifacts_EmptyDir(t *testing.T) {
	_, err := CollectArtifacts(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files")
}

func TestCollectArtifacts_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.txt", "x")

	_, err := CollectArtifacts(filepath.Join(dir, "file.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestHasIndexHTML(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasIndexHTML(dir))

	writeFile(t, dir, "index.html", "<html></html>")
	assert.True(t, HasIndexHTML(dir))
}

func TestDetectGit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config", `[core]
	repositoryformatversion = 0
[remote "origin"]
	url = git@github.com:me/my-site.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[branch "main"]
	remote = origin
`)
	writeFile(t, dir, ".git/HEAD", "ref: refs/heads/feature/deploy\n")

	info, err := DetectGit(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/me/my-site", info.RemoteURL)
	assert.Equal(t, "feature/deploy", info.Branch)
}

func TestDetectGit_HTTPSRemote(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config", `[remote "origin"]
	url = https://github.com/me/site.git
`)

	info, err := DetectGit(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/me/site", info.RemoteURL)
	assert.Equal(t, "main", info.Branch, "missing HEAD falls back to main")
}

func TestDetectGit_NoRepo(t *testing.T) {
	_, err := DetectGit(t.TempDir())
	assert.ErrorIs(t, err, ErrNoGitRemote)
}

func TestDetectGit_OtherRemoteIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config", `[remote "upstream"]
	url = https://github.com/other/site.git
`)

	_, err := DetectGit(dir)
	assert.ErrorIs(t, err, ErrNoGitRemote)
}
