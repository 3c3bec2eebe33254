package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)

	original := &Manifest{
		Platform:     "render",
		ProjectID:    "srv-123",
		ProjectName:  "my-api",
		Framework:    "fastapi",
		Runtime:      "python",
		BuildCommand: "pip install -r requirements.txt",
		StartCommand: "uvicorn main:app",
		OutputDir:    "dist",
		RepoURL:      "https://github.com/me/my-api",
		Branch:       "main",
		EnvVars: map[string]string{
			"DATABASE_URL": "postgres://localhost/db",
		},
	}

	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestManifest_LoadMissingIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), Filename))
	require.NoError(t, err)
	assert.Equal(t, &Manifest{}, m)
	assert.False(t, m.Configured())
}

func TestManifest_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	require.NoError(t, os.WriteFile(path, []byte("platform: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), Filename)
}

func TestManifest_OmitsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	require.NoError(t, (&Manifest{Platform: "vercel"}).Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "platform: vercel\n", string(data))
}

func TestFind_WalksParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	manifestPath := filepath.Join(root, Filename)
	require.NoError(t, (&Manifest{Platform: "netlify"}).Save(manifestPath))

	found, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, manifestPath, found)
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManifest_Configured(t *testing.T) {
	assert.False(t, (&Manifest{Platform: "vercel"}).Configured())
	assert.False(t, (&Manifest{ProjectID: "id"}).Configured())
	assert.True(t, (&Manifest{Platform: "vercel", ProjectID: "id"}).Configured())
}
