package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name":"app"}`)
	writeFile(t, dir, "src/index.html", "<html></html>")
	writeFile(t, dir, "node_modules/pkg/package.json", "skipped")
	writeFile(t, dir, "a/b/c/package.json", "too deep")
	writeFile(t, dir, "README.md", "not a target")

	files := Scan(dir)

	assert.Contains(t, files, "package.json")
	assert.Contains(t, files, "src/index.html")
	assert.NotContains(t, files, "node_modules/pkg/package.json")
	assert.NotContains(t, files, "a/b/c/package.json")
	assert.NotContains(t, files, "README.md")
}

func TestScan_TruncatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, maxFileContent*2)
	for i := range big {
		big[i] = 'x'
	}
	writeFile(t, dir, "main.py", string(big))

	files := Scan(dir)
	assert.Len(t, files["main.py"], maxFileContent)
}

func TestAnalyze_EmptyProject(t *testing.T) {
	a := New(Config{APIKey: "unused"}, nil)

	analysis := a.Analyze(context.Background(), t.TempDir())

	assert.Equal(t, "static", analysis.Runtime)
	assert.InDelta(t, 0.3, analysis.Confidence, 0.001)
}

func TestAnalyze_MissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")

	analysis := New(Config{}, nil).Analyze(context.Background(), dir)

	assert.Zero(t, analysis.Confidence)
	assert.Contains(t, analysis.Summary, "GROQ_API_KEY")
}

func TestAnalyze_ParsesModelReply(t *testing.T) {
	reply := `{"framework":"nextjs","runtime":"node","build_command":"npm run build","publish_dir":".next","summary":"A Next.js app.","confidence":0.9,"platform_recommendations":{"vercel":{"score":0.95,"reason":"first-class Next.js support"}}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer groq-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 0.001)

		// Fenced reply, as models produce despite instructions.
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "```json\n" + reply + "\n```"}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"next":"14.0.0"}}`)

	a := New(Config{BaseURL: server.URL, APIKey: "groq-key", Model: "test-model"}, nil)
	analysis := a.Analyze(context.Background(), dir)

	assert.Equal(t, "nextjs", analysis.Framework)
	assert.Equal(t, "node", analysis.Runtime)
	assert.InDelta(t, 0.9, analysis.Confidence, 0.001)
	assert.InDelta(t, 0.95, analysis.PlatformRecommendations["vercel"].Score, 0.001)
}

func TestAnalyze_UnparsableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Sure! Here is my analysis:"}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{}`)

	analysis := New(Config{BaseURL: server.URL, APIKey: "k"}, nil).Analyze(context.Background(), dir)

	assert.Zero(t, analysis.Confidence)
	assert.Contains(t, analysis.Summary, "manually")
}

func TestAnalyze_ServerFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/app")

	analysis := New(Config{BaseURL: server.URL, APIKey: "k"}, nil).Analyze(context.Background(), dir)

	assert.Zero(t, analysis.Confidence)
	assert.NotEmpty(t, analysis.Summary)
}

func TestAnalyze_DockerfileForcesDockerRuntime(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM alpine")
	writeFile(t, dir, "package.json", `{}`)

	analysis := New(Config{}, nil).Analyze(context.Background(), dir)

	assert.Equal(t, "docker", analysis.Runtime)
	assert.Equal(t, "FROM alpine", analysis.Dockerfile)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
