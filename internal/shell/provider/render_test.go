package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

func newRenderTestProvider(t *testing.T, serverURL string) *RenderProvider {
	t.Helper()
	return NewRenderProvider(testPlatform(t, platform.Render), transport.Config{BaseURL: serverURL}, nil)
}

func TestRenderProvider_ResolveIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/owners", r.URL.Path)
		assert.Equal(t, "Bearer render-tok", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"owner":{"id":"own-123","name":"me"}},{"owner":{"id":"own-456"}}]`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	id, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "render-tok"})
	require.NoError(t, err)
	assert.Equal(t, "own-123", id)
}

func TestRenderProvider_ResolveIdentity_NoOwners(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	_, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "tok"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentity)
	assert.Contains(t, err.Error(), "identity")
}

func TestRenderProvider_ResolveIdentity_MissingScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"token lacks owners scope"}`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	_, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "tok"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentity)
	assert.Contains(t, err.Error(), "token lacks owners scope")
}

func TestRenderProvider_ResolveIdentity_BadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"unauthorized"}`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	_, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "bad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestRenderProvider_CreateDeployment_StaticSite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/services", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "static_site", payload["type"])
		assert.Equal(t, "own-123", payload["ownerId"])
		assert.Equal(t, "https://github.com/me/site", payload["repo"])
		assert.Equal(t, "main", payload["branch"])
		assert.Equal(t, "no", payload["autoDeploy"])
		assert.NotContains(t, payload, "publicDirectory")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"service":{"id":"srv-99","serviceDetails":{"url":"https://my-site.onrender.com"}}}`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	result, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{
		ProjectName: "my-site",
		RepoURL:     "https://github.com/me/site",
		Runtime:     "static",
		PublishDir:  ".",
		Identity:    "own-123",
	})
	require.NoError(t, err)

	assert.Equal(t, "srv-99", result.DeploymentID)
	assert.Equal(t, "srv-99", result.ProjectID)
	assert.Equal(t, "https://my-site.onrender.com", result.URL)
}

func TestRenderProvider_CreateDeployment_WebService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "web_service", payload["type"])
		assert.Equal(t, "python", payload["env"])
		assert.Equal(t, "oregon", payload["region"])
		assert.Equal(t, "free", payload["plan"])
		assert.Equal(t, "pip install -r requirements.txt", payload["buildCommand"])
		assert.Equal(t, "gunicorn app:app", payload["startCommand"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"service":{"id":"srv-7"}}`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	result, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{
		ProjectName:  "my-api",
		RepoURL:      "https://github.com/me/api",
		Branch:       "develop",
		Runtime:      "python",
		BuildCommand: "pip install -r requirements.txt",
		StartCommand: "gunicorn app:app",
		Identity:     "own-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-7", result.ProjectID)
}

func TestRenderProvider_CreateDeployment_RequiresIdentity(t *testing.T) {
	p := NewRenderProvider(testPlatform(t, platform.Render), transport.Config{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{
		ProjectName: "my-site",
		RepoURL:     "https://github.com/me/site",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentity)
}

func TestRenderProvider_CreateDeployment_RequiresRepo(t *testing.T) {
	p := NewRenderProvider(testPlatform(t, platform.Render), transport.Config{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{
		ProjectName: "my-site",
		Identity:    "own-123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRenderProvider_PollStatus(t *testing.T) {
	tests := []struct {
		state string
		phase Phase
	}{
		{"created", PhaseInProgress},
		{"build_in_progress", PhaseInProgress},
		{"live", PhaseLive},
		{"build_failed", PhaseFailed},
		{"update_failed", PhaseFailed},
		{"canceled", PhaseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/services/srv-99/deploys":
					assert.Equal(t, "1", r.URL.Query().Get("limit"))
					w.WriteHeader(http.StatusOK)
					resp, _ := json.Marshal([]map[string]any{
						{"deploy": map[string]string{"id": "dep-1", "status": tt.state}},
					})
					w.Write(resp)
				case "/services/srv-99":
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(`{"service":{"id":"srv-99","serviceDetails":{"url":"https://my-site.onrender.com"}}}`))
				default:
					t.Fatalf("unexpected request: %s", r.URL.Path)
				}
			}))
			defer server.Close()

			p := newRenderTestProvider(t, server.URL)

			status, err := p.PollStatus(context.Background(), domain.Credential{Token: "tok"}, "srv-99")
			require.NoError(t, err)

			assert.Equal(t, tt.phase, status.Phase)
			if tt.phase == PhaseLive {
				assert.Equal(t, "https://my-site.onrender.com", status.URL)
			}
		})
	}
}

func TestRenderProvider_PollStatus_NoDeploysYet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	status, err := p.PollStatus(context.Background(), domain.Credential{Token: "tok"}, "srv-99")
	require.NoError(t, err)
	assert.Equal(t, PhaseInProgress, status.Phase)
}

func TestRenderProvider_SetEnvVars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/services/srv-99/env-vars", r.URL.Path)

		var payload []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload, 2)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	err := p.SetEnvVars(context.Background(), domain.Credential{Token: "tok"}, "srv-99", map[string]string{
		"DATABASE_URL": "postgres://...",
		"SECRET":       "shh",
	})
	require.NoError(t, err)
}

func TestRenderProvider_TriggerDeploy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/services/srv-99/deploys", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "do_not_clear", payload["clearCache"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"dep-2","status":"created"}`))
	}))
	defer server.Close()

	p := newRenderTestProvider(t, server.URL)

	id, err := p.TriggerDeploy(context.Background(), domain.Credential{Token: "tok"}, "srv-99")
	require.NoError(t, err)
	assert.Equal(t, "srv-99", id)
}
