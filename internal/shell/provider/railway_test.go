package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

type graphqlCall struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func decodeGraphQL(t *testing.T, r *http.Request) graphqlCall {
	t.Helper()
	var call graphqlCall
	require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
	return call
}

func newRailwayTestProvider(t *testing.T, serverURL string) *RailwayProvider {
	t.Helper()
	return NewRailwayProvider(testPlatform(t, platform.Railway), transport.Config{BaseURL: serverURL}, nil)
}

func TestRailwayProvider_ResolveIdentity_AccountToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeGraphQL(t, r)
		require.Contains(t, call.Query, "me")

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"me":{"teams":{"edges":[{"node":{"id":"team-1","name":"My Team"}}]}}}}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	id, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "rw-tok"})
	require.NoError(t, err)
	assert.Equal(t, "team-1", id)
}

func TestRailwayProvider_ResolveIdentity_WorkspaceTokenFallback(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		call := decodeGraphQL(t, r)

		w.WriteHeader(http.StatusOK)
		if strings.Contains(call.Query, "me") {
			w.Write([]byte(`{"errors":[{"message":"Not Authorized","extensions":{"code":"UNAUTHORIZED"}}]}`))
			return
		}
		require.Contains(t, call.Query, "projects")
		w.Write([]byte(`{"data":{"projects":{"edges":[{"node":{"id":"proj-1","team":{"id":"team-9"}}}]}}}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	id, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "ws-tok"})
	require.NoError(t, err)
	assert.Equal(t, "team-9", id)
	assert.Equal(t, 2, calls)
}

func TestRailwayProvider_ResolveIdentity_BothQueriesRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"errors":[{"message":"Not Authorized","extensions":{"code":"UNAUTHORIZED"}}]}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	_, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "bad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentity)
	assert.Contains(t, err.Error(), "identity")
}

func TestRailwayProvider_ResolveIdentity_NoTeams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"me":{"teams":{"edges":[]}}}}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	_, err := p.ResolveIdentity(context.Background(), domain.Credential{Token: "tok"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentity)
}

func TestRailwayProvider_CreateDeployment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeGraphQL(t, r)
		require.Contains(t, call.Query, "projectCreate")

		input, ok := call.Variables["input"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "my-project", input["name"])
		assert.Equal(t, "team-1", input["teamId"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"projectCreate":{"id":"proj-42","name":"my-project"}}}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	result, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{
		ProjectName: "my-project",
		Identity:    "team-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "proj-42", result.ProjectID)
	assert.Equal(t, "https://railway.app/project/proj-42", result.URL)
}

func TestRailwayProvider_CreateDeployment_ErrorsArrayIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":null,"errors":[{"message":"Project limit reached"}]}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	_, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{
		ProjectName: "my-project",
		Identity:    "team-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "Project limit reached")
}

func TestRailwayProvider_CreateDeployment_RequiresIdentity(t *testing.T) {
	p := NewRailwayProvider(testPlatform(t, platform.Railway), transport.Config{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := p.CreateDeployment(context.Background(), domain.Credential{Token: "tok"}, DeployRequest{ProjectName: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentity)
}

func TestRailwayProvider_PollStatus_ProjectReadableIsLive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeGraphQL(t, r)
		assert.Equal(t, "proj-42", call.Variables["id"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"project":{"id":"proj-42","name":"my-project"}}}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	status, err := p.PollStatus(context.Background(), domain.Credential{Token: "tok"}, "proj-42")
	require.NoError(t, err)

	assert.Equal(t, PhaseLive, status.Phase)
	assert.Equal(t, "ACTIVE", status.RawState)
	assert.Equal(t, "https://railway.app/project/proj-42", status.URL)
}

func TestRailwayProvider_SetEnvVars_SkippedWithoutService(t *testing.T) {
	p := NewRailwayProvider(testPlatform(t, platform.Railway), transport.Config{BaseURL: "http://127.0.0.1:1"}, nil)

	err := p.SetEnvVars(context.Background(), domain.Credential{Token: "tok"}, "proj-42", map[string]string{"KEY": "v"})
	assert.NoError(t, err)
}

func TestRailwayProvider_ListDeployments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"projects":{"edges":[
			{"node":{"id":"p1","name":"with-service","createdAt":"2024-02-02T00:00:00Z","services":{"edges":[{"node":{"id":"s1"}}]}}},
			{"node":{"id":"p2","name":"empty","services":{"edges":[]}}}
		]}}}`))
	}))
	defer server.Close()

	p := newRailwayTestProvider(t, server.URL)

	infos, err := p.ListDeployments(context.Background(), domain.Credential{Token: "tok"}, 10)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "active", infos[0].State)
	assert.Equal(t, "https://railway.app/project/p1", infos[0].URL)
	assert.Equal(t, "inactive", infos[1].State)
}
