package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// VercelProvider implements Provider for Vercel.
//
// Vercel needs no identity step; the deploy unit is a single synchronous
// create call carrying the artifact payload as an inline base64 file map.
type VercelProvider struct {
	platform platform.Platform
	client   *transport.Client
	logger   *slog.Logger
}

// NewVercelProvider creates a new Vercel adapter.
func NewVercelProvider(p platform.Platform, cfg transport.Config, logger *slog.Logger) *VercelProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	return &VercelProvider{
		platform: p,
		client:   transport.NewClient(cfg, logger),
		logger:   logger.With("provider", p.ID),
	}
}

type vercelProjectSettings struct {
	Framework *string `json:"framework"`
}

type vercelDeploymentRequest struct {
	Name            string                `json:"name"`
	Files           []domain.FileEntry    `json:"files,omitempty"`
	ProjectSettings vercelProjectSettings `json:"projectSettings"`
}

type vercelDeployment struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	ReadyState string `json:"readyState"`
	CreatedAt  int64  `json:"createdAt"`
}

// Platform returns the Vercel descriptor.
func (p *VercelProvider) Platform() platform.Platform {
	return p.platform
}

// VerifyToken checks the credential against the current-user endpoint.
func (p *VercelProvider) VerifyToken(ctx context.Context, cred domain.Credential) error {
	_, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/user",
		Token:  cred.Token,
	})
	if err != nil {
		return classifyREST(p.platform.ID, "verify token", err)
	}
	return nil
}

// ResolveIdentity returns an empty identifier; Vercel scopes every request
// to the token's account.
func (p *VercelProvider) ResolveIdentity(ctx context.Context, cred domain.Credential) (string, error) {
	return "", nil
}

// CreateDeployment uploads an artifact set as an inline file map, or
// creates a bare project when the request carries no artifacts.
func (p *VercelProvider) CreateDeployment(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error) {
	if req.Artifacts == nil || req.Artifacts.Len() == 0 {
		return p.createProject(ctx, cred, req)
	}

	payload := vercelDeploymentRequest{
		Name:  req.ProjectName,
		Files: req.Artifacts.FileMap(),
	}

	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v13/deployments",
		Token:  cred.Token,
		Body:   payload,
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "create deployment", err)
	}

	var deployment vercelDeployment
	if err := transport.DecodeJSON(resp, &deployment); err != nil {
		return nil, err
	}

	p.logger.Info("deployment created",
		"deployment_id", deployment.ID,
		"state", deployment.ReadyState,
	)

	return &DeployResult{
		DeploymentID: deployment.ID,
		ProjectID:    req.ProjectName,
		URL:          httpsURL(deployment.URL),
	}, nil
}

func (p *VercelProvider) createProject(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error) {
	framework := req.Framework
	if framework == "unknown" {
		framework = ""
	}

	payload := struct {
		Name      string `json:"name"`
		Framework string `json:"framework,omitempty"`
	}{Name: req.ProjectName, Framework: framework}

	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v9/projects",
		Token:  cred.Token,
		Body:   payload,
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "create project", err)
	}

	var project struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := transport.DecodeJSON(resp, &project); err != nil {
		return nil, err
	}

	p.logger.Info("project created", "project_id", project.ID)

	return &DeployResult{ProjectID: project.ID}, nil
}

// PollStatus reads a deployment's readyState.
func (p *VercelProvider) PollStatus(ctx context.Context, cred domain.Credential, deploymentID string) (*Status, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/v13/deployments/" + deploymentID,
		Token:  cred.Token,
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "poll status", err)
	}

	var deployment vercelDeployment
	if err := transport.DecodeJSON(resp, &deployment); err != nil {
		return nil, err
	}

	status := &Status{RawState: deployment.ReadyState, URL: httpsURL(deployment.URL)}
	switch deployment.ReadyState {
	case "READY":
		status.Phase = PhaseLive
	case "ERROR", "CANCELED":
		status.Phase = PhaseFailed
		status.Detail = fmt.Sprintf("deployment entered state %s", deployment.ReadyState)
	default:
		status.Phase = PhaseInProgress
	}
	return status, nil
}

// TriggerDeploy starts a new deployment of an existing project.
func (p *VercelProvider) TriggerDeploy(ctx context.Context, cred domain.Credential, projectID string) (string, error) {
	payload := vercelDeploymentRequest{Name: projectID}

	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v13/deployments",
		Token:  cred.Token,
		Body:   payload,
	})
	if err != nil {
		return "", classifyREST(p.platform.ID, "trigger deploy", err)
	}

	var deployment vercelDeployment
	if err := transport.DecodeJSON(resp, &deployment); err != nil {
		return "", err
	}
	return deployment.ID, nil
}

// SetEnvVars creates encrypted project environment variables targeting all
// deployment environments.
func (p *VercelProvider) SetEnvVars(ctx context.Context, cred domain.Credential, projectID string, vars map[string]string) error {
	for key, value := range vars {
		payload := struct {
			Key    string   `json:"key"`
			Value  string   `json:"value"`
			Type   string   `json:"type"`
			Target []string `json:"target"`
		}{
			Key:    key,
			Value:  value,
			Type:   "encrypted",
			Target: []string{"production", "preview", "development"},
		}

		_, err := p.client.Do(ctx, transport.Request{
			Method: http.MethodPost,
			Path:   "/v9/projects/" + projectID + "/env",
			Token:  cred.Token,
			Body:   payload,
		})
		if err != nil {
			return classifyREST(p.platform.ID, "set env vars", err)
		}
	}
	return nil
}

// ListDeployments returns the token's most recent deployments.
func (p *VercelProvider) ListDeployments(ctx context.Context, cred domain.Credential, limit int) ([]DeploymentInfo, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/v6/deployments",
		Token:  cred.Token,
		Query:  url.Values{"limit": []string{strconv.Itoa(limit)}},
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "list deployments", err)
	}

	var result struct {
		Deployments []vercelDeployment `json:"deployments"`
	}
	if err := transport.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	infos := make([]DeploymentInfo, 0, len(result.Deployments))
	for _, d := range result.Deployments {
		info := DeploymentInfo{
			Name:  d.Name,
			URL:   httpsURL(d.URL),
			State: d.ReadyState,
		}
		if d.CreatedAt > 0 {
			info.CreatedAt = time.UnixMilli(d.CreatedAt).UTC().Format(time.RFC3339)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
