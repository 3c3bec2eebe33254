package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// RenderProvider implements Provider for Render.
//
// Render requires an owner id before anything can be created. The deploy
// unit is a service (static site or web service) built server-side from a
// git repository; creating the service starts its first deploy.
type RenderProvider struct {
	platform platform.Platform
	client   *transport.Client
	logger   *slog.Logger
}

// NewRenderProvider creates a new Render adapter.
func NewRenderProvider(p platform.Platform, cfg transport.Config, logger *slog.Logger) *RenderProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	return &RenderProvider{
		platform: p,
		client:   transport.NewClient(cfg, logger),
		logger:   logger.With("provider", p.ID),
	}
}

var renderRuntimes = map[string]string{
	"node":   "node",
	"python": "python",
	"go":     "go",
	"ruby":   "ruby",
	"docker": "docker",
}

type renderStaticSiteRequest struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	OwnerID         string `json:"ownerId"`
	Repo            string `json:"repo"`
	Branch          string `json:"branch"`
	AutoDeploy      string `json:"autoDeploy"`
	BuildCommand    string `json:"buildCommand,omitempty"`
	PublicDirectory string `json:"publicDirectory,omitempty"`
}

type renderWebServiceRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	OwnerID      string `json:"ownerId"`
	Repo         string `json:"repo"`
	Branch       string `json:"branch"`
	Env          string `json:"env"`
	Region       string `json:"region"`
	Plan         string `json:"plan"`
	AutoDeploy   string `json:"autoDeploy"`
	BuildCommand string `json:"buildCommand,omitempty"`
	StartCommand string `json:"startCommand,omitempty"`
	RootDir      string `json:"rootDir,omitempty"`
}

type renderService struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Suspended      string `json:"suspended"`
	CreatedAt      string `json:"createdAt"`
	ServiceDetails struct {
		URL string `json:"url"`
	} `json:"serviceDetails"`
}

type renderDeploy struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Platform returns the Render descriptor.
func (p *RenderProvider) Platform() platform.Platform {
	return p.platform
}

// VerifyToken checks the credential against the owners endpoint.
func (p *RenderProvider) VerifyToken(ctx context.Context, cred domain.Credential) error {
	_, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/owners",
		Token:  cred.Token,
	})
	if err != nil {
		return classifyREST(p.platform.ID, "verify token", err)
	}
	return nil
}

// ResolveIdentity fetches the first owner visible to the token.
func (p *RenderProvider) ResolveIdentity(ctx context.Context, cred domain.Credential) (string, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/owners",
		Token:  cred.Token,
	})
	if err != nil {
		return "", classifyIdentity(classifyREST(p.platform.ID, "resolve identity", err))
	}

	var owners []struct {
		Owner struct {
			ID string `json:"id"`
		} `json:"owner"`
	}
	if err := transport.DecodeJSON(resp, &owners); err != nil {
		return "", err
	}
	if len(owners) == 0 || owners[0].Owner.ID == "" {
		return "", domain.NewPlatformError(p.platform.ID, "resolve identity", domain.ErrIdentity, resp.StatusCode, "no owners visible to this token")
	}

	ownerID := owners[0].Owner.ID
	p.logger.Debug("owner resolved", "owner_id", ownerID)
	return ownerID, nil
}

// CreateDeployment creates a service; Render starts the first deploy as
// part of creation. The service id doubles as the poll identifier since
// status reads walk the service's deploy list.
func (p *RenderProvider) CreateDeployment(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error) {
	if req.Identity == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create service", domain.ErrIdentity, 0, "owner id required; resolve identity first")
	}
	if req.RepoURL == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create service", domain.ErrValidation, 0, "a git repository url is required")
	}

	branch := req.Branch
	if branch == "" {
		branch = "main"
	}

	var payload any
	if req.Runtime == "" || req.Runtime == "static" {
		payload = renderStaticSiteRequest{
			Type:            "static_site",
			Name:            req.ProjectName,
			OwnerID:         req.Identity,
			Repo:            req.RepoURL,
			Branch:          branch,
			AutoDeploy:      "no",
			BuildCommand:    req.BuildCommand,
			PublicDirectory: normalizeDir(req.PublishDir),
		}
	} else {
		env, ok := renderRuntimes[req.Runtime]
		if !ok {
			env = "docker"
		}
		plan := req.Plan
		if plan == "" {
			plan = "free"
		}
		payload = renderWebServiceRequest{
			Type:         "web_service",
			Name:         req.ProjectName,
			OwnerID:      req.Identity,
			Repo:         req.RepoURL,
			Branch:       branch,
			Env:          env,
			Region:       "oregon",
			Plan:         plan,
			AutoDeploy:   "no",
			BuildCommand: req.BuildCommand,
			StartCommand: req.StartCommand,
			RootDir:      normalizeDir(req.PublishDir),
		}
	}

	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/services",
		Token:  cred.Token,
		Body:   payload,
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "create service", err)
	}

	var result struct {
		ID      string        `json:"id"`
		Service renderService `json:"service"`
	}
	if err := transport.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	serviceID := result.Service.ID
	if serviceID == "" {
		serviceID = result.ID
	}
	if serviceID == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create service", domain.ErrValidation, resp.StatusCode, "response missing service id")
	}

	p.logger.Info("service created", "service_id", serviceID)

	return &DeployResult{
		DeploymentID: serviceID,
		ProjectID:    serviceID,
		URL:          result.Service.ServiceDetails.URL,
	}, nil
}

// PollStatus reads the newest deploy of the service. On live the service
// is fetched for its public URL.
func (p *RenderProvider) PollStatus(ctx context.Context, cred domain.Credential, deploymentID string) (*Status, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/services/" + deploymentID + "/deploys",
		Token:  cred.Token,
		Query:  url.Values{"limit": []string{"1"}},
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "poll status", err)
	}

	var entries []struct {
		Deploy renderDeploy `json:"deploy"`
	}
	if err := transport.DecodeJSON(resp, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &Status{Phase: PhaseInProgress, RawState: "none"}, nil
	}

	state := entries[0].Deploy.Status
	status := &Status{RawState: state}
	switch state {
	case "live":
		status.Phase = PhaseLive
		status.URL = p.serviceURL(ctx, cred, deploymentID)
	case "build_failed", "update_failed", "pre_deploy_failed", "deactivated", "canceled":
		status.Phase = PhaseFailed
		status.Detail = fmt.Sprintf("deploy entered state %s", state)
	default:
		status.Phase = PhaseInProgress
	}
	return status, nil
}

func (p *RenderProvider) serviceURL(ctx context.Context, cred domain.Credential, serviceID string) string {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/services/" + serviceID,
		Token:  cred.Token,
	})
	if err != nil {
		return ""
	}

	var result struct {
		Service renderService `json:"service"`
		ServiceDetails struct {
			URL string `json:"url"`
		} `json:"serviceDetails"`
	}
	if err := transport.DecodeJSON(resp, &result); err != nil {
		return ""
	}
	if result.Service.ServiceDetails.URL != "" {
		return result.Service.ServiceDetails.URL
	}
	return result.ServiceDetails.URL
}

// TriggerDeploy starts a new deploy of an existing service without
// clearing the build cache.
func (p *RenderProvider) TriggerDeploy(ctx context.Context, cred domain.Credential, projectID string) (string, error) {
	_, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/services/" + projectID + "/deploys",
		Token:  cred.Token,
		Body: struct {
			ClearCache string `json:"clearCache"`
		}{ClearCache: "do_not_clear"},
	})
	if err != nil {
		return "", classifyREST(p.platform.ID, "trigger deploy", err)
	}
	return projectID, nil
}

// SetEnvVars replaces the service's environment variables.
func (p *RenderProvider) SetEnvVars(ctx context.Context, cred domain.Credential, projectID string, vars map[string]string) error {
	if len(vars) == 0 {
		return nil
	}

	type envVar struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	payload := make([]envVar, 0, len(vars))
	for key, value := range vars {
		payload = append(payload, envVar{Key: key, Value: value})
	}

	_, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/services/" + projectID + "/env-vars",
		Token:  cred.Token,
		Body:   payload,
	})
	if err != nil {
		return classifyREST(p.platform.ID, "set env vars", err)
	}
	return nil
}

// ListDeployments returns the token's services.
func (p *RenderProvider) ListDeployments(ctx context.Context, cred domain.Credential, limit int) ([]DeploymentInfo, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/services",
		Token:  cred.Token,
		Query:  url.Values{"limit": []string{strconv.Itoa(limit)}},
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "list deployments", err)
	}

	var entries []struct {
		Service renderService `json:"service"`
	}
	if err := transport.DecodeJSON(resp, &entries); err != nil {
		return nil, err
	}

	infos := make([]DeploymentInfo, 0, len(entries))
	for _, entry := range entries {
		state := "inactive"
		if entry.Service.Suspended == "not_suspended" {
			state = "active"
		}
		infos = append(infos, DeploymentInfo{
			Name:      entry.Service.Name,
			URL:       entry.Service.ServiceDetails.URL,
			State:     state,
			CreatedAt: entry.Service.CreatedAt,
		})
	}
	return infos, nil
}

// normalizeDir drops "." and blank directory values so the platform falls
// back to its default.
func normalizeDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	return dir
}
