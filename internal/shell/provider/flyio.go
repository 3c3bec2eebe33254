package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// FlyProvider implements Provider for Fly.io.
//
// Fly's control plane is GraphQL and apps are keyed by name, so the app
// name doubles as both project and deployment identifier. Image pushes
// happen through flyctl; the API only creates apps and manages secrets.
type FlyProvider struct {
	platform platform.Platform
	client   *transport.GraphQLClient
	logger   *slog.Logger
}

// NewFlyProvider creates a new Fly.io adapter.
func NewFlyProvider(p platform.Platform, cfg transport.Config, logger *slog.Logger) *FlyProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	return &FlyProvider{
		platform: p,
		client:   transport.NewGraphQLClient(cfg, logger),
		logger:   logger.With("provider", p.ID),
	}
}

const flyViewerQuery = `
query {
  viewer {
    id
    email
    organizations {
      nodes {
        id
        slug
        name
      }
    }
  }
}`

const flyCreateAppMutation = `
mutation CreateApp($input: CreateAppInput!) {
  createApp(input: $input) {
    app {
      id
      name
    }
  }
}`

const flyGetAppQuery = `
query GetApp($name: String!) {
  app(name: $name) {
    id
    name
    status
    hostname
  }
}`

const flySetSecretsMutation = `
mutation SetSecrets($input: SetSecretsInput!) {
  setSecrets(input: $input) {
    release {
      id
      version
    }
  }
}`

const flyAppsQuery = `
query Apps {
  apps {
    nodes {
      id
      name
      status
      hostname
      createdAt
    }
  }
}`

type flyApp struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Hostname  string `json:"hostname"`
	CreatedAt string `json:"createdAt"`
}

// Platform returns the Fly.io descriptor.
func (p *FlyProvider) Platform() platform.Platform {
	return p.platform
}

// VerifyToken checks the credential against the viewer query.
func (p *FlyProvider) VerifyToken(ctx context.Context, cred domain.Credential) error {
	_, err := p.viewerOrganization(ctx, cred)
	return err
}

// ResolveIdentity fetches the token's first organization id.
func (p *FlyProvider) ResolveIdentity(ctx context.Context, cred domain.Credential) (string, error) {
	orgID, err := p.viewerOrganization(ctx, cred)
	if err != nil {
		return "", classifyIdentity(err)
	}
	if orgID == "" {
		return "", domain.NewPlatformError(p.platform.ID, "resolve identity", domain.ErrIdentity, 0, "no organization visible to this token")
	}

	p.logger.Debug("organization resolved", "org_id", orgID)
	return orgID, nil
}

func (p *FlyProvider) viewerOrganization(ctx context.Context, cred domain.Credential) (string, error) {
	var result struct {
		Viewer *struct {
			Organizations struct {
				Nodes []struct {
					ID   string `json:"id"`
					Slug string `json:"slug"`
				} `json:"nodes"`
			} `json:"organizations"`
		} `json:"viewer"`
	}
	if err := p.client.Execute(ctx, cred.Token, flyViewerQuery, nil, &result); err != nil {
		return "", classifyGraphQL(p.platform.ID, "resolve identity", err)
	}
	if result.Viewer == nil || len(result.Viewer.Organizations.Nodes) == 0 {
		return "", nil
	}
	return result.Viewer.Organizations.Nodes[0].ID, nil
}

// CreateDeployment creates an app in the resolved organization.
func (p *FlyProvider) CreateDeployment(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error) {
	if req.Identity == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create app", domain.ErrIdentity, 0, "organization id required; resolve identity first")
	}

	variables := map[string]any{
		"input": map[string]any{
			"name":           req.ProjectName,
			"organizationId": req.Identity,
		},
	}

	var result struct {
		CreateApp *struct {
			App *flyApp `json:"app"`
		} `json:"createApp"`
	}
	if err := p.client.Execute(ctx, cred.Token, flyCreateAppMutation, variables, &result); err != nil {
		return nil, classifyGraphQL(p.platform.ID, "create app", err)
	}
	if result.CreateApp == nil || result.CreateApp.App == nil {
		return nil, domain.NewPlatformError(p.platform.ID, "create app", domain.ErrValidation, 0, "response missing createApp data")
	}

	appName := result.CreateApp.App.Name
	if appName == "" {
		appName = result.CreateApp.App.ID
	}

	p.logger.Info("app created", "app", appName)

	return &DeployResult{
		DeploymentID: appName,
		ProjectID:    appName,
	}, nil
}

// PollStatus reads the app's status and hostname.
func (p *FlyProvider) PollStatus(ctx context.Context, cred domain.Credential, deploymentID string) (*Status, error) {
	variables := map[string]any{"name": deploymentID}

	var result struct {
		App *flyApp `json:"app"`
	}
	if err := p.client.Execute(ctx, cred.Token, flyGetAppQuery, variables, &result); err != nil {
		return nil, classifyGraphQL(p.platform.ID, "poll status", err)
	}
	if result.App == nil {
		return &Status{Phase: PhaseInProgress, RawState: "UNKNOWN"}, nil
	}

	status := &Status{RawState: result.App.Status, URL: httpsURL(result.App.Hostname)}
	switch result.App.Status {
	case "running", "deployed":
		status.Phase = PhaseLive
	case "dead", "suspended":
		status.Phase = PhaseFailed
		status.Detail = fmt.Sprintf("app entered state %s", result.App.Status)
	default:
		status.Phase = PhaseInProgress
	}
	return status, nil
}

// TriggerDeploy is not supported: Fly deployments push an image through
// flyctl, which the API does not expose.
func (p *FlyProvider) TriggerDeploy(ctx context.Context, cred domain.Credential, projectID string) (string, error) {
	return "", domain.NewPlatformError(p.platform.ID, "trigger deploy", domain.ErrValidation, 0, "deployments are pushed with flyctl deploy")
}

// SetEnvVars stores the variables as app secrets.
func (p *FlyProvider) SetEnvVars(ctx context.Context, cred domain.Credential, projectID string, vars map[string]string) error {
	if len(vars) == 0 {
		return nil
	}

	secrets := make([]map[string]string, 0, len(vars))
	for key, value := range vars {
		secrets = append(secrets, map[string]string{"key": key, "value": value})
	}
	variables := map[string]any{
		"input": map[string]any{
			"appId":   projectID,
			"secrets": secrets,
		},
	}

	if err := p.client.Execute(ctx, cred.Token, flySetSecretsMutation, variables, nil); err != nil {
		return classifyGraphQL(p.platform.ID, "set env vars", err)
	}
	return nil
}

// ListDeployments returns the token's apps.
func (p *FlyProvider) ListDeployments(ctx context.Context, cred domain.Credential, limit int) ([]DeploymentInfo, error) {
	var result struct {
		Apps struct {
			Nodes []flyApp `json:"nodes"`
		} `json:"apps"`
	}
	if err := p.client.Execute(ctx, cred.Token, flyAppsQuery, nil, &result); err != nil {
		return nil, classifyGraphQL(p.platform.ID, "list deployments", err)
	}

	infos := make([]DeploymentInfo, 0, len(result.Apps.Nodes))
	for _, app := range result.Apps.Nodes {
		if len(infos) >= limit {
			break
		}
		infos = append(infos, DeploymentInfo{
			Name:      app.Name,
			URL:       httpsURL(app.Hostname),
			State:     app.Status,
			CreatedAt: app.CreatedAt,
		})
	}
	return infos, nil
}
