package provider

import (
	"context"
	"log/slog"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// RailwayProvider implements Provider for Railway.
//
// Railway's control plane is GraphQL. Account tokens answer the me query;
// workspace tokens cannot, so identity discovery falls back to reading the
// team off the projects listing. The deploy unit is a project create
// mutation scoped to the resolved team.
type RailwayProvider struct {
	platform platform.Platform
	client   *transport.GraphQLClient
	logger   *slog.Logger
}

// NewRailwayProvider creates a new Railway adapter.
func NewRailwayProvider(p platform.Platform, cfg transport.Config, logger *slog.Logger) *RailwayProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	return &RailwayProvider{
		platform: p,
		client:   transport.NewGraphQLClient(cfg, logger),
		logger:   logger.With("provider", p.ID),
	}
}

const railwayMeQuery = `
query {
  me {
    id
    email
    teams {
      edges {
        node {
          id
          name
        }
      }
    }
  }
}`

const railwayProjectsQuery = `
query {
  projects {
    edges {
      node {
        id
        name
        createdAt
        team {
          id
          name
        }
        services {
          edges {
            node {
              id
            }
          }
        }
      }
    }
  }
}`

const railwayProjectCreateMutation = `
mutation ProjectCreate($input: ProjectCreateInput!) {
  projectCreate(input: $input) {
    id
    name
  }
}`

const railwayProjectQuery = `
query Project($id: String!) {
  project(id: $id) {
    id
    name
  }
}`

const railwayDeploymentTriggerMutation = `
mutation DeploymentTrigger($projectId: String!) {
  deploymentTrigger(input: {projectId: $projectId}) {
    id
  }
}`

type railwayTeamEdges struct {
	Edges []struct {
		Node struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"node"`
	} `json:"edges"`
}

type railwayProjectNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Team      *struct {
		ID string `json:"id"`
	} `json:"team"`
	Services struct {
		Edges []struct {
			Node struct {
				ID string `json:"id"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"services"`
}

type railwayProjectsResult struct {
	Projects *struct {
		Edges []struct {
			Node railwayProjectNode `json:"node"`
		} `json:"edges"`
	} `json:"projects"`
}

// Platform returns the Railway descriptor.
func (p *RailwayProvider) Platform() platform.Platform {
	return p.platform
}

// VerifyToken checks that the token answers either discovery query.
func (p *RailwayProvider) VerifyToken(ctx context.Context, cred domain.Credential) error {
	_, err := p.discoverTeam(ctx, cred)
	return err
}

// ResolveIdentity discovers the team id the token belongs to.
func (p *RailwayProvider) ResolveIdentity(ctx context.Context, cred domain.Credential) (string, error) {
	teamID, err := p.discoverTeam(ctx, cred)
	if err != nil {
		return "", classifyIdentity(err)
	}
	if teamID == "" {
		return "", domain.NewPlatformError(p.platform.ID, "resolve identity", domain.ErrIdentity, 0, "no team or workspace visible to this token")
	}

	p.logger.Debug("team resolved", "team_id", teamID)
	return teamID, nil
}

func (p *RailwayProvider) discoverTeam(ctx context.Context, cred domain.Credential) (string, error) {
	var me struct {
		Me *struct {
			Teams railwayTeamEdges `json:"teams"`
		} `json:"me"`
	}
	err := p.client.Execute(ctx, cred.Token, railwayMeQuery, nil, &me)
	if err == nil && me.Me != nil {
		if len(me.Me.Teams.Edges) > 0 {
			return me.Me.Teams.Edges[0].Node.ID, nil
		}
		return "", nil
	}

	// Workspace tokens cannot answer me; the team is read off the first
	// visible project instead.
	var projects railwayProjectsResult
	if ferr := p.client.Execute(ctx, cred.Token, railwayProjectsQuery, nil, &projects); ferr != nil {
		return "", classifyGraphQL(p.platform.ID, "resolve identity", err)
	}
	if projects.Projects != nil && len(projects.Projects.Edges) > 0 {
		if team := projects.Projects.Edges[0].Node.Team; team != nil {
			return team.ID, nil
		}
	}
	return "", nil
}

// CreateDeployment creates a project in the resolved team.
func (p *RailwayProvider) CreateDeployment(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error) {
	if req.Identity == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create project", domain.ErrIdentity, 0, "team id required; resolve identity first")
	}

	variables := map[string]any{
		"input": map[string]any{
			"name":   req.ProjectName,
			"teamId": req.Identity,
		},
	}

	var result struct {
		ProjectCreate *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"projectCreate"`
	}
	if err := p.client.Execute(ctx, cred.Token, railwayProjectCreateMutation, variables, &result); err != nil {
		return nil, classifyGraphQL(p.platform.ID, "create project", err)
	}
	if result.ProjectCreate == nil || result.ProjectCreate.ID == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create project", domain.ErrValidation, 0, "response missing projectCreate data")
	}

	projectID := result.ProjectCreate.ID
	p.logger.Info("project created", "project_id", projectID)

	return &DeployResult{
		DeploymentID: projectID,
		ProjectID:    projectID,
		URL:          railwayProjectURL(projectID),
	}, nil
}

// PollStatus checks that the project exists. Railway does not expose a
// build pipeline for an empty project, so a readable project reports live.
func (p *RailwayProvider) PollStatus(ctx context.Context, cred domain.Credential, deploymentID string) (*Status, error) {
	variables := map[string]any{"id": deploymentID}

	var result struct {
		Project *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"project"`
	}
	if err := p.client.Execute(ctx, cred.Token, railwayProjectQuery, variables, &result); err != nil {
		return nil, classifyGraphQL(p.platform.ID, "poll status", err)
	}

	if result.Project == nil {
		return &Status{Phase: PhaseInProgress, RawState: "UNKNOWN"}, nil
	}
	return &Status{
		Phase:    PhaseLive,
		RawState: "ACTIVE",
		URL:      railwayProjectURL(deploymentID),
	}, nil
}

// TriggerDeploy asks Railway to redeploy the project.
func (p *RailwayProvider) TriggerDeploy(ctx context.Context, cred domain.Credential, projectID string) (string, error) {
	variables := map[string]any{"projectId": projectID}

	var result struct {
		DeploymentTrigger *struct {
			ID string `json:"id"`
		} `json:"deploymentTrigger"`
	}
	if err := p.client.Execute(ctx, cred.Token, railwayDeploymentTriggerMutation, variables, &result); err != nil {
		return "", classifyGraphQL(p.platform.ID, "trigger deploy", err)
	}

	if result.DeploymentTrigger != nil {
		p.logger.Debug("deployment triggered", "trigger_id", result.DeploymentTrigger.ID)
	}
	return projectID, nil
}

// SetEnvVars is not supported: Railway scopes variables to a service and
// environment, neither of which exists on a bare project.
func (p *RailwayProvider) SetEnvVars(ctx context.Context, cred domain.Credential, projectID string, vars map[string]string) error {
	if len(vars) == 0 {
		return nil
	}
	p.logger.Warn("railway variables need a service context; skipped", "project_id", projectID, "count", len(vars))
	return nil
}

// ListDeployments returns the token's projects.
func (p *RailwayProvider) ListDeployments(ctx context.Context, cred domain.Credential, limit int) ([]DeploymentInfo, error) {
	var projects railwayProjectsResult
	if err := p.client.Execute(ctx, cred.Token, railwayProjectsQuery, nil, &projects); err != nil {
		return nil, classifyGraphQL(p.platform.ID, "list deployments", err)
	}
	if projects.Projects == nil {
		return nil, nil
	}

	infos := make([]DeploymentInfo, 0, len(projects.Projects.Edges))
	for _, edge := range projects.Projects.Edges {
		if len(infos) >= limit {
			break
		}
		node := edge.Node
		state := "inactive"
		if len(node.Services.Edges) > 0 {
			state = "active"
		}
		infos = append(infos, DeploymentInfo{
			Name:      node.Name,
			URL:       railwayProjectURL(node.ID),
			State:     state,
			CreatedAt: node.CreatedAt,
		})
	}
	return infos, nil
}

func railwayProjectURL(projectID string) string {
	return "https://railway.app/project/" + projectID
}
