// Package provider implements hosting platform API clients.
// This is part of the Imperative Shell - handles I/O with platform APIs.
//
// Each adapter encodes one platform's idiosyncrasies behind the shared
// Provider surface: how the account identity is discovered, what the deploy
// unit is (inline file map, zip upload, service/project/app create), and
// how the platform's status vocabulary maps onto live/failed.
package provider

import (
	"context"
	"strings"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
)

// DeployRequest contains parameters for creating a deployment.
//
// Static platforms consume Artifacts; repo-backed platforms consume the
// repository fields and create a service/project that builds server-side.
type DeployRequest struct {
	ProjectName string
	Artifacts   *domain.ArtifactSet // nil for repo-backed deployments

	RepoURL      string
	Branch       string
	Runtime      string // static, node, python, go, ruby, docker
	Framework    string
	BuildCommand string
	StartCommand string
	PublishDir   string
	Plan         string

	// Identity is the resolved owner/team/organization id. Empty for
	// platforms that scope requests to the token's account.
	Identity string
}

// DeployResult contains the identifiers returned by deployment creation.
type DeployResult struct {
	// DeploymentID is the identifier subsequent PollStatus calls accept.
	// Empty when the create produced no pollable deployment (bare project
	// creation during setup).
	DeploymentID string
	ProjectID    string
	URL          string // may be empty until the deployment is live
}

// Phase is the coarse deployment phase shared across platforms.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseLive       Phase = "live"
	PhaseFailed     Phase = "failed"
)

// Status is one poll observation of a deployment.
type Status struct {
	Phase    Phase
	RawState string // the platform's own state word, for display
	URL      string
	Detail   string // failure detail when PhaseFailed
}

// DeploymentInfo is one entry of a deployment listing.
type DeploymentInfo struct {
	Name      string
	URL       string
	State     string
	CreatedAt string
}

// Provider defines the uniform capability set every platform adapter
// implements. Credentials are passed per call and never retained.
type Provider interface {
	// Platform returns the descriptor of the platform this adapter serves.
	Platform() platform.Platform

	// VerifyToken checks that the credential is accepted by the platform.
	VerifyToken(ctx context.Context, cred domain.Credential) error

	// ResolveIdentity discovers the account identifier required before
	// deployment creation (Render: owner id; Railway: team id; Fly.io:
	// organization id). Platforms that auto-scope requests to the token's
	// account return an empty identifier without a network call.
	ResolveIdentity(ctx context.Context, cred domain.Credential) (string, error)

	// CreateDeployment issues the platform's create/upload call and
	// returns the identifiers needed to track it.
	CreateDeployment(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error)

	// PollStatus reports the current state of a deployment previously
	// returned by CreateDeployment or TriggerDeploy.
	PollStatus(ctx context.Context, cred domain.Credential, deploymentID string) (*Status, error)

	// TriggerDeploy starts a new deployment of an existing project and
	// returns its deployment identifier.
	TriggerDeploy(ctx context.Context, cred domain.Credential, projectID string) (string, error)

	// SetEnvVars sets environment variables on an existing project.
	SetEnvVars(ctx context.Context, cred domain.Credential, projectID string, vars map[string]string) error

	// ListDeployments returns recent deployments visible to the token.
	ListDeployments(ctx context.Context, cred domain.Credential, limit int) ([]DeploymentInfo, error)
}

// httpsURL normalizes a platform-reported host or URL to an https URL.
// Vercel and Fly.io report bare hostnames; Netlify reports full URLs.
func httpsURL(host string) string {
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}
