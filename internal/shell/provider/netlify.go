package provider

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// NetlifyProvider implements Provider for Netlify.
//
// The deploy unit is a zip upload against a site. Site names are global on
// Netlify, so creation appends a random suffix to the requested name. A
// deployment is tracked as "siteID/deployID" since polling needs both.
type NetlifyProvider struct {
	platform platform.Platform
	client   *transport.Client
	logger   *slog.Logger
}

// NewNetlifyProvider creates a new Netlify adapter.
func NewNetlifyProvider(p platform.Platform, cfg transport.Config, logger *slog.Logger) *NetlifyProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	return &NetlifyProvider{
		platform: p,
		client:   transport.NewClient(cfg, logger),
		logger:   logger.With("provider", p.ID),
	}
}

type netlifySite struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	SSLURL string `json:"ssl_url"`
	PublishedDeploy *struct {
		State string `json:"state"`
	} `json:"published_deploy"`
	CreatedAt string `json:"created_at"`
}

type netlifyDeploy struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	URL          string `json:"url"`
	SSLURL       string `json:"ssl_url"`
	ErrorMessage string `json:"error_message"`
}

// Platform returns the Netlify descriptor.
func (p *NetlifyProvider) Platform() platform.Platform {
	return p.platform
}

// VerifyToken checks the credential against the current-user endpoint.
func (p *NetlifyProvider) VerifyToken(ctx context.Context, cred domain.Credential) error {
	_, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/user",
		Token:  cred.Token,
	})
	if err != nil {
		return classifyREST(p.platform.ID, "verify token", err)
	}
	return nil
}

// ResolveIdentity returns an empty identifier; Netlify detects the account
// from the token.
func (p *NetlifyProvider) ResolveIdentity(ctx context.Context, cred domain.Credential) (string, error) {
	return "", nil
}

// CreateDeployment creates a site and uploads the artifact set as a zip.
// Without artifacts only the site is created.
func (p *NetlifyProvider) CreateDeployment(ctx context.Context, cred domain.Credential, req DeployRequest) (*DeployResult, error) {
	site, err := p.createSite(ctx, cred, domain.GenerateUniqueName(req.ProjectName))
	if err != nil {
		return nil, err
	}

	if req.Artifacts == nil || req.Artifacts.Len() == 0 {
		return &DeployResult{
			ProjectID: site.ID,
			URL:       siteURL(site),
		}, nil
	}

	archive, err := req.Artifacts.Zip()
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(ctx, transport.Request{
		Method:      http.MethodPost,
		Path:        "/sites/" + site.ID + "/deploys",
		Token:       cred.Token,
		RawBody:     archive,
		ContentType: "application/zip",
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "upload deploy", err)
	}

	var deploy netlifyDeploy
	if err := transport.DecodeJSON(resp, &deploy); err != nil {
		return nil, err
	}

	p.logger.Info("deploy uploaded",
		"site_id", site.ID,
		"deploy_id", deploy.ID,
		"state", deploy.State,
	)

	return &DeployResult{
		DeploymentID: site.ID + "/" + deploy.ID,
		ProjectID:    site.ID,
		URL:          siteURL(site),
	}, nil
}

func (p *NetlifyProvider) createSite(ctx context.Context, cred domain.Credential, name string) (*netlifySite, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/sites",
		Token:  cred.Token,
		Body:   struct {
			Name string `json:"name"`
		}{Name: name},
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "create site", err)
	}

	var site netlifySite
	if err := transport.DecodeJSON(resp, &site); err != nil {
		return nil, err
	}
	if site.ID == "" {
		return nil, domain.NewPlatformError(p.platform.ID, "create site", domain.ErrValidation, resp.StatusCode, "response missing site id")
	}

	p.logger.Info("site created", "site_id", site.ID, "name", site.Name)
	return &site, nil
}

// PollStatus reads a deploy's state. On ready the site is fetched again so
// the reported URL is the final one.
func (p *NetlifyProvider) PollStatus(ctx context.Context, cred domain.Credential, deploymentID string) (*Status, error) {
	siteID, deployID, ok := strings.Cut(deploymentID, "/")
	if !ok {
		return nil, domain.NewPlatformError(p.platform.ID, "poll status", domain.ErrValidation, 0, "deployment id must be siteID/deployID")
	}

	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/sites/" + siteID + "/deploys/" + deployID,
		Token:  cred.Token,
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "poll status", err)
	}

	var deploy netlifyDeploy
	if err := transport.DecodeJSON(resp, &deploy); err != nil {
		return nil, err
	}

	status := &Status{RawState: deploy.State}
	switch deploy.State {
	case "ready":
		status.Phase = PhaseLive
		status.URL = p.finalSiteURL(ctx, cred, siteID, deploy)
	case "error":
		status.Phase = PhaseFailed
		status.Detail = deploy.ErrorMessage
		if status.Detail == "" {
			status.Detail = "deployment entered state error"
		}
	default:
		status.Phase = PhaseInProgress
	}
	return status, nil
}

// finalSiteURL prefers the site's ssl_url over the deploy's own URL. Falls
// back to the deploy URL if the site read fails; the deploy is live either
// way.
func (p *NetlifyProvider) finalSiteURL(ctx context.Context, cred domain.Credential, siteID string, deploy netlifyDeploy) string {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/sites/" + siteID,
		Token:  cred.Token,
	})
	if err == nil {
		var site netlifySite
		if err := transport.DecodeJSON(resp, &site); err == nil && siteURL(&site) != "" {
			return siteURL(&site)
		}
	}
	if deploy.SSLURL != "" {
		return deploy.SSLURL
	}
	return deploy.URL
}

// TriggerDeploy starts a new build of an existing site.
func (p *NetlifyProvider) TriggerDeploy(ctx context.Context, cred domain.Credential, projectID string) (string, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/sites/" + projectID + "/builds",
		Token:  cred.Token,
	})
	if err != nil {
		return "", classifyREST(p.platform.ID, "trigger deploy", err)
	}

	var build struct {
		ID string `json:"id"`
	}
	if err := transport.DecodeJSON(resp, &build); err != nil {
		return "", err
	}
	return projectID + "/" + build.ID, nil
}

// SetEnvVars sets account-level environment variables for all contexts.
func (p *NetlifyProvider) SetEnvVars(ctx context.Context, cred domain.Credential, projectID string, vars map[string]string) error {
	type envValue struct {
		Value   string `json:"value"`
		Context string `json:"context"`
	}

	for key, value := range vars {
		payload := struct {
			Key    string     `json:"key"`
			Values []envValue `json:"values"`
		}{
			Key:    key,
			Values: []envValue{{Value: value, Context: "all"}},
		}

		_, err := p.client.Do(ctx, transport.Request{
			Method: http.MethodPost,
			Path:   "/accounts/" + projectID + "/env",
			Token:  cred.Token,
			Body:   payload,
		})
		if err != nil {
			return classifyREST(p.platform.ID, "set env vars", err)
		}
	}
	return nil
}

// ListDeployments returns the token's sites with their publish state.
func (p *NetlifyProvider) ListDeployments(ctx context.Context, cred domain.Credential, limit int) ([]DeploymentInfo, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/sites",
		Token:  cred.Token,
		Query:  url.Values{"per_page": []string{strconv.Itoa(limit)}},
	})
	if err != nil {
		return nil, classifyREST(p.platform.ID, "list deployments", err)
	}

	var sites []netlifySite
	if err := transport.DecodeJSON(resp, &sites); err != nil {
		return nil, err
	}

	infos := make([]DeploymentInfo, 0, len(sites))
	for _, site := range sites {
		state := "inactive"
		if site.PublishedDeploy != nil {
			state = "active"
		}
		infos = append(infos, DeploymentInfo{
			Name:      site.Name,
			URL:       siteURL(&site),
			State:     state,
			CreatedAt: site.CreatedAt,
		})
	}
	return infos, nil
}

func siteURL(site *netlifySite) string {
	if site.SSLURL != "" {
		return site.SSLURL
	}
	return site.URL
}
