package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/credstore"
	"github.com/artpar/miniploy/internal/shell/manifest"
	"github.com/artpar/miniploy/internal/shell/project"
	"github.com/artpar/miniploy/internal/shell/provider"
)

func newSetupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup [platform]",
		Short: "Create a platform project for this directory",
		Long: `Connect the current directory to a hosting platform.

Prompts for a token when none is stored, verifies it, creates the
platform project (resolving the owner/team/organization id where the
platform requires one) and writes miniploy.yaml for later runs.

Without an argument, lists the supported platforms.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printPlatformTable()
				return nil
			}

			p, err := platform.Lookup(args[0])
			if err != nil {
				return err
			}
			return runSetup(a, cmd, p)
		},
	}
	return cmd
}

func printPlatformTable() {
	rows := make([][]string, 0, len(platform.All()))
	for _, p := range platform.All() {
		transport := string(p.Transport)
		identity := dimColor.Sprint("token-scoped")
		if p.RequiresIdentity {
			identity = "resolved first"
		}
		rows = append(rows, []string{p.ID, p.DisplayName, transport, identity, p.Description})
	}
	printTable([]string{"ID", "Platform", "API", "Identity", "Best for"}, rows)
	fmt.Println()
	dimColor.Println("Run `miniploy setup <id>` to connect this directory to a platform.")
}

func runSetup(a *app, cmd *cobra.Command, p platform.Platform) error {
	ctx := cmd.Context()

	// Token: stored, or prompted and stored now.
	cred, _, err := credstore.ResolveCredential(a.store, p)
	if err != nil {
		return err
	}
	if cred.Empty() {
		if err := promptAndStoreToken(a, p); err != nil {
			return err
		}
		cred, _, err = credstore.ResolveCredential(a.store, p)
		if err != nil {
			return err
		}
	}

	prov, err := a.provider(p.ID)
	if err != nil {
		return err
	}

	if _, err := withSpinner("verifying token...", func() (struct{}, error) {
		return struct{}{}, prov.VerifyToken(ctx, cred)
	}); err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return fmt.Errorf("the stored %s token was rejected; run `miniploy tokens %s` to replace it", p.DisplayName, p.ID)
		}
		return err
	}
	successColor.Println("✓ Token verified")

	dir, err := filepath.Abs(".")
	if err != nil {
		return err
	}

	req := provider.DeployRequest{
		ProjectName: domain.Slugify(filepath.Base(dir)),
		Runtime:     "static",
	}

	if project.HasDockerfile(dir) {
		req.Runtime = "docker"
		if !p.RequiresIdentity {
			warningColor.Printf("Dockerfile found, but %s builds static artifacts only; it will be ignored.\n", p.DisplayName)
			req.Runtime = "static"
		}
	}

	// Repo-backed platforms build from git; detect or ask.
	if p.ID == platform.Render {
		info, err := project.DetectGit(dir)
		if err != nil {
			var repo string
			if err := survey.AskOne(&survey.Input{
				Message: "Git repository URL (Render builds from git):",
			}, &repo, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
			info = &project.GitInfo{RemoteURL: repo, Branch: "main"}
		}
		req.RepoURL = info.RemoteURL
		req.Branch = info.Branch
		dimColor.Printf("Using repo %s (branch %s)\n", req.RepoURL, req.Branch)
	}

	result, err := withSpinner("creating project...", func() (*provider.DeployResult, error) {
		identityID, err := prov.ResolveIdentity(ctx, cred)
		if err != nil {
			return nil, err
		}
		req.Identity = identityID
		return prov.CreateDeployment(ctx, cred, req)
	})
	if err != nil {
		return err
	}
	successColor.Printf("✓ Created %s project %s\n", p.DisplayName, result.ProjectID)

	envVars, err := promptEnvVars()
	if err != nil {
		return err
	}
	if len(envVars) > 0 {
		if _, err := withSpinner("setting environment variables...", func() (struct{}, error) {
			return struct{}{}, prov.SetEnvVars(ctx, cred, result.ProjectID, envVars)
		}); err != nil {
			return err
		}
		successColor.Printf("✓ Set %d environment variable(s)\n", len(envVars))
	}

	m := &manifest.Manifest{
		Platform:    p.ID,
		ProjectID:   result.ProjectID,
		ProjectName: req.ProjectName,
		Runtime:     req.Runtime,
		RepoURL:     req.RepoURL,
		Branch:      req.Branch,
		ProjectPath: dir,
		EnvVars:     envVars,
	}
	path := filepath.Join(dir, manifest.Filename)
	if err := m.Save(path); err != nil {
		return err
	}
	successColor.Printf("✓ Wrote %s — `miniploy run` will deploy this project\n", manifest.Filename)
	return nil
}

// promptEnvVars collects KEY=VALUE pairs until an empty line.
func promptEnvVars() (map[string]string, error) {
	var want bool
	if err := survey.AskOne(&survey.Confirm{Message: "Add environment variables?"}, &want); err != nil {
		return nil, err
	}
	if !want {
		return nil, nil
	}

	vars := make(map[string]string)
	for {
		var pair string
		if err := survey.AskOne(&survey.Input{
			Message: "KEY=VALUE (empty to finish):",
		}, &pair); err != nil {
			return nil, err
		}
		if pair == "" {
			return vars, nil
		}
		key, value, ok := cutEnvPair(pair)
		if !ok {
			warningColor.Println("Expected KEY=VALUE")
			continue
		}
		vars[key] = value
	}
}

func cutEnvPair(pair string) (string, string, bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			if i == 0 {
				return "", "", false
			}
			return pair[:i], pair[i+1:], true
		}
	}
	return "", "", false
}
