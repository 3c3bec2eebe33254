package main

import (
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/credstore"
	"github.com/artpar/miniploy/internal/shell/project"
	"github.com/artpar/miniploy/internal/shell/provider"
)

func newStaticCmd(a *app) *cobra.Command {
	var (
		name       string
		platformID string
	)

	cmd := &cobra.Command{
		Use:   "static <dir>",
		Short: "Deploy a directory of static files",
		Long: `Deploy a directory of static files to Vercel or Netlify.

The directory's files are uploaded directly; no repository or build step
is involved. Exit code is 0 only when the deployment reaches live.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			p, err := platform.Lookup(platformID)
			if err != nil {
				return err
			}
			if !p.SupportsStatic {
				return fmt.Errorf("%s does not accept direct static uploads (use vercel or netlify)", p.DisplayName)
			}

			if !project.HasIndexHTML(dir) {
				warningColor.Printf("No index.html in %s; the site may serve a blank page.\n", dir)
				var proceed bool
				if err := survey.AskOne(&survey.Confirm{Message: "Deploy anyway?"}, &proceed); err != nil {
					return err
				}
				if !proceed {
					return errAlreadyReported
				}
			}

			artifacts, err := project.CollectArtifacts(dir)
			if err != nil {
				return err
			}

			cred, err := requireCredential(a, p)
			if err != nil {
				return err
			}

			prov, err := a.provider(p.ID)
			if err != nil {
				return err
			}

			projectName := name
			if projectName == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				projectName = domain.Slugify(filepath.Base(abs))
			}

			fmt.Printf("Deploying %s file(s) (%d bytes) to %s as %s\n",
				infoColor.Sprintf("%d", artifacts.Len()), artifacts.Size(), p.DisplayName, projectName)

			result, _ := withSpinner("deploying...", func() (*domain.Result, error) {
				return a.orch.Deploy(cmd.Context(), prov, cred, provider.DeployRequest{
					ProjectName: projectName,
					Artifacts:   artifacts,
					Runtime:     "static",
					PublishDir:  ".",
				}), nil
			})

			return printResult(result)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (defaults to the directory name)")
	cmd.Flags().StringVar(&platformID, "platform", platform.Vercel, "target platform (vercel or netlify)")

	return cmd
}

// requireCredential resolves a platform token or explains how to add one.
func requireCredential(a *app, p platform.Platform) (domain.Credential, error) {
	cred, _, err := credstore.ResolveCredential(a.store, p)
	if err != nil {
		return domain.Credential{}, err
	}
	if cred.Empty() {
		return domain.Credential{}, fmt.Errorf("no %s token found; set %s or run `miniploy tokens %s`",
			p.DisplayName, p.TokenEnvVar, p.ID)
	}
	return cred, nil
}
