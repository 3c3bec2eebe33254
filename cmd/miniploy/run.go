package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/manifest"
)

func newRunCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Deploy the configured project",
		Long: `Deploy the project described by miniploy.yaml.

Triggers a new deployment of the configured platform project and polls
until it is live or failed. Exit code is 0 only on a live result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifest.Find(".")
			if err != nil {
				return fmt.Errorf("%w; run `miniploy deploy` or `miniploy setup <platform>` first", err)
			}

			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			if !m.Configured() {
				return fmt.Errorf("%s has no platform project yet; run `miniploy setup %s`", path, m.Platform)
			}

			p, err := platform.Lookup(m.Platform)
			if err != nil {
				return err
			}

			cred, err := requireCredential(a, p)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Printf("Would deploy project %s (%s) to %s\n", m.ProjectName, m.ProjectID, p.DisplayName)
				return nil
			}

			prov, err := a.provider(p.ID)
			if err != nil {
				return err
			}

			fmt.Printf("Deploying %s to %s\n", m.ProjectName, p.DisplayName)

			result, _ := withSpinner("waiting for the platform...", func() (*domain.Result, error) {
				return a.orch.Redeploy(cmd.Context(), prov, cred, m.ProjectID), nil
			})

			return printResult(result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deployed without calling the platform")

	return cmd
}
