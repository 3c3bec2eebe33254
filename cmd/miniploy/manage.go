package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/credstore"
	"github.com/artpar/miniploy/internal/shell/provider"
)

const manageListLimit = 10

func newManageCmd(a *app) *cobra.Command {
	var platformID string

	cmd := &cobra.Command{
		Use:   "manage",
		Short: "List recent deployments across platforms",
		Long: `List recent deployments on every platform a token is stored for.

Platforms are queried concurrently; one unreachable platform does not
hide the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := platform.All()
			if platformID != "" {
				p, err := platform.Lookup(platformID)
				if err != nil {
					return err
				}
				targets = []platform.Platform{p}
			}

			rows, _ := withSpinner("listing deployments...", func() ([][]string, error) {
				return listAcrossPlatforms(cmd.Context(), a, targets), nil
			})

			if len(rows) == 0 {
				dimColor.Println("No deployments found (no tokens stored, or nothing deployed yet).")
				return nil
			}

			printTable([]string{"Platform", "Name", "State", "URL", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&platformID, "platform", "", "restrict the listing to one platform")

	return cmd
}

// listAcrossPlatforms fans out one goroutine per platform with a token and
// merges the listings in platform display order.
func listAcrossPlatforms(ctx context.Context, a *app, targets []platform.Platform) [][]string {
	type listing struct {
		platform platform.Platform
		infos    []provider.DeploymentInfo
		err      error
	}

	results := make([]listing, len(targets))
	var wg sync.WaitGroup

	for i, p := range targets {
		cred, _, err := credstore.ResolveCredential(a.store, p)
		if err != nil || cred.Empty() {
			continue
		}

		wg.Add(1)
		go func(i int, p platform.Platform) {
			defer wg.Done()

			prov, err := a.provider(p.ID)
			if err != nil {
				results[i] = listing{platform: p, err: err}
				return
			}
			infos, err := prov.ListDeployments(ctx, cred, manageListLimit)
			results[i] = listing{platform: p, infos: infos, err: err}
		}(i, p)
	}
	wg.Wait()

	var rows [][]string
	for _, res := range results {
		if res.platform.ID == "" {
			continue
		}
		if res.err != nil {
			rows = append(rows, []string{res.platform.DisplayName, errorColor.Sprint("unavailable"), res.err.Error(), "", ""})
			continue
		}
		for _, info := range res.infos {
			rows = append(rows, []string{
				res.platform.DisplayName,
				info.Name,
				stateColor(info.State).Sprint(info.State),
				info.URL,
				info.CreatedAt,
			})
		}
	}
	return rows
}
