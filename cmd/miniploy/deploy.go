package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/analyzer"
	"github.com/artpar/miniploy/internal/shell/manifest"
)

func newDeployCmd(a *app) *cobra.Command {
	var (
		auto       bool
		platformID string
	)

	cmd := &cobra.Command{
		Use:   "deploy [path]",
		Short: "Analyze a project and write its deploy configuration",
		Long: `Analyze a project directory and write miniploy.yaml.

The analyzer inspects the project's manifest files, suggests a build
configuration and ranks the platforms by fit. With --auto the top
suggestion is accepted without confirmation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			analysis, _ := withSpinner("analyzing project...", func() (*analyzer.Analysis, error) {
				groq := analyzer.New(analyzer.Config{}, a.logger)
				return groq.Analyze(cmd.Context(), dir), nil
			})

			printAnalysis(analysis)

			chosen := platformID
			if chosen == "" {
				chosen = topRecommendation(analysis)
			}
			if chosen == "" {
				chosen = platform.Vercel
			}
			if _, err := platform.Lookup(chosen); err != nil {
				return err
			}

			if !auto {
				if err := survey.AskOne(&survey.Select{
					Message: "Deploy to:",
					Options: platform.IDs(),
					Default: chosen,
				}, &chosen); err != nil {
					return err
				}

				var confirm bool
				if err := survey.AskOne(&survey.Confirm{
					Message: fmt.Sprintf("Write %s for %s?", manifest.Filename, chosen),
					Default: true,
				}, &confirm); err != nil {
					return err
				}
				if !confirm {
					return errAlreadyReported
				}
			}

			m := &manifest.Manifest{
				Platform:       chosen,
				ProjectName:    filepath.Base(dir),
				Framework:      analysis.Framework,
				Runtime:        analysis.Runtime,
				BuildCommand:   analysis.BuildCommand,
				StartCommand:   analysis.StartCommand,
				InstallCommand: analysis.InstallCommand,
				OutputDir:      analysis.PublishDir,
				ProjectPath:    dir,
			}
			if analysis.Dockerfile != "" {
				m.Dockerfile = "Dockerfile"
			}

			path := filepath.Join(dir, manifest.Filename)
			if err := m.Save(path); err != nil {
				return err
			}
			successColor.Printf("✓ Wrote %s\n", path)
			dimColor.Printf("Run `miniploy setup %s` to create the platform project, then `miniploy run`.\n", chosen)
			return nil
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "accept the suggested configuration without prompting")
	cmd.Flags().StringVar(&platformID, "platform", "", "target platform (overrides the recommendation)")

	return cmd
}

func printAnalysis(analysis *analyzer.Analysis) {
	fmt.Println()
	infoColor.Println("Project analysis")
	if analysis.Summary != "" {
		fmt.Printf("  %s\n", analysis.Summary)
	}
	dimColor.Printf("  confidence: %.0f%%\n", analysis.Confidence*100)
	fmt.Println()

	rows := [][]string{
		{"framework", analysis.Framework},
		{"runtime", analysis.Runtime},
		{"install", analysis.InstallCommand},
		{"build", analysis.BuildCommand},
		{"start", analysis.StartCommand},
		{"publish dir", analysis.PublishDir},
	}
	kept := rows[:0]
	for _, row := range rows {
		if row[1] != "" {
			kept = append(kept, row)
		}
	}
	printTable([]string{"Setting", "Suggested"}, kept)

	if len(analysis.EnvVarsNeeded) > 0 {
		fmt.Println()
		warningColor.Printf("Needs env vars: %v\n", analysis.EnvVarsNeeded)
	}

	if len(analysis.PlatformRecommendations) > 0 {
		fmt.Println()
		infoColor.Println("Platform fit")
		recRows := make([][]string, 0, len(analysis.PlatformRecommendations))
		for _, id := range rankedPlatforms(analysis) {
			rec := analysis.PlatformRecommendations[id]
			recRows = append(recRows, []string{id, fmt.Sprintf("%.0f%%", rec.Score*100), rec.Reason})
		}
		printTable([]string{"Platform", "Score", "Why"}, recRows)
	}
	fmt.Println()
}

// rankedPlatforms orders recommended platform ids by descending score.
func rankedPlatforms(analysis *analyzer.Analysis) []string {
	ids := make([]string, 0, len(analysis.PlatformRecommendations))
	for id := range analysis.PlatformRecommendations {
		if platform.IsSupported(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		ri := analysis.PlatformRecommendations[ids[i]]
		rj := analysis.PlatformRecommendations[ids[j]]
		if ri.Score != rj.Score {
			return ri.Score > rj.Score
		}
		return ids[i] < ids[j]
	})
	return ids
}

func topRecommendation(analysis *analyzer.Analysis) string {
	ranked := rankedPlatforms(analysis)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0]
}
