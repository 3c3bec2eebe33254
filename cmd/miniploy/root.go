package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/identity"
	"github.com/artpar/miniploy/internal/core/retry"
	"github.com/artpar/miniploy/internal/shell/credstore"
	"github.com/artpar/miniploy/internal/shell/orchestrator"
	"github.com/artpar/miniploy/internal/shell/provider"
	"github.com/artpar/miniploy/internal/shell/resolver"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// app carries the wired dependencies shared by all commands.
type app struct {
	cfg    *Config
	logger *slog.Logger
	store  credstore.Store
	orch   *orchestrator.Orchestrator
}

// provider builds the adapter for a platform id using the configured HTTP
// bounds.
func (a *app) provider(platformID string) (provider.Provider, error) {
	return provider.NewByID(platformID, transport.Config{Timeout: a.cfg.HTTP.Timeout}, a.logger)
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		logFormat  string
	)

	a := &app{}

	cmd := &cobra.Command{
		Use:   "miniploy",
		Short: "Deploy projects to Vercel, Netlify, Render, Railway and Fly.io",
		Long: `miniploy publishes a project's build artifacts to one of five hosting
platforms through a single interface. It hides each platform's
authentication scheme, identifier discovery and wire protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Log.Level = "debug"
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}

			a.cfg = cfg
			a.logger = SetupLogger(cfg)

			switch cfg.Credentials.Backend {
			case "keyring":
				a.store = credstore.NewKeyringStore()
			case "file", "":
				a.store = credstore.NewEnvFileStore(cfg.Credentials.File)
			default:
				return fmt.Errorf("unknown credentials backend %q (file or keyring)", cfg.Credentials.Backend)
			}

			policy := retry.DefaultPolicy()
			if cfg.Deploy.MaxRetries > 0 {
				policy.MaxAttempts = cfg.Deploy.MaxRetries
			}

			res := resolver.New(identity.NewCache(), a.logger)
			a.orch = orchestrator.New(res, orchestrator.Config{
				PollInterval: cfg.Deploy.PollInterval,
				MaxPolls:     cfg.Deploy.MaxPolls,
				Timeout:      cfg.Deploy.Timeout,
				Retry:        policy,
			}, a.logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text or json)")

	cmd.AddCommand(
		newTokensCmd(a),
		newStaticCmd(a),
		newSetupCmd(a),
		newDeployCmd(a),
		newRunCmd(a),
		newManageCmd(a),
	)

	return cmd
}
