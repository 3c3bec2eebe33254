package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/credstore"
)

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [platform|all]",
		Short: "Manage platform API tokens",
		Long: `Show and manage stored platform API tokens.

Without an argument, prints a masked status table and an interactive
action menu. With a platform id, prompts for that platform's token.
Tokens are read from the process environment first, then the configured
credential store; they are stored masked-free but never echoed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return tokensMenu(a)
			}
			if args[0] == "all" {
				printTokenTable(a)
				return nil
			}

			p, err := platform.Lookup(args[0])
			if err != nil {
				return err
			}
			return promptAndStoreToken(a, p)
		},
	}
}

func printTokenTable(a *app) {
	rows := make([][]string, 0, len(platform.All()))
	for _, p := range platform.All() {
		cred, source, err := credstore.ResolveCredential(a.store, p)
		status := dimColor.Sprint("not set")
		if err != nil {
			status = errorColor.Sprint("error: " + err.Error())
		} else if !cred.Empty() {
			status = fmt.Sprintf("%s %s", successColor.Sprint(domain.MaskToken(cred.Token)), dimColor.Sprintf("(%s)", source))
		}
		rows = append(rows, []string{p.DisplayName, p.TokenEnvVar, status})
	}
	printTable([]string{"Platform", "Variable", "Token"}, rows)
}

func tokensMenu(a *app) error {
	printTokenTable(a)
	fmt.Println()

	var action string
	if err := survey.AskOne(&survey.Select{
		Message: "What would you like to do?",
		Options: []string{"set a token", "delete a token", "quit"},
	}, &action); err != nil {
		return err
	}

	switch action {
	case "set a token":
		p, err := selectPlatform("Which platform?")
		if err != nil {
			return err
		}
		return promptAndStoreToken(a, p)
	case "delete a token":
		p, err := selectPlatform("Delete which platform's token?")
		if err != nil {
			return err
		}
		if err := a.store.Delete(p.ID); err != nil {
			return err
		}
		successColor.Printf("✓ Removed %s token\n", p.DisplayName)
		return nil
	default:
		return nil
	}
}

func selectPlatform(message string) (platform.Platform, error) {
	var id string
	if err := survey.AskOne(&survey.Select{
		Message: message,
		Options: platform.IDs(),
	}, &id); err != nil {
		return platform.Platform{}, err
	}
	return platform.Lookup(id)
}

// promptAndStoreToken asks for a token without echoing it and writes it to
// the credential store.
func promptAndStoreToken(a *app, p platform.Platform) error {
	dimColor.Printf("Create a token at %s\n", p.TokenURL)

	var token string
	if err := survey.AskOne(&survey.Password{
		Message: fmt.Sprintf("%s token:", p.DisplayName),
	}, &token, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if err := a.store.Set(p.ID, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	successColor.Printf("✓ Stored %s token (%s)\n", p.DisplayName, domain.MaskToken(token))
	return nil
}
