package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/artpar/miniploy/internal/core/domain"
)

// errAlreadyReported signals a non-zero exit for a failure the command has
// already printed in full, so main does not repeat it.
var errAlreadyReported = errors.New("already reported")

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

// withSpinner runs fn behind a terminal spinner. The spinner writes to
// stderr so piped output stays machine-readable.
func withSpinner[T any](message string, fn func() (T, error)) (T, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	return fn()
}

// printTable renders tab-separated rows with an underlined header.
func printTable(header []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)

	for i, h := range header {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, color.New(color.Bold).Sprint(h))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// printResult renders a terminal deployment result and returns the error
// that drives the process exit code: nil only when the deployment is live.
func printResult(result *domain.Result) error {
	switch result.Status {
	case domain.StatusLive:
		fmt.Println()
		successColor.Println("✓ Deployment live")
		if result.URL != "" {
			fmt.Printf("  URL: %s\n", infoColor.Sprint(result.URL))
		}
		if result.PlatformDeploymentID != "" {
			dimColor.Printf("  id: %s\n", result.PlatformDeploymentID)
		}
		dimColor.Printf("  took %s\n", result.Duration.Round(time.Second))
		return nil
	case domain.StatusCanceled:
		fmt.Println()
		warningColor.Println("✗ Deployment canceled")
		return errAlreadyReported
	default:
		fmt.Println()
		errorColor.Println("✗ Deployment failed")
		if result.ErrorDetail != "" {
			fmt.Printf("  %s\n", result.ErrorDetail)
		}
		return errAlreadyReported
	}
}

// stateColor picks a display color for a platform state word.
func stateColor(state string) *color.Color {
	switch state {
	case "READY", "ready", "live", "running", "deployed", "ACTIVE", "success":
		return color.New(color.FgGreen)
	case "ERROR", "error", "failed", "dead", "build_failed", "update_failed", "canceled", "CANCELED":
		return color.New(color.FgRed)
	case "":
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgYellow)
	}
}
