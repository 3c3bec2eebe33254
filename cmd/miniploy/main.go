// miniploy deploys projects to Vercel, Netlify, Render, Railway and Fly.io
// through one command-line interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Pick up tokens from a local .env before anything reads the
	// environment. Missing file is fine.
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errAlreadyReported) {
			fmt.Fprintln(os.Stderr, errorColor.Sprint("Error:"), err)
		}
		return 1
	}
	return 0
}
