// Package main implements recipectl, an operator CLI for the recipe catalog.
// It talks to the configured store through the same command and query buses
// as the HTTP API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"recipebook/infrastructure/config"
	"recipebook/infrastructure/di"
)

type app struct {
	cfg       *config.Config
	container *di.Container
	cleanup   func()
	out       io.Writer

	userID string
	output string
}

// load builds the container on first use
func (a *app) load(ctx context.Context) (*di.Container, error) {
	if a.container != nil {
		return a.container, nil
	}
	if a.cfg == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		a.cfg = cfg
	}
	container, cleanup, err := di.InitializeContainer(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	a.container, a.cleanup = container, cleanup
	return container, nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Manage the recipe catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.output {
			case "table", "json":
				return nil
			default:
				return fmt.Errorf("unsupported output format %q", a.output)
			}
		},
	}
	root.PersistentFlags().StringVar(&a.userID, "user", envOr("RECIPEBOOK_USER", "recipectl"), "user ID recipes are created and deleted as")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newCategoriesCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newTokenCmd(a),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	a := &app{out: os.Stdout}
	err := newRootCmd(a).ExecuteContext(context.Background())
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
