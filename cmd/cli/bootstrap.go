package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/syncmanager"
	"github.com/sevigo/docsync/internal/wire"
)

var (
	bootstrapProjectRoot string
	bootstrapRemoteURL   string
	bootstrapJSON        bool
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Bring VS/XS infrastructure and path alignment up to date from the repository manifest",
	Long:  `Implements bootstrap(options): loads (or seeds) the Repository Manifest and performs whichever of {VS clone, XS schema, path alignment} is missing.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		manifestStore := statestore.NewManifestStore(bootstrapProjectRoot, app.Cfg.Sync)
		manifest, err := manifestStore.Load()
		if err != nil {
			if !errors.Is(err, statestore.ErrNotFound) {
				return fmt.Errorf("failed to load manifest: %w", err)
			}
			manifest = &core.Manifest{
				CurrentBranch: "main",
				RemoteURL:     bootstrapRemoteURL,
				InitMode:      "bootstrap",
			}
		}

		opts := syncmanager.BootstrapOptions{
			ConfiguredVSPath: app.Cfg.VS.RepositoryPath,
			ProjectRoot:      bootstrapProjectRoot,
		}

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.Bootstrap(ctx, *manifest, opts)
		})
		if err != nil && res == nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}

		if res.Status != core.OpFailed {
			if err := manifestStore.Save(*manifest); err != nil {
				return fmt.Errorf("bootstrap succeeded but failed to persist manifest: %w", err)
			}
		}

		return printResult(res, bootstrapJSON)
	},
}

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapProjectRoot, "project-root", ".", "Project root to scan for an existing VS directory or manifest")
	bootstrapCmd.Flags().StringVar(&bootstrapRemoteURL, "remote-url", "", "Remote URL to clone from when no VS exists yet")
	bootstrapCmd.Flags().BoolVar(&bootstrapJSON, "json", false, "Output result as JSON")
}
