package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

var (
	pullRemote string
	pullForce  bool
	pullJSON   bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and merge the remote version store, then hydrate the vector store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.Pull(ctx, pullRemote, pullForce)
		})
		if err != nil && res == nil {
			return fmt.Errorf("pull failed: %w", err)
		}
		return printResult(res, pullJSON)
	},
}

func init() {
	pullCmd.Flags().StringVarP(&pullRemote, "remote", "r", "origin", "Remote name to pull from")
	pullCmd.Flags().BoolVar(&pullForce, "force", false, "Pull even if local uncommitted changes exist")
	pullCmd.Flags().BoolVar(&pullJSON, "json", false, "Output result as JSON")
}
