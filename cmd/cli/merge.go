package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

var (
	mergeForce bool
	mergeJSON  bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source-branch>",
	Short: "Merge a branch into the current one and re-hydrate the vector store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.Merge(ctx, args[0], mergeForce)
		})
		if err != nil && res == nil {
			return fmt.Errorf("merge failed: %w", err)
		}
		return printResult(res, mergeJSON)
	},
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeForce, "force", false, "Merge even if local uncommitted changes exist")
	mergeCmd.Flags().BoolVar(&mergeJSON, "json", false, "Output result as JSON")
}
