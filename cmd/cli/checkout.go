package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

var (
	checkoutCreate bool
	checkoutForce  bool
	checkoutJSON   bool
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch>",
	Short: "Switch the version store to a branch and hydrate the vector store to match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.Checkout(ctx, args[0], checkoutCreate, checkoutForce)
		})
		if err != nil && res == nil {
			return fmt.Errorf("checkout failed: %w", err)
		}
		return printResult(res, checkoutJSON)
	},
}

func init() {
	checkoutCmd.Flags().BoolVar(&checkoutCreate, "create", false, "Create the branch before switching to it (fails if it already exists)")
	checkoutCmd.Flags().BoolVar(&checkoutForce, "force", false, "Checkout even if local uncommitted changes exist")
	checkoutCmd.Flags().BoolVar(&checkoutJSON, "json", false, "Output result as JSON")
}
