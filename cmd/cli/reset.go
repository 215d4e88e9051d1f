package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

var resetJSON bool

var resetCmd = &cobra.Command{
	Use:   "reset <commit>",
	Short: "Hard-reset the version store to a commit and fully regenerate the vector store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.Reset(ctx, args[0])
		})
		if err != nil && res == nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		return printResult(res, resetJSON)
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetJSON, "json", false, "Output result as JSON")
}
