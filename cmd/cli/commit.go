package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

var (
	commitMessage   string
	commitAutoStage bool
	commitJSON      bool
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage pending XS changes and commit them into the version store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.Commit(ctx, commitMessage, commitAutoStage)
		})
		if err != nil && res == nil {
			return fmt.Errorf("commit failed: %w", err)
		}
		return printResult(res, commitJSON)
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message")
	commitCmd.Flags().BoolVar(&commitAutoStage, "auto-stage", true, "Stage pending XS->VS changes before committing")
	commitCmd.Flags().BoolVar(&commitJSON, "json", false, "Output result as JSON")
	commitCmd.MarkFlagRequired("message")
}
