package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

var (
	initCollection string
	initMessage    string
	initJSON       bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed the version store from an existing vector store collection",
	Long:  `Implements initialize_from_xs: reads every document in a vector store collection and commits it into the version store as the baseline.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		res, err := runOp(ctx, app, func(ctx context.Context) (*core.Result, error) {
			return app.Manager.InitializeFromXS(ctx, initCollection, initMessage)
		})
		if err != nil && res == nil {
			return fmt.Errorf("initialize_from_xs failed: %w", err)
		}
		return printResult(res, initJSON)
	},
}

func init() {
	initCmd.Flags().StringVarP(&initCollection, "collection", "c", "", "Vector store collection to seed from")
	initCmd.Flags().StringVarP(&initMessage, "message", "m", "initialize from xs", "Commit message for the baseline")
	initCmd.Flags().BoolVar(&initJSON, "json", false, "Output result as JSON")
	initCmd.MarkFlagRequired("collection")
}
