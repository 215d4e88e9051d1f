package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/wire"
)

var (
	pendingCollection string
	pendingJSON       bool
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show pending XS->VS changes for one collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		changes, err := app.Manager.GetPendingChanges(ctx, pendingCollection)
		if err != nil {
			return fmt.Errorf("failed to get pending changes: %w", err)
		}

		if pendingJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(changes)
		}

		fmt.Printf("new:      %d\nmodified: %d\ndeleted:  %d\n", changes.New, changes.Modified, changes.Deleted)
		for _, d := range changes.Sample {
			fmt.Printf("  %s %s (%s)\n", d.Kind, d.DocID, d.CollectionName)
		}
		return nil
	},
}

func init() {
	pendingCmd.Flags().StringVarP(&pendingCollection, "collection", "c", "", "Collection to inspect")
	pendingCmd.Flags().BoolVar(&pendingJSON, "json", false, "Output result as JSON")
	pendingCmd.MarkFlagRequired("collection")
}
