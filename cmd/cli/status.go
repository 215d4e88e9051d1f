package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/docsync/internal/wire"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the version store branch/head and pending XS->VS change counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		report, err := app.Manager.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to retrieve status: %w", err)
		}

		if statusJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		}

		fmt.Printf("branch: %s\nhead:   %s\n\n", report.Branch, report.Head)

		if len(report.UncommittedVS) > 0 {
			fmt.Println("uncommitted in VS:")
			for _, path := range report.UncommittedVS {
				fmt.Printf("  %s\n", path)
			}
			fmt.Println()
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "COLLECTION\tSTATUS\tPENDING XS->VS\tLAST SYNC")
		for _, s := range report.SyncStatePerCollection {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				s.CollectionName, s.Status, report.PendingXSToVS[s.CollectionName], s.LastSyncCommit)
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
}
