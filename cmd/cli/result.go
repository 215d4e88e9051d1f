package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sevigo/docsync/internal/core"
)

// printResult renders a Sync Manager Result envelope either as JSON
// (--json) or as a short human-readable summary, mirroring the teacher's
// status command's dual-mode output.
func printResult(res *core.Result, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(res)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "status\t%s\n", res.Status)
	if res.CommitHash != "" {
		fmt.Fprintf(w, "commit\t%s\n", res.CommitHash)
	}
	if res.StagedFromXS > 0 {
		fmt.Fprintf(w, "staged_from_xs\t%d\n", res.StagedFromXS)
	}
	if res.Added > 0 || res.Modified > 0 || res.Deleted > 0 {
		fmt.Fprintf(w, "added\t%d\n", res.Added)
		fmt.Fprintf(w, "modified\t%d\n", res.Modified)
		fmt.Fprintf(w, "deleted\t%d\n", res.Deleted)
	}
	if res.FastForward {
		fmt.Fprintln(w, "fast_forward\ttrue")
	}
	if res.HadConflicts {
		fmt.Fprintln(w, "had_conflicts\ttrue")
	}
	if res.BlockedReason != "" {
		fmt.Fprintf(w, "blocked_reason\t%s\n", res.BlockedReason)
	}
	for _, o := range res.Offending {
		fmt.Fprintf(w, "offending\t%s:%s\n", o.CollectionName, o.DocID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if res.Status == core.OpFailed && res.Err != nil {
		return res.Err
	}
	return nil
}
