package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/notebridge/internal/importers"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printResult(w io.Writer, r *importers.Result) {
	fmt.Fprintf(w, "Imported:   %d\n", r.Successes)
	fmt.Fprintf(w, "Duplicates: %d\n", r.Duplicates)
	fmt.Fprintf(w, "Errors:     %d\n", r.Errors)
	if r.BatchID != "" {
		fmt.Fprintf(w, "Batch:      %s (undo with: notebridge undo %s)\n", r.BatchID, r.BatchID)
	}

	var failures []string
	for i, o := range r.Outcomes {
		if o.Err != nil {
			failures = append(failures, fmt.Sprintf("  #%d: %v", i+1, o.Err))
		}
	}
	if len(failures) > 0 {
		fmt.Fprintln(w, "Failures:")
		fmt.Fprintln(w, strings.Join(failures, "\n"))
	}
}
