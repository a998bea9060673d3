package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/snpcrawl/snpcrawl/internal/store"
)

func newShowCmd() *cobra.Command {
	var (
		status       string
		minMagnitude float64
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the accumulated dataset as a table",
		Example: `  snpcrawl show
  snpcrawl show --status annotated --min-magnitude 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, store.Filter{
				Status:       store.Status(status),
				MinMagnitude: minMagnitude,
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status: annotated, notfound, pending")
	cmd.Flags().Float64Var(&minMagnitude, "min-magnitude", 0, "Only entries with at least this magnitude")

	return cmd
}

func runShow(cmd *cobra.Command, filter store.Filter) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}

	st, err := store.Open(storePath(dir))
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.Query(filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RSID\tCHROM\tPOS\tGENOTYPE\tSTATUS\tMAGNITUDE\tSUMMARY")
	for _, e := range entries {
		magnitude := ""
		if e.HasMagnitude {
			magnitude = fmt.Sprintf("%.1f", e.Magnitude)
		}
		summary := e.MatchedSummary
		if summary == "" {
			summary = truncate(e.Description, 80)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			e.Rsid, e.Chrom, e.Pos, e.Genotype, e.Status, magnitude, summary)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d entries\n", len(entries))
	return nil
}

// truncate cuts on runes so multibyte summary text never splits mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
