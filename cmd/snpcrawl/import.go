package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
	"github.com/snpcrawl/snpcrawl/internal/importer"
	"github.com/snpcrawl/snpcrawl/internal/snpedia"
	"github.com/snpcrawl/snpcrawl/internal/store"
)

func newImportCmd(verbose *bool) *cobra.Command {
	var (
		format  string
		build   string
		batch   int
		paceMS  int
		refresh bool
		noIndex bool
	)

	cmd := &cobra.Command{
		Use:   "import <input-file>",
		Short: "Import the next batch of variants from a genotype file",
		Long: `Import walks the input file from the persisted cursor position, fetches the
SNPedia page for each new variant (up to the batch cap), and merges the
results into the local dataset. Invoke it repeatedly to work through a file.`,
		Example: `  snpcrawl import genome.txt
  snpcrawl import calls.vcf.gz --build GRCh38 --batch 250
  snpcrawl import genome.txt --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], importOptions{
				format:  format,
				build:   build,
				batch:   batch,
				paceMS:  paceMS,
				refresh: refresh,
				noIndex: noIndex,
				verbose: *verbose,
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Input format: 23andme or vcf (auto-detected if not specified)")
	cmd.Flags().StringVar(&build, "build", "", "Declared reference build: GRCh37 or GRCh38 (overrides auto-detection)")
	cmd.Flags().IntVarP(&batch, "batch", "n", 0, "Max page fetches this run (default from config, 100)")
	cmd.Flags().IntVar(&paceMS, "pace", 0, "Delay between fetches in milliseconds (default from config, 500)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-fetch variants previously marked not-found")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Skip the SNPedia page-index pre-filter")

	return cmd
}

type importOptions struct {
	format  string
	build   string
	batch   int
	paceMS  int
	refresh bool
	noIndex bool
	verbose bool
}

func runImport(cmd *cobra.Command, path string, opts importOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var declaredBuild genotype.Build
	if opts.build != "" {
		if declaredBuild, err = genotype.ParseBuild(opts.build); err != nil {
			return err
		}
	}

	dir, err := dataDir()
	if err != nil {
		return err
	}

	st, err := store.Open(storePath(dir))
	if err != nil {
		return err
	}
	defer st.Close()

	batch := opts.batch
	if batch <= 0 {
		batch = viper.GetInt("import.batch")
	}
	pace := time.Duration(opts.paceMS) * time.Millisecond
	if opts.paceMS <= 0 {
		pace = time.Duration(viper.GetInt("import.pace_ms")) * time.Millisecond
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := snpedia.NewClient(
		snpedia.WithBatchCap(batch),
		snpedia.WithPace(pace),
		snpedia.WithLogger(logger),
	)

	imp := importer.New(st, client)
	imp.SetLogger(logger)

	if !opts.noIndex {
		idx, err := snpedia.NewIndexLoader(dir, snpedia.WithIndexLogger(logger)).Load(ctx)
		if err != nil {
			return fmt.Errorf("load snpedia page index: %w", err)
		}
		imp.SetIndex(idx)
	}

	report, err := imp.Run(ctx, importer.Config{
		Path:    path,
		Format:  genotype.Format(opts.format),
		Build:   declaredBuild,
		Refresh: opts.refresh,
	})
	if err != nil {
		return err
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r importer.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", r.RunID)
	fmt.Fprintf(out, "  Walked:    %d variants\n", r.Seen)
	fmt.Fprintf(out, "  Fetched:   %d\n", r.Fetched)
	fmt.Fprintf(out, "  Annotated: %d\n", r.Annotated)
	fmt.Fprintf(out, "  Not found: %d\n", r.NotFound)
	if r.Skipped > 0 {
		fmt.Fprintf(out, "  Skipped:   %d (already in dataset)\n", r.Skipped)
	}
	if r.Deferred {
		fmt.Fprintf(out, "  A transient fetch failure deferred remaining work to the next run\n")
	}
	fmt.Fprintf(out, "  Position:  %d\n", r.Position)
	if r.Done {
		fmt.Fprintln(out, "Import complete: the whole file has been processed.")
	} else {
		fmt.Fprintln(out, "More variants remain; run import again to continue.")
	}
}
