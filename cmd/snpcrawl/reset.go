package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/snpcrawl/snpcrawl/internal/store"
)

func newResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset <input-file>",
		Short: "Reset the import cursor for a dataset",
		Long: `Reset deletes the resume marker for an input file so the next import walks
it from the beginning. Annotated entries stay in the dataset. This is
destructive for progress tracking and therefore requires --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("reset discards import progress for %s; re-run with --force to confirm", args[0])
			}
			return runReset(cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the cursor reset")

	return cmd
}

func runReset(cmd *cobra.Command, path string) error {
	key, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve dataset key: %w", err)
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

	if err := st.ResetCursor(key); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cursor reset for %s\n", key)
	return nil
}
