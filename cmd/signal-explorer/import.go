// cmd/signal-explorer/import.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/dataset"
)

func importCmd(configPath *string) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a JSON dataset and load it into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			recs, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			if a.cfg.Store.Driver == config.DriverMemory {
				if err := ensureDatasetFile(a.cfg.Store.URL); err != nil {
					return err
				}
			}

			n, err := dataset.Import(cmd.Context(), a.store, recs, batch, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d records into %s\n", n, len(recs), a.store.Driver())
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", dataset.DefaultBatchSize, "Records written per batch")
	return cmd
}

// ensureDatasetFile creates an empty dataset at path so the memory store
// can open it.
func ensureDatasetFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	return os.WriteFile(path, []byte("[]"), 0o644)
}
