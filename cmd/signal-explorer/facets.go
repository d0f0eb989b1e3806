// cmd/signal-explorer/facets.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"signal-explorer/internal/explorer/facets"
	"signal-explorer/internal/models"
)

func facetsCmd(configPath *string) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Print the distinct values of every facet field",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			catalog := a.catalog(cmd.Context())
			var values facets.Values
			if refresh {
				values, err = catalog.Refresh(cmd.Context())
			} else {
				values, err = catalog.Load(cmd.Context())
			}
			if err != nil {
				return err
			}
			printFacets(cmd, values)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop any cached catalog before loading")
	return cmd
}

func printFacets(cmd *cobra.Command, values facets.Values) {
	sorted := values.Sorted()
	for _, f := range models.FacetFields {
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s (%d) %s\n", f, len(sorted[f]), strings.Join(sorted[f], ", "))
	}
}
