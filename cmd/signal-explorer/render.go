// cmd/signal-explorer/render.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"signal-explorer/internal/explorer/chart"
	"signal-explorer/internal/explorer/criteria"
	"signal-explorer/internal/explorer/grouping"
	"signal-explorer/internal/explorer/query"
	"signal-explorer/internal/models"
)

func renderCmd(configPath *string) *cobra.Command {
	var (
		outDir string
		format string
		values = make(map[models.Field]*string, len(models.FilterFields))
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one chart file per title for the selected criteria",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if format == "" {
				format = a.cfg.Chart.Format
			}
			f, err := chart.ParseFormat(format)
			if err != nil {
				return err
			}

			sel := criteria.New()
			for field, v := range values {
				if err := sel.Set(field, *v); err != nil {
					return err
				}
			}

			recs, err := a.fetcher().Fetch(cmd.Context(), query.Build(sel))
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			written, err := renderGroups(outDir, grouping.GroupBy(recs, grouping.ByTitle), chart.OptionsFromConfig(a.cfg.Chart), f)
			if err != nil {
				return err
			}

			filter := sel.Text()
			if filter == "" {
				filter = "All"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Filtered Data by %s\n", filter)
			for _, p := range written {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "charts", "Output directory")
	cmd.Flags().StringVar(&format, "format", "", "Chart format: svg or png (default from config)")
	for _, field := range models.FilterFields {
		values[field] = cmd.Flags().String(string(field), "", fmt.Sprintf("Filter on %s", field))
	}
	return cmd
}

// renderGroups writes one file per group, or a single placeholder file when
// there are no groups.
func renderGroups(dir string, groups *grouping.Groups, opts chart.Options, format chart.Format) ([]string, error) {
	if groups.Len() == 0 {
		path := filepath.Join(dir, "no-data."+string(format))
		err := writeFile(path, func(f *os.File) error { return chart.RenderEmpty(f, opts, format) })
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, groups.Len())
	for i, g := range groups.List() {
		path := filepath.Join(dir, fmt.Sprintf("%02d-%s.%s", i+1, slug(g.Key), format))
		err := writeFile(path, func(f *os.File) error {
			return chart.RenderGroup(f, g.Key, g.Records, opts, format)
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
