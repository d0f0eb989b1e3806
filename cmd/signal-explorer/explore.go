// cmd/signal-explorer/explore.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/explorer/controller"
	"signal-explorer/internal/models"
)

const exploreHelp = `commands:
  set <field> <value>   select a value (fields: %s)
  clear <field>|all     unset one field or every field
  apply                 fetch the records matching the selection
  facets [refresh]      list selectable values
  show                  print the selection and the grouped results
  quit                  leave
`

func exploreCmd(configPath *string) *cobra.Command {
	var (
		remote  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Interactively select criteria and inspect the matching records",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				source controller.Source
				log    logger.Logger
			)
			if remote != "" {
				source = controller.NewRemoteSource(remote, timeout)
				log = logger.NewNoOpLogger()
			} else {
				a, err := bootstrap(*configPath)
				if err != nil {
					return err
				}
				defer a.close()
				source = controller.NewLocalSource(a.fetcher(), a.catalog(cmd.Context()))
				log = a.log
			}

			r := &repl{
				ctrl: controller.New(source, log),
				out:  cmd.OutOrStdout(),
			}
			return r.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Base URL of a running explorer API")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout for --remote")
	return cmd
}

type repl struct {
	ctrl *controller.Controller
	out  io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(r.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			if err := r.exec(ctx, line); err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
		}
		fmt.Fprint(r.out, "> ")
	}
	return scanner.Err()
}

func (r *repl) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "set":
		field, value, ok := strings.Cut(rest, " ")
		if !ok {
			return errors.New("usage: set <field> <value>")
		}
		return r.ctrl.Set(models.Field(field), strings.TrimSpace(value))
	case "clear":
		if rest == "all" || rest == "" {
			r.ctrl.ClearAll()
		} else {
			r.ctrl.Clear(models.Field(rest))
		}
		return nil
	case "apply":
		recs, err := r.ctrl.Apply(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%d records\n", len(recs))
		return nil
	case "facets":
		var err error
		if rest == "refresh" {
			_, err = r.ctrl.RefreshFacets(ctx)
		} else {
			_, err = r.ctrl.LoadFacets(ctx)
		}
		if err != nil {
			return err
		}
		r.printFacets()
		return nil
	case "show":
		r.show()
		return nil
	case "help":
		fields := make([]string, len(models.FilterFields))
		for i, f := range models.FilterFields {
			fields[i] = string(f)
		}
		fmt.Fprintf(r.out, exploreHelp, strings.Join(fields, ", "))
		return nil
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

func (r *repl) printFacets() {
	values := r.ctrl.Snapshot().Facets.Sorted()
	for _, f := range models.FacetFields {
		fmt.Fprintf(r.out, "%-9s %s\n", f, strings.Join(values[f], ", "))
	}
}

func (r *repl) show() {
	snap := r.ctrl.Snapshot()
	filter := snap.FilterText
	if filter == "" {
		filter = "All"
	}
	fmt.Fprintf(r.out, "Filtered Data by %s\n", filter)
	if snap.Groups == nil || snap.Groups.Len() == 0 {
		fmt.Fprintln(r.out, "No data available.")
		return
	}
	for _, g := range snap.Groups.List() {
		fmt.Fprintf(r.out, "Title: %s (%d records)\n", g.Key, len(g.Records))
	}
}
