package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/docsql/cli/internal/config"
	"github.com/satishbabariya/docsql/cli/internal/ui"
	"github.com/satishbabariya/docsql/cli/internal/watch"
	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/manager"
	"github.com/satishbabariya/docsql/runtime/types"
	"github.com/satishbabariya/docsql/telemetry"
)

type queryOptions struct {
	file       string
	params     []string
	repository string
	limit      int
	offset     int
	count      bool
	raw        bool
	reader     bool
	watch      bool
	stats      bool
	output     string
}

// NewQueryCommand creates the query command
func NewQueryCommand(g *globals) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run SQL with named parameters",
		Long: `Run a statement against the configured database.

Named parameters are written as :name and bound with --param name=value.
With --repo the rows are mapped to documents of that repository.`,
		Example: `  docsql query "SELECT * FROM users WHERE status = :status" --param status=active
  docsql query --file report.sql --limit 20 --offset 40 --count --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.file == "" {
				return fmt.Errorf("pass a statement or --file")
			}
			return runQuery(cmd, g, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read the statement from a file")
	f.StringArrayVarP(&opts.params, "param", "p", nil, "named parameter as name=value (repeatable)")
	f.StringVar(&opts.repository, "repo", "", "map rows to documents of this repository")
	f.IntVar(&opts.limit, "limit", 0, "append LIMIT when the statement has none")
	f.IntVar(&opts.offset, "offset", 0, "append OFFSET, only together with a limit")
	f.BoolVar(&opts.count, "count", false, "also count all matching rows")
	f.BoolVar(&opts.raw, "raw", false, "print rows even when --repo is set")
	f.BoolVar(&opts.reader, "reader", false, "force the statement onto the read replica")
	f.BoolVarP(&opts.watch, "watch", "w", false, "re-run when --file changes")
	f.BoolVar(&opts.stats, "stats", false, "print statement statistics")
	f.StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	return cmd
}

// parseParams turns name=value pairs into named parameters
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", p)
		}
		params[name] = value
	}
	return params, nil
}

func readStatement(opts *queryOptions, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := afero.ReadFile(config.AppFs, opts.file)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func runQuery(cmd *cobra.Command, g *globals, opts *queryOptions, args []string) error {
	if opts.watch && opts.file == "" {
		return fmt.Errorf("--watch needs --file")
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	collector := telemetry.NewCollector()
	m, err := g.openManager(ctx, collector.Middleware())
	if err != nil {
		return err
	}
	defer m.Close()

	out := cmd.OutOrStdout()
	run := func() error {
		sql, err := readStatement(opts, args)
		if err != nil {
			return err
		}
		if err := executeStatement(ctx, out, m, sql, params, opts); err != nil {
			return err
		}
		if opts.stats {
			ui.WriteStats(out, collector.Snapshot())
		}
		return nil
	}

	if !opts.watch {
		return run()
	}

	w, err := watch.NewWatcher(opts.file, run, func(err error) {
		ui.PrintError("%v", err)
	})
	if err != nil {
		return err
	}
	ui.PrintInfo("watching %s, press Ctrl+C to stop", opts.file)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func executeStatement(ctx context.Context, out io.Writer, m *manager.Manager, sql string, params map[string]any, opts *queryOptions) error {
	qc := m.CreateQuery(sql).
		SetRepositoryName(opts.repository).
		SetMapData(!opts.raw).
		SetCountFoundRows(opts.count).
		SetIncludeRawData(true)
	if params != nil {
		qc.SetParameters(params)
	}
	if opts.limit > 0 {
		qc.SetMaxResults(opts.limit)
	}
	if opts.offset > 0 {
		qc.SetOffset(opts.offset)
	}
	if opts.reader {
		qc.SetReader(true)
	}

	result, err := qc.GetResult(ctx)
	if err != nil {
		return err
	}
	if result == nil || result.Rows == nil {
		// no result set
		fmt.Fprintln(out, statusLine(sql, result))
		return nil
	}
	return writeResult(out, result, opts.output, opts.count)
}

// statusLine describes a statement without a result set
func statusLine(sql string, result *query.Result) string {
	keyword := "OK"
	if fields := strings.Fields(sql); len(fields) > 0 {
		keyword = strings.ToUpper(fields[0]) + " OK"
	}
	if result == nil {
		return keyword
	}
	if res, ok := result.RawData.(*driver.Result); ok {
		return fmt.Sprintf("%s, %d rows affected", keyword, res.RowsAffected)
	}
	return keyword
}

func writeResult(out io.Writer, result *query.Result, format string, count bool) error {
	switch format {
	case "json":
		payload := map[string]any{"rows": result.Rows}
		if result.Documents != nil {
			payload = map[string]any{"documents": result.Documents}
		}
		if count {
			payload["total"] = result.TotalRows
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "table", "":
		rows := result.Rows
		if result.Documents != nil {
			rows = documentRows(result.Documents)
		}
		if err := ui.WriteRows(out, rows); err != nil {
			return err
		}
		if count {
			fmt.Fprintf(out, "%d of %d rows\n", result.Len(), result.TotalRows)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// documentRows flattens documents for table output
func documentRows(docs []any) []query.Row {
	rows := make([]query.Row, 0, len(docs))
	for _, d := range docs {
		row := query.Row{}
		switch m := d.(type) {
		case types.Document:
			for k, v := range m {
				row[k] = v
			}
		case map[string]any:
			for k, v := range m {
				row[k] = v
			}
		default:
			if b, err := json.Marshal(d); err == nil {
				_ = json.Unmarshal(b, &row)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
