package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docsql/cli/internal/ui"
	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/criteria"
)

type findOptions struct {
	id      string
	where   string
	sort    string
	limit   int
	skip    int
	count   bool
	showSQL bool
	output  string
}

// NewFindCommand creates the find command
func NewFindCommand(g *globals) *cobra.Command {
	opts := &findOptions{}
	cmd := &cobra.Command{
		Use:   "find <document>",
		Short: "Find documents by criteria",
		Example: `  docsql find User --where '{"status":"active","age":{"$gte":18}}' --sort -created_at --limit 10
  docsql find User --id 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, g, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.id, "id", "", "find one document by id")
	f.StringVar(&opts.where, "where", "", "criteria as JSON")
	f.StringVar(&opts.sort, "sort", "", "comma separated fields, prefix with - for descending")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of documents")
	f.IntVar(&opts.skip, "skip", 0, "number of documents to skip")
	f.BoolVar(&opts.count, "count", false, "also count all matching documents")
	f.BoolVar(&opts.showSQL, "sql", false, "print the generated statement before running it")
	f.StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	return cmd
}

// buildQuery turns find flags into a query
func buildQuery(opts *findOptions) (*query.Query, error) {
	q := query.New().SetLimit(opts.limit).SetSkip(opts.skip).SetCountFoundRows(opts.count)
	if opts.where != "" {
		var c criteria.Criteria
		if err := json.Unmarshal([]byte(opts.where), &c); err != nil {
			return nil, fmt.Errorf("invalid --where: %w", err)
		}
		q.Conditions = c
	}
	for _, field := range strings.Split(opts.sort, ",") {
		field = strings.TrimSpace(field)
		switch {
		case field == "":
		case strings.HasPrefix(field, "-"):
			q.SortBy(field[1:], -1)
		default:
			q.SortBy(strings.TrimPrefix(field, "+"), 1)
		}
	}
	return q, nil
}

func runFind(cmd *cobra.Command, g *globals, opts *findOptions, document string) error {
	q, err := buildQuery(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	m, err := g.openManager(ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, ok := m.Metadata(document); !ok {
		return fmt.Errorf("unknown document %q", document)
	}
	out := cmd.OutOrStdout()

	if opts.id != "" {
		doc, err := m.Find(ctx, document, opts.id)
		if err != nil {
			return err
		}
		if doc == nil {
			ui.PrintWarning("%s %s not found", document, opts.id)
			return nil
		}
		return writeResult(out, &query.Result{Documents: []any{doc}}, opts.output, false)
	}

	qb := m.CreateQueryBuilder().SelectDocument(document, "", "")
	qc, err := qb.GetQueryFor(q)
	if err != nil {
		return err
	}
	if opts.showSQL {
		ui.PrintSQL(qc.SQL(), qc.Parameters())
	}

	result, err := qc.GetResult(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		result = &query.Result{}
	}
	if result.Documents == nil {
		result.Documents = []any{}
	}
	return writeResult(out, result, opts.output, opts.count)
}
