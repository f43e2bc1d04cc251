// Package executor runs raw SQL or declarative queries through a data access
// client and assembles the results.
package executor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/types"
)

// DataClient executes statements and counts the rows a SELECT would return
// without its LIMIT and OFFSET.
type DataClient interface {
	RawQuery(ctx context.Context, sql string, params []any) (*driver.Result, error)
	CountFoundRows(ctx context.Context, sql string, params []any) (int64, error)
}

// Manager provides clients, metadata and hydration
type Manager interface {
	Client() DataClient
	ReaderClient() DataClient
	Metadata(name string) (*types.Metadata, bool)
	MapRowsToDocuments(ctx context.Context, md *types.Metadata, rows []query.Row) ([]any, error)
	MapRowToDocument(ctx context.Context, md *types.Metadata, row query.Row) (any, error)
	FindByQuery(ctx context.Context, repository string, q *query.Query) (*query.Result, error)
}

// QueryClient executes one query. It is not safe for concurrent use.
type QueryClient struct {
	manager  Manager
	preparer *Preparer

	query          *query.Query
	sql            string
	params         any
	repositoryName string
	includeRawData bool
	mapData        bool
	reader         bool
}

// NewQueryClient creates a client for q. A nil q starts from an empty query.
func NewQueryClient(m Manager, q *query.Query) *QueryClient {
	if q == nil {
		q = query.New()
	}
	return &QueryClient{
		manager:  m,
		preparer: DefaultPreparer,
		query:    q,
		mapData:  true,
	}
}

// WithPreparer sets the named parameter preparer
func (c *QueryClient) WithPreparer(p *Preparer) *QueryClient {
	c.preparer = p
	return c
}

// SetSQL sets raw SQL. Statements starting with select are sent to the reader.
func (c *QueryClient) SetSQL(sql string) *QueryClient {
	c.sql = sql
	c.reader = strings.HasPrefix(strings.ToLower(strings.TrimSpace(sql)), "select")
	return c
}

// RawSQL returns the SQL as set, without merged clauses
func (c *QueryClient) RawSQL() string { return c.sql }

var limitPair = regexp.MustCompile(`limit\s*\d+\s*,\s*\d+`)

// SQL returns the raw SQL with ORDER BY, LIMIT and OFFSET from the query
// appended when the SQL does not already contain them. OFFSET is not added
// to a "limit n, m" statement. The condition alias prefixes unqualified sort
// fields only.
func (c *QueryClient) SQL() string {
	if c.sql == "" {
		return ""
	}
	sql := c.sql
	chk := strings.ToLower(sql)
	q := c.query

	if len(q.Sort) > 0 && !strings.Contains(chk, "order by") {
		prefix := ""
		if q.ConditionAlias != "" {
			prefix = q.ConditionAlias + "."
		}
		terms := make([]string, 0, len(q.Sort))
		for _, s := range q.Sort {
			dir := "ASC"
			if s.Desc() {
				dir = "DESC"
			}
			field := s.Field
			if !strings.Contains(field, ".") {
				field = prefix + field
			}
			terms = append(terms, field+" "+dir)
		}
		sql += " ORDER BY " + strings.Join(terms, ", ")
	}

	if q.Limit > 0 && !strings.Contains(chk, "limit ") {
		sql += " LIMIT " + strconv.Itoa(q.Limit)
	}

	if q.Skip > 0 && !strings.Contains(chk, "offset ") && !limitPair.MatchString(chk) {
		sql += " OFFSET " + strconv.Itoa(q.Skip)
	}
	return sql
}

// SetQuery replaces the query descriptor
func (c *QueryClient) SetQuery(q *query.Query) *QueryClient {
	if q == nil {
		q = query.New()
	}
	c.query = q
	return c
}

// Query returns the query descriptor
func (c *QueryClient) Query() *query.Query { return c.query }

// SetParameters sets []any positional or map[string]any named parameters
func (c *QueryClient) SetParameters(params any) *QueryClient {
	c.params = params
	return c
}

// Parameters returns the parameters as set
func (c *QueryClient) Parameters() any { return c.params }

// SetMaxResults sets the query limit
func (c *QueryClient) SetMaxResults(limit int) *QueryClient {
	c.query.Limit = limit
	return c
}

// MaxResults returns the query limit
func (c *QueryClient) MaxResults() int { return c.query.Limit }

// SetOffset sets the query skip
func (c *QueryClient) SetOffset(offset int) *QueryClient {
	c.query.Skip = offset
	return c
}

// Offset returns the query skip
func (c *QueryClient) Offset() int { return c.query.Skip }

// SetSort replaces the query sort
func (c *QueryClient) SetSort(sort query.Sort) *QueryClient {
	c.query.Sort = sort
	return c
}

// SetCountFoundRows requests the total row count on results
func (c *QueryClient) SetCountFoundRows(count bool) *QueryClient {
	c.query.CountFoundRows = count
	return c
}

// SetMapData toggles hydration into documents. It is on by default.
func (c *QueryClient) SetMapData(mapData bool) *QueryClient {
	c.mapData = mapData
	return c
}

// SetIncludeRawData attaches the driver result to results
func (c *QueryClient) SetIncludeRawData(include bool) *QueryClient {
	c.includeRawData = include
	return c
}

// SetRepositoryName sets the document name used for hydration
func (c *QueryClient) SetRepositoryName(name string) *QueryClient {
	c.repositoryName = name
	return c
}

// RepositoryName returns the document name
func (c *QueryClient) RepositoryName() string { return c.repositoryName }

// SetReader overrides the read replica routing chosen by SetSQL
func (c *QueryClient) SetReader(reader bool) *QueryClient {
	c.reader = reader
	return c
}

// IsReader reports whether the statement goes to the read replica
func (c *QueryClient) IsReader() bool { return c.reader }

func (c *QueryClient) dataClient() DataClient {
	if c.reader {
		return c.manager.ReaderClient()
	}
	return c.manager.Client()
}

func (c *QueryClient) repository(names []string) string {
	if len(names) > 0 && names[0] != "" {
		return names[0]
	}
	return c.repositoryName
}

func (c *QueryClient) metadata(repo string) (*types.Metadata, error) {
	if repo == "" {
		return nil, nil
	}
	md, ok := c.manager.Metadata(repo)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repo)
	}
	return md, nil
}

// statement is a prepared statement as sent to the data client
type statement struct {
	client DataClient
	sql    string
	params []any
}

func (c *QueryClient) execute(ctx context.Context) (*statement, *driver.Result, error) {
	sql, params, err := c.preparer.Prepare(c.SQL(), c.params)
	if err != nil {
		return nil, nil, err
	}
	stmt := &statement{client: c.dataClient(), sql: sql, params: params}
	res, err := stmt.client.RawQuery(ctx, sql, params)
	if err != nil {
		return nil, nil, err
	}
	return stmt, res, nil
}

// GetResult executes the query. Without SQL it delegates to the manager's
// FindByQuery, which requires a repository name. A nil result means the
// statement produced no result set.
func (c *QueryClient) GetResult(ctx context.Context, repositoryName ...string) (*query.Result, error) {
	repo := c.repository(repositoryName)
	if c.sql == "" {
		if repo == "" {
			return nil, ErrMissingRepository
		}
		return c.manager.FindByQuery(ctx, repo, c.query)
	}

	md, err := c.metadata(repo)
	if err != nil {
		return nil, err
	}

	stmt, res, err := c.execute(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	result := query.NewResult(c.query, res.Rows)
	if c.includeRawData {
		result.RawData = res
	}

	// the count is derived from the statement just sent, not the client's
	// last statement, which other goroutines may have replaced
	if c.query.CountFoundRows {
		total, err := stmt.client.CountFoundRows(ctx, stmt.sql, stmt.params)
		if err != nil {
			return nil, err
		}
		result.TotalRows = total
	}

	if md != nil && c.mapData {
		docs, err := c.manager.MapRowsToDocuments(ctx, md, res.Rows)
		if err != nil {
			return nil, err
		}
		result.Documents = docs
	}
	return result, nil
}

// GetOneResult executes the query and returns the first row or document, or nil
func (c *QueryClient) GetOneResult(ctx context.Context, repositoryName ...string) (any, error) {
	repo := c.repository(repositoryName)
	if c.sql == "" {
		if repo == "" {
			return nil, ErrMissingRepository
		}
		result, err := c.manager.FindByQuery(ctx, repo, c.query)
		if err != nil || result == nil {
			return nil, err
		}
		return result.First(), nil
	}

	md, err := c.metadata(repo)
	if err != nil {
		return nil, err
	}

	_, res, err := c.execute(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Rows) == 0 {
		return nil, nil
	}

	row := res.Rows[0]
	if md != nil && c.mapData {
		return c.manager.MapRowToDocument(ctx, md, row)
	}
	return row, nil
}
