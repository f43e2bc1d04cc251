// Package builder provides a fluent SQL query builder with clause caching and
// alias resolution for joins.
package builder

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/satishbabariya/docsql/query/executor"
	"github.com/satishbabariya/docsql/query/expr"
	"github.com/satishbabariya/docsql/runtime/types"
)

// Type is the statement kind
type Type string

const (
	TypeSelect Type = "SELECT"
	TypeUpdate Type = "UPDATE"
	TypeDelete Type = "DELETE"
	TypeInsert Type = "INSERT"
)

// State tracks whether the cached SQL is current
type State int

const (
	StateClean State = iota
	StateDirty
)

// Part names accepted by Add
const (
	PartSelect  = "select"
	PartFrom    = "from"
	PartJoin    = "join"
	PartSet     = "set"
	PartWhere   = "where"
	PartGroupBy = "groupBy"
	PartHaving  = "having"
	PartOrderBy = "orderBy"
)

var knownParts = map[string]bool{
	PartSelect: true, PartFrom: true, PartJoin: true, PartSet: true,
	PartWhere: true, PartGroupBy: true, PartHaving: true, PartOrderBy: true,
}

// Mapper translates between document and collection names
type Mapper interface {
	DocumentToCollection(document string) (string, bool)
	CollectionToDocument(collection string) (string, bool)
	DocumentFields(document string) []types.Field
}

// Manager is what the builder needs to map names and create query clients
type Manager interface {
	executor.Manager
	Mapper
}

type tableEntry struct {
	table      string
	alias      string
	from       *expr.FromRef
	joinTables []string
}

// QueryBuilder assembles SELECT, UPDATE and DELETE statements. It is not safe
// for concurrent use; Clone a shared builder before modifying it.
type QueryBuilder struct {
	manager Manager

	queryType  Type
	state      State
	parts      map[string][]expr.Expr
	params     map[string]any
	positional []any
	maxResults int
	offset     any
	distinct   bool

	sql    string
	cached bool

	tables      map[string]*tableEntry
	rootAliases []string
	// joinRoots maps each joined alias to the root alias it hangs off
	joinRoots map[string]string

	repositoryName string
	fieldSeq       int
	err            error
	renders        int
}

// New creates a builder. m may be nil when no name mapping or execution is needed.
func New(m Manager) *QueryBuilder {
	return &QueryBuilder{
		manager:   m,
		queryType: TypeSelect,
		parts:     make(map[string][]expr.Expr),
		params:    make(map[string]any),
		joinRoots: make(map[string]string),
	}
}

func (b *QueryBuilder) fail(err error) *QueryBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *QueryBuilder) dirty() {
	b.sql = ""
	b.cached = false
	b.tables = nil
	b.rootAliases = nil
	b.state = StateDirty
}

// Err returns the first error recorded while building
func (b *QueryBuilder) Err() error { return b.err }

// State returns StateClean when the cached SQL is current
func (b *QueryBuilder) State() State { return b.state }

// IsDirty reports whether the builder changed since the last render
func (b *QueryBuilder) IsDirty() bool { return b.state == StateDirty }

// Type returns the statement kind
func (b *QueryBuilder) Type() Type { return b.queryType }

// Manager returns the builder's manager
func (b *QueryBuilder) Manager() Manager { return b.manager }

// SetRepositoryName sets the document name used to hydrate results
func (b *QueryBuilder) SetRepositoryName(name string) *QueryBuilder {
	b.repositoryName = name
	return b
}

// RepositoryName returns the document name
func (b *QueryBuilder) RepositoryName() string { return b.repositoryName }

// Add sets or appends an expression to a clause. WHERE and HAVING are always replaced.
func (b *QueryBuilder) Add(name string, e expr.Expr, appendPart bool) *QueryBuilder {
	if !knownParts[name] {
		return b.fail(&InvalidPartError{Name: name})
	}
	if name == PartWhere || name == PartHaving {
		appendPart = false
	}
	switch {
	case e == nil && !appendPart:
		delete(b.parts, name)
	case e == nil:
	case appendPart:
		b.parts[name] = append(b.parts[name], e)
	default:
		b.parts[name] = []expr.Expr{e}
	}
	b.dirty()
	return b
}

// Part returns the expressions of a clause
func (b *QueryBuilder) Part(name string) []expr.Expr {
	return append([]expr.Expr(nil), b.parts[name]...)
}

func (b *QueryBuilder) exprs(args []any) ([]expr.Expr, bool) {
	out := make([]expr.Expr, 0, len(args))
	for _, a := range args {
		if cols, ok := a.([]string); ok {
			for _, c := range cols {
				out = append(out, expr.Raw(c))
			}
			continue
		}
		e, err := expr.Of(a)
		if err != nil {
			b.fail(err)
			return nil, false
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, true
}

// Select replaces the selected columns
func (b *QueryBuilder) Select(cols ...any) *QueryBuilder {
	return b.selectCols(cols, false)
}

// AddSelect appends selected columns
func (b *QueryBuilder) AddSelect(cols ...any) *QueryBuilder {
	return b.selectCols(cols, true)
}

func (b *QueryBuilder) selectCols(cols []any, appendPart bool) *QueryBuilder {
	if len(cols) == 0 {
		return b
	}
	parts, ok := b.exprs(cols)
	if !ok {
		return b
	}
	s, err := expr.NewSelect(parts...)
	if err != nil {
		return b.fail(err)
	}
	b.queryType = TypeSelect
	return b.Add(PartSelect, s, appendPart)
}

// SelectTable selects all columns of table, delegating to SelectDocument when
// the table maps to a document.
func (b *QueryBuilder) SelectTable(table, alias string) *QueryBuilder {
	if table == "" {
		return b
	}
	if doc, ok := b.collectionToDocument(table); ok {
		return b.SelectDocument(doc, alias, table)
	}
	ref := alias
	if ref == "" {
		ref = table
	}
	b.Select(ref + ".*")
	if len(b.parts[PartFrom]) == 0 {
		b.From(table, alias)
	}
	return b
}

// SelectDocument selects the mapped fields of a document
func (b *QueryBuilder) SelectDocument(document, alias, collection string) *QueryBuilder {
	if collection == "" {
		c, ok := b.documentToCollection(document)
		if !ok {
			return b.fail(&UnknownDocumentError{Document: document})
		}
		collection = c
	}
	ref := alias
	if ref == "" {
		ref = collection
	}

	var fields []types.Field
	if b.manager != nil {
		fields = b.manager.DocumentFields(document)
	}
	if len(fields) == 0 {
		b.Select(ref + ".*")
	} else {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, ref+"."+f.Name)
		}
		b.AddSelect(names)
	}

	if b.repositoryName == "" {
		b.repositoryName = document
	}
	if len(b.parts[PartFrom]) == 0 {
		b.From(collection, alias)
	}
	return b
}

func (b *QueryBuilder) target(table string, typ Type, alias string) *QueryBuilder {
	if table == "" {
		return b
	}
	if collection, ok := b.documentToCollection(table); ok {
		if b.repositoryName == "" {
			b.repositoryName = table
		}
		table = collection
	} else if doc, ok := b.collectionToDocument(table); ok && b.repositoryName == "" {
		b.repositoryName = doc
	}
	b.queryType = typ
	return b.From(table, alias)
}

// Update starts an UPDATE of table
func (b *QueryBuilder) Update(table, alias string) *QueryBuilder {
	return b.target(table, TypeUpdate, alias)
}

// Delete starts a DELETE from table
func (b *QueryBuilder) Delete(table, alias string) *QueryBuilder {
	return b.target(table, TypeDelete, alias)
}

// From replaces the FROM tables
func (b *QueryBuilder) From(table, alias string, opts ...expr.TableOption) *QueryBuilder {
	return b.Add(PartFrom, expr.NewFrom(table, alias, opts...), false)
}

// AddFrom appends a FROM table
func (b *QueryBuilder) AddFrom(table, alias string, opts ...expr.TableOption) *QueryBuilder {
	return b.Add(PartFrom, expr.NewFrom(table, alias, opts...), true)
}

// Set adds "name = value" to the SET clause. value is rendered verbatim,
// typically a :name placeholder.
func (b *QueryBuilder) Set(name, value string) *QueryBuilder {
	return b.Add(PartSet, expr.Eq(name, value), true)
}

// SetValues adds "key = :key" for each entry and binds the values.
// Comparison values are added as they are.
func (b *QueryBuilder) SetValues(values map[string]any) *QueryBuilder {
	for _, k := range sortedKeys(values) {
		if c, ok := values[k].(*expr.Comparison); ok {
			b.Add(PartSet, c, true)
			continue
		}
		b.Add(PartSet, expr.Eq(k, ":"+k), true)
		b.SetParameter(k, values[k])
	}
	return b
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupBy replaces the GROUP BY list
func (b *QueryBuilder) GroupBy(cols ...any) *QueryBuilder {
	return b.groupBy(cols, false)
}

// AddGroupBy appends to the GROUP BY list
func (b *QueryBuilder) AddGroupBy(cols ...any) *QueryBuilder {
	return b.groupBy(cols, true)
}

func (b *QueryBuilder) groupBy(cols []any, appendPart bool) *QueryBuilder {
	parts, ok := b.exprs(cols)
	if !ok {
		return b
	}
	g, err := expr.NewGroupBy(parts...)
	if err != nil {
		return b.fail(err)
	}
	return b.Add(PartGroupBy, g, appendPart)
}

// OrderBy replaces the ORDER BY clause. sort is a column or an *expr.OrderBy.
func (b *QueryBuilder) OrderBy(sort any, dir expr.Direction) *QueryBuilder {
	return b.orderBy(sort, dir, false)
}

// AddOrderBy appends to the ORDER BY clause
func (b *QueryBuilder) AddOrderBy(sort any, dir expr.Direction) *QueryBuilder {
	return b.orderBy(sort, dir, true)
}

func (b *QueryBuilder) orderBy(sort any, dir expr.Direction, appendPart bool) *QueryBuilder {
	switch s := sort.(type) {
	case *expr.OrderBy:
		return b.Add(PartOrderBy, s, appendPart)
	case string:
		return b.Add(PartOrderBy, expr.NewOrderBy(s, dir), appendPart)
	default:
		return b.Add(PartOrderBy, expr.NewOrderBy(cast.ToString(sort), dir), appendPart)
	}
}

// Distinct sets the DISTINCT flag, true when called without arguments
func (b *QueryBuilder) Distinct(flag ...bool) *QueryBuilder {
	b.distinct = len(flag) == 0 || flag[0]
	b.dirty()
	return b
}

// IsDistinct reports the DISTINCT flag
func (b *QueryBuilder) IsDistinct() bool { return b.distinct }

// SetMaxResults sets the row limit. Values that are not numeric are ignored.
func (b *QueryBuilder) SetMaxResults(max any) *QueryBuilder {
	n, err := cast.ToIntE(max)
	if err != nil {
		return b
	}
	b.maxResults = n
	b.dirty()
	return b
}

// MaxResults returns the row limit
func (b *QueryBuilder) MaxResults() int { return b.maxResults }

// SetOffset sets the row offset. Unlike SetMaxResults the value is stored
// unchecked and coerced to an integer when the query client is created.
func (b *QueryBuilder) SetOffset(offset any) *QueryBuilder {
	b.offset = offset
	b.dirty()
	return b
}

// Offset returns the offset as set
func (b *QueryBuilder) Offset() any { return b.offset }

// SetParameter binds a named parameter. A leading colon is ignored.
func (b *QueryBuilder) SetParameter(name string, value any) *QueryBuilder {
	b.params[strings.TrimPrefix(name, ":")] = value
	return b
}

// SetParameters binds a map of named parameters, or replaces the parameters
// with a positional []any.
func (b *QueryBuilder) SetParameters(params any) *QueryBuilder {
	switch p := params.(type) {
	case []any:
		b.positional = p
	case map[string]any:
		for k, v := range p {
			b.SetParameter(k, v)
		}
	}
	return b
}

// Parameter returns a named parameter
func (b *QueryBuilder) Parameter(name string) (any, bool) {
	v, ok := b.params[name]
	return v, ok
}

// Parameters returns the positional parameters when set, otherwise the named ones
func (b *QueryBuilder) Parameters() any {
	if b.positional != nil {
		return b.positional
	}
	return b.params
}

func (b *QueryBuilder) documentToCollection(document string) (string, bool) {
	if b.manager == nil {
		return "", false
	}
	return b.manager.DocumentToCollection(document)
}

func (b *QueryBuilder) collectionToDocument(collection string) (string, bool) {
	if b.manager == nil {
		return "", false
	}
	return b.manager.CollectionToDocument(collection)
}

// Clone returns an independent copy of the builder
func (b *QueryBuilder) Clone() *QueryBuilder {
	c := *b
	c.parts = make(map[string][]expr.Expr, len(b.parts))
	for name, parts := range b.parts {
		cp := make([]expr.Expr, len(parts))
		for i, p := range parts {
			if g, ok := p.(*expr.Group); ok {
				p = g.Clone()
			}
			cp[i] = p
		}
		c.parts[name] = cp
	}
	c.params = make(map[string]any, len(b.params))
	for k, v := range b.params {
		c.params[k] = v
	}
	c.joinRoots = make(map[string]string, len(b.joinRoots))
	for k, v := range b.joinRoots {
		c.joinRoots[k] = v
	}
	if b.positional != nil {
		c.positional = append([]any(nil), b.positional...)
	}
	c.tables = nil
	c.rootAliases = nil
	return &c
}
