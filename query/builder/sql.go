package builder

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/criteria"
	"github.com/satishbabariya/docsql/query/executor"
	"github.com/satishbabariya/docsql/query/expr"
)

// GetSQL renders the statement. The result is cached until the builder
// changes. No SQL is returned together with an error.
func (b *QueryBuilder) GetSQL() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if b.state == StateClean && b.cached {
		return b.sql, nil
	}

	b.renders++
	var (
		sql string
		err error
	)
	switch b.queryType {
	case TypeDelete:
		sql, err = b.deleteSQL()
	case TypeUpdate:
		sql, err = b.updateSQL()
	default:
		sql = b.selectSQL()
	}
	if err != nil {
		return "", err
	}

	b.sql = sql
	b.cached = true
	b.state = StateClean
	return sql, nil
}

// String renders the statement, or an empty string on error
func (b *QueryBuilder) String() string {
	sql, _ := b.GetSQL()
	return sql
}

func (b *QueryBuilder) part(name, pre, sep string) string {
	parts := b.parts[name]
	strs := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := p.String(); s != "" {
			strs = append(strs, s)
		}
	}
	if len(strs) == 0 {
		return ""
	}
	return pre + strings.Join(strs, sep)
}

func (b *QueryBuilder) selectSQL() string {
	sql := "SELECT"
	if b.distinct {
		sql += " DISTINCT"
	}
	sql += b.part(PartSelect, " ", ", ") +
		b.part(PartFrom, " FROM ", ", ") +
		b.part(PartJoin, " ", " ") +
		b.part(PartWhere, " WHERE ", "") +
		b.part(PartGroupBy, " GROUP BY ", ", ") +
		b.part(PartHaving, " HAVING ", "") +
		b.part(PartOrderBy, " ORDER BY ", ", ")
	return strings.TrimSpace(sql)
}

func (b *QueryBuilder) updateSQL() (string, error) {
	from := b.part(PartFrom, " ", ", ")
	if strings.TrimSpace(from) == "" {
		return "", &MissingClauseError{Statement: TypeUpdate, Clause: "FROM"}
	}
	set := b.part(PartSet, " SET ", ", ")
	if strings.TrimSpace(set) == "" {
		return "", &MissingClauseError{Statement: TypeUpdate, Clause: "SET"}
	}
	where := b.part(PartWhere, " WHERE ", "")
	if strings.TrimSpace(where) == "" {
		return "", &MissingClauseError{Statement: TypeUpdate, Clause: "WHERE"}
	}
	joins := b.part(PartJoin, " ", " ")
	orderBy := b.part(PartOrderBy, " ORDER BY ", ", ")
	return strings.TrimSpace("UPDATE" + from + joins + set + where + orderBy), nil
}

// deleteSQL renders the multi-table form "DELETE t FROM t ...", naming each
// FROM table by its alias when one is set.
func (b *QueryBuilder) deleteSQL() (string, error) {
	from := b.part(PartFrom, " ", ", ")
	if strings.TrimSpace(from) == "" {
		return "", &MissingClauseError{Statement: TypeDelete, Clause: "FROM"}
	}
	where := b.part(PartWhere, " WHERE ", "")
	if strings.TrimSpace(where) == "" {
		return "", &MissingClauseError{Statement: TypeDelete, Clause: "WHERE"}
	}
	joins := b.part(PartJoin, " ", " ")
	orderBy := b.part(PartOrderBy, " ORDER BY ", ", ")
	targets := " " + strings.Join(b.RootAliases(), ", ")
	return strings.TrimSpace("DELETE" + targets + " FROM" + from + joins + where + orderBy), nil
}

// ImportQuery adds the query's conditions as named parameters, and its sort,
// limit and skip.
func (b *QueryBuilder) ImportQuery(q *query.Query) *QueryBuilder {
	if q == nil {
		return b
	}
	terms, err := criteria.Terms(q.Conditions)
	if err != nil {
		return b.fail(err)
	}
	for _, t := range terms {
		if t.Null {
			b.AndWhere(expr.Raw(t.Render(nil)))
			continue
		}
		marks := make([]string, len(t.Values))
		for i, v := range t.Values {
			name := fmt.Sprintf("field_%d", b.fieldSeq)
			b.fieldSeq++
			b.SetParameter(name, v)
			marks[i] = ":" + name
		}
		b.AndWhere(expr.Raw(t.Render(marks)))
	}

	for _, s := range q.Sort {
		dir := expr.ASC
		if s.Desc() {
			dir = expr.DESC
		}
		b.AddOrderBy(s.Field, dir)
	}
	if q.Limit > 0 {
		b.SetMaxResults(q.Limit)
	}
	if q.Skip > 0 {
		b.SetOffset(q.Skip)
	}
	return b
}

// GetQuery renders the statement into a query client
func (b *QueryBuilder) GetQuery() (*executor.QueryClient, error) {
	return b.GetQueryFor(nil)
}

// GetQueryFor renders the statement with q imported into a query client
// bound to q. The builder itself is left unchanged, and the client gets its
// own copy of the parameters.
func (b *QueryBuilder) GetQueryFor(q *query.Query) (*executor.QueryClient, error) {
	src := b
	if q != nil {
		src = b.Clone().ImportQuery(q)
		q = q.Clone()
	}
	sql, err := src.GetSQL()
	if err != nil {
		return nil, err
	}

	var m executor.Manager
	if src.manager != nil {
		m = src.manager
	}
	c := executor.NewQueryClient(m, q).
		SetRepositoryName(src.repositoryName).
		SetSQL(sql).
		SetParameters(src.parametersCopy())
	if src.maxResults > 0 {
		c.SetMaxResults(src.maxResults)
	}
	if offset := cast.ToInt(src.offset); offset > 0 {
		c.SetOffset(offset)
	}
	return c, nil
}

func (b *QueryBuilder) parametersCopy() any {
	if b.positional != nil {
		return slices.Clone(b.positional)
	}
	return maps.Clone(b.params)
}
