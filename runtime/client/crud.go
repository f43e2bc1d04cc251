package client

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/criteria"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/types"
)

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GenerateWhere translates criteria into a positional clause. prefix replaces
// the WHERE keyword when set. It returns nil when the criteria produce no
// condition.
func (c *Client) GenerateWhere(crit criteria.Criteria, prefix string) (*criteria.Where, error) {
	if prefix != "" {
		return criteria.Translate(crit, criteria.WithPrefix(prefix))
	}
	return criteria.Translate(crit)
}

// ConvertQueryToCriteria returns the query's conditions with every operator
// name carrying a "$" prefix.
func (c *Client) ConvertQueryToCriteria(q *query.Query) criteria.Criteria {
	out := make(criteria.Criteria, len(q.Conditions))
	for field, cond := range q.Conditions {
		var ops map[string]any
		switch t := cond.(type) {
		case criteria.Ops:
			ops = t
		case map[string]any:
			ops = t
		default:
			out[field] = cond
			continue
		}
		prefixed := make(criteria.Ops, len(ops))
		for op, v := range ops {
			if !strings.HasPrefix(op, "$") {
				op = "$" + op
			}
			prefixed[op] = v
		}
		out[field] = prefixed
	}
	return out
}

// Insert adds data to collection and sets the generated id on data when the
// document declares an id field and the driver reports one.
func (c *Client) Insert(ctx context.Context, md *types.Metadata, collection string, data map[string]any) (map[string]any, error) {
	columns := sortedKeys(data)
	params := make([]any, len(columns))
	for i, col := range columns {
		params[i] = data[col]
	}

	res, err := c.RawQuery(ctx, c.dialect.Insert(collection, columns, md.IDField), params)
	if err != nil {
		return nil, err
	}
	if md.IDField != "" {
		if id, ok := insertedID(res, md.IDField); ok {
			data[md.IDField] = id
		}
	}
	return data, nil
}

// insertedID prefers the driver's last insert id and falls back to a
// RETURNING row, which carries non-integer keys.
func insertedID(res *driver.Result, idField string) (any, bool) {
	if res == nil {
		return nil, false
	}
	if res.LastInsertID != 0 {
		return res.LastInsertID, true
	}
	if len(res.Rows) == 1 {
		if id, ok := res.Rows[0][idField]; ok && id != nil {
			return id, true
		}
	}
	return nil, false
}

// setClause renders "a = ?, b = ?" for data without the id field
func setClause(data map[string]any, idField string) (string, []any) {
	var parts []string
	var params []any
	for _, k := range sortedKeys(data) {
		if k == idField {
			continue
		}
		parts = append(parts, k+" = ?")
		params = append(params, data[k])
	}
	return strings.Join(parts, ", "), params
}

// Update sets data on the row with the given id. The id field is never updated.
func (c *Client) Update(ctx context.Context, md *types.Metadata, collection string, id any, data map[string]any) (*driver.Result, error) {
	if md.IDField == "" {
		return nil, ErrMissingIDField
	}
	set, params := setClause(data, md.IDField)
	if set == "" {
		return nil, ErrNoValues
	}
	sql := "UPDATE " + collection + " SET " + set + " WHERE " + md.IDField + " = ?"
	return c.RawQuery(ctx, sql, append(params, id))
}

// UpdateBy sets data on the rows matching crit. Parameters are the SET values
// followed by the WHERE values.
func (c *Client) UpdateBy(ctx context.Context, md *types.Metadata, collection string, crit criteria.Criteria, data map[string]any) (*driver.Result, error) {
	where, err := c.GenerateWhere(crit, "")
	if err != nil {
		return nil, err
	}
	if where == nil {
		return nil, ErrEmptyCriteria
	}
	set, params := setClause(data, md.IDField)
	if set == "" {
		return nil, ErrNoValues
	}
	sql := "UPDATE " + collection + " SET " + set + where.SQL
	return c.RawQuery(ctx, sql, append(params, where.Params...))
}

// Remove deletes the row with the given id
func (c *Client) Remove(ctx context.Context, md *types.Metadata, collection string, id any) (*driver.Result, error) {
	if md.IDField == "" {
		return nil, ErrMissingIDField
	}
	sql := "DELETE FROM " + collection + " WHERE " + md.IDField + " = ?"
	return c.RawQuery(ctx, sql, []any{id})
}

// RemoveBy deletes the rows matching crit
func (c *Client) RemoveBy(ctx context.Context, md *types.Metadata, collection string, crit criteria.Criteria) (*driver.Result, error) {
	where, err := c.GenerateWhere(crit, "")
	if err != nil {
		return nil, err
	}
	if where == nil {
		return nil, ErrEmptyCriteria
	}
	return c.RawQuery(ctx, "DELETE FROM "+collection+where.SQL, where.Params)
}

func selectList(md *types.Metadata, collection string) string {
	fields := md.SelectFields(collection)
	if len(fields) == 0 {
		return "*"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

// Find returns the row with the given id, or nil
func (c *Client) Find(ctx context.Context, md *types.Metadata, collection string, id any) (query.Row, error) {
	if md.IDField == "" {
		return nil, ErrMissingIDField
	}
	sql := "SELECT " + selectList(md, collection) + " FROM " + collection + " WHERE " + md.IDField + " = ?"
	res, err := c.RawQuery(ctx, sql, []any{id})
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows[0], nil
}

func orderBy(sort query.Sort, column func(string) string) string {
	if len(sort) == 0 {
		return ""
	}
	terms := make([]string, len(sort))
	for i, s := range sort {
		dir := "ASC"
		if s.Desc() {
			dir = "DESC"
		}
		terms[i] = column(s.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// FindBy returns the rows matching crit, or nil when there are none. OFFSET
// is only rendered together with a LIMIT.
func (c *Client) FindBy(ctx context.Context, md *types.Metadata, collection string, crit criteria.Criteria, sort query.Sort, skip, limit int) ([]query.Row, error) {
	sql, params, err := c.findBySQL(md, collection, crit, sort, skip, limit)
	if err != nil {
		return nil, err
	}
	return c.selectRows(ctx, sql, params)
}

func (c *Client) findBySQL(md *types.Metadata, collection string, crit criteria.Criteria, sort query.Sort, skip, limit int) (string, []any, error) {
	sql := "SELECT " + selectList(md, collection) + " FROM " + collection
	var params []any
	where, err := c.GenerateWhere(crit, "")
	if err != nil {
		return "", nil, err
	}
	if where != nil {
		sql += where.SQL
		params = where.Params
	}
	sql += orderBy(sort, func(f string) string { return f })
	if limit > 0 {
		sql += " LIMIT " + strconv.Itoa(limit)
		if skip > 0 {
			sql += " OFFSET " + strconv.Itoa(skip)
		}
	}
	return sql, params, nil
}

func (c *Client) selectRows(ctx context.Context, sql string, params []any) ([]query.Row, error) {
	res, err := c.RawQuery(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows, nil
}

// FindWhereIn returns the rows of the document's collection whose field is
// one of values, or nil. No statement is sent when values is empty.
func (c *Client) FindWhereIn(ctx context.Context, md *types.Metadata, field string, values []any, sort query.Sort, limit int) ([]query.Row, error) {
	if len(values) == 0 {
		return nil, nil
	}
	q := c.dialect.QuoteIdentifier
	table := q(md.Collection)
	marks := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")

	sql := "SELECT " + table + ".* FROM " + table +
		" WHERE " + table + "." + q(field) + " IN (" + marks + ")" +
		orderBy(sort, func(f string) string { return table + "." + q(f) })
	if limit > 0 {
		sql += " LIMIT " + strconv.Itoa(limit)
	}

	res, err := c.RawQuery(ctx, sql, values)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows, nil
}

// FindByQuery runs q against collection. The total row count is attached
// when q asks for it.
func (c *Client) FindByQuery(ctx context.Context, md *types.Metadata, collection string, q *query.Query) (*query.Result, error) {
	sql, params, err := c.findBySQL(md, collection, c.ConvertQueryToCriteria(q), q.Sort, q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	rows, err := c.selectRows(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	result := query.NewResult(q, rows)
	if q.CountFoundRows {
		total, err := c.CountFoundRows(ctx, sql, params)
		if err != nil {
			return nil, err
		}
		result.TotalRows = total
	}
	return result, nil
}

// FindCountByQuery counts the rows of collection matching q's conditions
func (c *Client) FindCountByQuery(ctx context.Context, md *types.Metadata, collection string, q *query.Query) (int64, error) {
	sql := "SELECT count(*) AS num FROM " + collection
	params := []any{}
	where, err := c.GenerateWhere(c.ConvertQueryToCriteria(q), "")
	if err != nil {
		return 0, err
	}
	if where != nil {
		sql += where.SQL
		params = where.Params
	}
	res, err := c.RawQuery(ctx, sql, params)
	if err != nil {
		return 0, err
	}
	return firstInt(res, "num"), nil
}
