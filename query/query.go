// Package query provides the declarative query descriptor and the result
// container shared by the builder and the execution client.
package query

import (
	"github.com/satishbabariya/docsql/query/criteria"
)

// Row is a single result row keyed by column name
type Row map[string]any

// SortField orders by Field. Direction -1 sorts descending, anything else ascending.
type SortField struct {
	Field     string
	Direction int
}

// Sort is an ordered list of sort fields
type Sort []SortField

// Desc reports whether the field sorts descending
func (f SortField) Desc() bool { return f.Direction == -1 }

// Query describes conditions, sort, paging and found-row counting
// independently of any SQL text.
type Query struct {
	Conditions     criteria.Criteria
	Sort           Sort
	Skip           int
	Limit          int
	CountFoundRows bool
	// ConditionAlias prefixes sort fields when merged into raw SQL
	ConditionAlias string
}

// New creates an empty query
func New() *Query {
	return &Query{Conditions: criteria.Criteria{}}
}

// Where sets a condition on field
func (q *Query) Where(field string, value any) *Query {
	if q.Conditions == nil {
		q.Conditions = criteria.Criteria{}
	}
	q.Conditions[field] = value
	return q
}

// SortBy appends a sort field
func (q *Query) SortBy(field string, direction int) *Query {
	q.Sort = append(q.Sort, SortField{Field: field, Direction: direction})
	return q
}

// SetSkip sets the number of rows to skip
func (q *Query) SetSkip(skip int) *Query {
	q.Skip = skip
	return q
}

// SetLimit sets the maximum number of rows
func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// SetCountFoundRows requests a total row count alongside the page
func (q *Query) SetCountFoundRows(count bool) *Query {
	q.CountFoundRows = count
	return q
}

// Clone returns a copy that can be modified independently
func (q *Query) Clone() *Query {
	c := *q
	c.Conditions = make(criteria.Criteria, len(q.Conditions))
	for k, v := range q.Conditions {
		c.Conditions[k] = v
	}
	c.Sort = append(Sort(nil), q.Sort...)
	return &c
}

// Result holds the rows of an executed query and, when mapped, the documents
type Result struct {
	Query     *Query
	Rows      []Row
	Documents []any
	RawData   any
	TotalRows int64
}

// NewResult creates a result for q
func NewResult(q *Query, rows []Row) *Result {
	return &Result{Query: q, Rows: rows}
}

// Len returns the number of documents when mapped, otherwise the number of rows
func (r *Result) Len() int {
	if r.Documents != nil {
		return len(r.Documents)
	}
	return len(r.Rows)
}

// First returns the first document when mapped, otherwise the first row, or nil
func (r *Result) First() any {
	if r.Documents != nil {
		if len(r.Documents) == 0 {
			return nil
		}
		return r.Documents[0]
	}
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}
