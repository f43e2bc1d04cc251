package expr

import "strings"

// TableRef names a table with an optional alias and MySQL index hint
type TableRef struct {
	Table string
	Alias string
	Index string
}

// TableOption configures a TableRef
type TableOption func(*TableRef)

// UseIndex adds a "USE INDEX" hint
func UseIndex(index string) TableOption {
	return func(t *TableRef) { t.Index = index }
}

func (t TableRef) render() string {
	var b strings.Builder
	b.WriteString(t.Table)
	if t.Alias != "" {
		b.WriteString(" " + t.Alias)
	}
	if t.Index != "" {
		idx := t.Index
		if !strings.HasPrefix(idx, "(") {
			idx = "(" + idx + ")"
		}
		b.WriteString(" USE INDEX " + idx)
	}
	return b.String()
}

// FromRef is a FROM clause table
type FromRef struct {
	TableRef
}

// NewFrom creates a FROM table. A table of the form "users u" or
// "users AS u" is split into table and alias when alias is empty.
func NewFrom(table, alias string, opts ...TableOption) *FromRef {
	if alias == "" {
		table, alias = splitAlias(table)
	}
	f := &FromRef{TableRef{Table: table, Alias: alias}}
	for _, opt := range opts {
		opt(&f.TableRef)
	}
	return f
}

// Kind implements Expr
func (f *FromRef) Kind() Kind { return KindFrom }

func (f *FromRef) String() string { return f.render() }

// JoinType is INNER or LEFT
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
)

// JoinRef is a joined table with its ON condition
type JoinRef struct {
	TableRef
	Type      JoinType
	Condition Expr
}

// NewJoin creates a join
func NewJoin(typ JoinType, table, alias string, condition Expr, opts ...TableOption) *JoinRef {
	j := &JoinRef{TableRef: TableRef{Table: table, Alias: alias}, Type: typ, Condition: condition}
	for _, opt := range opts {
		opt(&j.TableRef)
	}
	return j
}

// Kind implements Expr
func (j *JoinRef) Kind() Kind { return KindJoin }

func (j *JoinRef) String() string {
	str := strings.ToUpper(string(j.Type)) + " JOIN " + j.render()
	if j.Condition != nil {
		str += " ON " + j.Condition.String()
	}
	return str
}

func splitAlias(table string) (string, string) {
	fields := strings.Fields(table)
	switch {
	case len(fields) == 2:
		return fields[0], fields[1]
	case len(fields) == 3 && strings.EqualFold(fields[1], "as"):
		return fields[0], fields[2]
	}
	return strings.TrimSpace(table), ""
}
