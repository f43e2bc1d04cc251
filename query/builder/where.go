package builder

import (
	"github.com/satishbabariya/docsql/query/criteria"
	"github.com/satishbabariya/docsql/query/expr"
)

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case criteria.Criteria:
		return m, true
	}
	return nil, false
}

// mapConditions turns {"k": v} into "k = :k" comparisons and binds v.
// Values that are already expressions are used as they are.
func (b *QueryBuilder) mapConditions(m map[string]any) []expr.Expr {
	out := make([]expr.Expr, 0, len(m))
	for _, k := range sortedKeys(m) {
		switch v := m[k].(type) {
		case *expr.Comparison, *expr.Group, *expr.Func:
			out = append(out, v.(expr.Expr))
		default:
			out = append(out, expr.Eq(k, ":"+k))
			b.SetParameter(k, v)
		}
	}
	return out
}

// conditions converts arguments into condition expressions. The second
// result is false when a single empty map was given.
func (b *QueryBuilder) conditions(args []any) ([]expr.Expr, bool) {
	if len(args) == 1 {
		if m, ok := asMap(args[0]); ok {
			if len(m) == 0 {
				return nil, false
			}
			return b.mapConditions(m), true
		}
	}
	parts, ok := b.exprs(args)
	if !ok || len(parts) == 0 {
		return nil, false
	}
	return parts, true
}

// Where replaces the WHERE clause. Several arguments are combined with AND;
// a map binds "key = :key" for each entry.
func (b *QueryBuilder) Where(args ...any) *QueryBuilder {
	return b.replaceCondition(PartWhere, args)
}

// AndWhere combines the WHERE clause with args using AND
func (b *QueryBuilder) AndWhere(args ...any) *QueryBuilder {
	return b.combine(PartWhere, expr.KindAndx, args)
}

// OrWhere combines the WHERE clause with args using OR
func (b *QueryBuilder) OrWhere(args ...any) *QueryBuilder {
	return b.combine(PartWhere, expr.KindOrx, args)
}

// Having replaces the HAVING clause
func (b *QueryBuilder) Having(args ...any) *QueryBuilder {
	return b.replaceCondition(PartHaving, args)
}

// AndHaving combines the HAVING clause with args using AND
func (b *QueryBuilder) AndHaving(args ...any) *QueryBuilder {
	return b.combine(PartHaving, expr.KindAndx, args)
}

// OrHaving combines the HAVING clause with args using OR
func (b *QueryBuilder) OrHaving(args ...any) *QueryBuilder {
	return b.combine(PartHaving, expr.KindOrx, args)
}

func (b *QueryBuilder) replaceCondition(part string, args []any) *QueryBuilder {
	parts, ok := b.conditions(args)
	if !ok {
		return b
	}
	if len(parts) == 1 {
		return b.Add(part, parts[0], false)
	}
	g, err := expr.NewAndx(parts...)
	if err != nil {
		return b.fail(err)
	}
	return b.Add(part, g, false)
}

func newGroup(kind expr.Kind, parts ...expr.Expr) (*expr.Group, error) {
	if kind == expr.KindOrx {
		return expr.NewOrx(parts...)
	}
	return expr.NewAndx(parts...)
}

// combine merges args into the clause. An existing group of the same kind
// is extended instead of nested.
func (b *QueryBuilder) combine(part string, kind expr.Kind, args []any) *QueryBuilder {
	parts, ok := b.conditions(args)
	if !ok {
		return b
	}

	var existing expr.Expr
	if cur := b.parts[part]; len(cur) > 0 {
		existing = cur[0]
	}

	var g *expr.Group
	var err error
	if cur, isGroup := existing.(*expr.Group); isGroup && cur.Kind() == kind {
		g = cur.Clone()
		err = g.AddMultiple(flatten(kind, parts)...)
	} else {
		g, err = newGroup(kind, append([]expr.Expr{existing}, flatten(kind, parts)...)...)
	}
	if err != nil {
		return b.fail(err)
	}
	return b.Add(part, g, false)
}

func flatten(kind expr.Kind, parts []expr.Expr) []expr.Expr {
	out := make([]expr.Expr, 0, len(parts))
	for _, p := range parts {
		if g, ok := p.(*expr.Group); ok && g.Kind() == kind {
			out = append(out, g.Parts()...)
			continue
		}
		out = append(out, p)
	}
	return out
}
