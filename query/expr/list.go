package expr

import "strings"

// Direction is an ORDER BY direction
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// OrderBy is a list of "column DIRECTION" terms
type OrderBy struct {
	terms []string
}

// NewOrderBy creates an ORDER BY with one term. Direction defaults to ASC.
func NewOrderBy(sort string, dir Direction) *OrderBy {
	o := &OrderBy{}
	return o.Add(sort, dir)
}

// Add appends a term
func (o *OrderBy) Add(sort string, dir Direction) *OrderBy {
	if dir == "" {
		dir = ASC
	}
	o.terms = append(o.terms, sort+" "+strings.ToUpper(string(dir)))
	return o
}

// Kind implements Expr
func (o *OrderBy) Kind() Kind { return KindOrderBy }

func (o *OrderBy) String() string { return strings.Join(o.terms, ", ") }

// list is a comma separated expression list with an allow-list
type list struct {
	kind    Kind
	allowed map[Kind]bool
	parts   []Expr
}

func (l *list) add(e Expr) error {
	if e == nil {
		return nil
	}
	if l.allowed != nil && !l.allowed[e.Kind()] {
		return &InvalidKindError{Got: e.Kind(), List: l.kind}
	}
	l.parts = append(l.parts, e)
	return nil
}

func (l *list) String() string { return join(l.parts, "", ", ", "") }

// Count returns the number of parts
func (l *list) Count() int { return len(l.parts) }

// GroupBy is a list of grouping columns or expressions
type GroupBy struct{ list }

// NewGroupBy creates a GROUP BY list
func NewGroupBy(parts ...Expr) (*GroupBy, error) {
	g := &GroupBy{list{kind: KindGroupBy, allowed: map[Kind]bool{KindRaw: true, KindFunc: true, KindMath: true}}}
	for _, p := range parts {
		if err := g.add(p); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add appends a part
func (g *GroupBy) Add(e Expr) error { return g.add(e) }

// Kind implements Expr
func (g *GroupBy) Kind() Kind { return KindGroupBy }

// Select is the selected column list
type Select struct{ list }

// NewSelect creates a select list
func NewSelect(parts ...Expr) (*Select, error) {
	s := &Select{list{kind: KindSelect, allowed: map[Kind]bool{KindRaw: true, KindFunc: true, KindMath: true}}}
	for _, p := range parts {
		if err := s.add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a part
func (s *Select) Add(e Expr) error { return s.add(e) }

// Kind implements Expr
func (s *Select) Kind() Kind { return KindSelect }

// Literal is a comma separated list of arbitrary fragments
type Literal struct{ list }

// NewLiteral creates a literal list
func NewLiteral(parts ...Expr) *Literal {
	l := &Literal{list{kind: KindLiteral}}
	for _, p := range parts {
		_ = l.add(p)
	}
	return l
}

// Kind implements Expr
func (l *Literal) Kind() Kind { return KindLiteral }

// Func is a function call such as COUNT(id)
type Func struct {
	Name string
	Args []string
}

// NewFunc creates a function call
func NewFunc(name string, args ...string) *Func {
	return &Func{Name: name, Args: args}
}

// Kind implements Expr
func (f *Func) Kind() Kind { return KindFunc }

func (f *Func) String() string {
	return f.Name + "(" + strings.Join(f.Args, ", ") + ")"
}

// Math is an arithmetic expression. Nested Math operands are parenthesized.
type Math struct {
	Left  Expr
	Op    string
	Right Expr
}

// NewMath creates an arithmetic expression
func NewMath(left Expr, op string, right Expr) *Math {
	return &Math{Left: left, Op: op, Right: right}
}

// Kind implements Expr
func (m *Math) Kind() Kind { return KindMath }

func (m *Math) String() string {
	return operand(m.Left) + " " + m.Op + " " + operand(m.Right)
}

func operand(e Expr) string {
	if e.Kind() == KindMath {
		return "(" + e.String() + ")"
	}
	return e.String()
}
