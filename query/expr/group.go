package expr

// Group is an AND or OR composition of conditions
type Group struct {
	kind  Kind
	sep   string
	parts []Expr
}

var groupAllowed = map[Kind]bool{
	KindRaw:        true,
	KindComparison: true,
	KindAndx:       true,
	KindOrx:        true,
	KindFunc:       true,
}

// NewAndx creates an AND group from parts
func NewAndx(parts ...Expr) (*Group, error) {
	g := &Group{kind: KindAndx, sep: " AND "}
	if err := g.AddMultiple(parts...); err != nil {
		return nil, err
	}
	return g, nil
}

// NewOrx creates an OR group from parts
func NewOrx(parts ...Expr) (*Group, error) {
	g := &Group{kind: KindOrx, sep: " OR "}
	if err := g.AddMultiple(parts...); err != nil {
		return nil, err
	}
	return g, nil
}

// Kind implements Expr
func (g *Group) Kind() Kind { return g.kind }

// Add appends a part. Empty groups are skipped and single-part groups are unwrapped.
func (g *Group) Add(e Expr) error {
	if e == nil {
		return nil
	}
	if sub, ok := e.(*Group); ok {
		switch len(sub.parts) {
		case 0:
			return nil
		case 1:
			e = sub.parts[0]
		}
	}
	if !groupAllowed[e.Kind()] {
		return &InvalidKindError{Got: e.Kind(), List: g.kind}
	}
	g.parts = append(g.parts, e)
	return nil
}

// AddMultiple adds each part in order, stopping at the first error
func (g *Group) AddMultiple(parts ...Expr) error {
	for _, p := range parts {
		if err := g.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of parts
func (g *Group) Count() int { return len(g.parts) }

// Parts returns a copy of the parts
func (g *Group) Parts() []Expr { return append([]Expr(nil), g.parts...) }

func (g *Group) String() string {
	switch len(g.parts) {
	case 0:
		return ""
	case 1:
		return g.parts[0].String()
	}
	return join(g.parts, "(", g.sep, ")")
}

// Clone returns a deep copy of the group tree
func (g *Group) Clone() *Group {
	c := &Group{kind: g.kind, sep: g.sep, parts: make([]Expr, len(g.parts))}
	for i, p := range g.parts {
		if sub, ok := p.(*Group); ok {
			p = sub.Clone()
		}
		c.parts[i] = p
	}
	return c
}
