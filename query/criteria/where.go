package criteria

import "strings"

// Where is a translated WHERE clause with its positional parameters
type Where struct {
	// SQL is the clause with its prefix and a leading space, e.g. " WHERE a = ?"
	SQL string
	// Clause is the joined conditions without prefix
	Clause string
	Params []any
}

type options struct {
	prefix string
}

// Option configures Translate
type Option func(*options)

// WithPrefix renders the clause after the given keyword instead of WHERE
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithoutPrefix renders the clause with no keyword
func WithoutPrefix() Option {
	return func(o *options) { o.prefix = "" }
}

// Translate builds a positional WHERE clause from criteria. It returns nil
// when the criteria produce no condition.
func Translate(c Criteria, opts ...Option) (*Where, error) {
	o := options{prefix: "WHERE"}
	for _, opt := range opts {
		opt(&o)
	}

	if len(c) == 0 {
		return nil, nil
	}
	terms, err := Terms(c)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}

	parts := make([]string, 0, len(terms))
	var params []any
	for _, t := range terms {
		marks := make([]string, len(t.Values))
		for i := range marks {
			marks[i] = "?"
		}
		parts = append(parts, t.Render(marks))
		params = append(params, t.Values...)
	}

	w := &Where{Clause: strings.Join(parts, " AND "), Params: params}
	if o.prefix != "" {
		w.SQL = " " + o.prefix + " " + w.Clause
	} else {
		w.SQL = " " + w.Clause
	}
	return w, nil
}
