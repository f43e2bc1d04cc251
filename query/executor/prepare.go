package executor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/satishbabariya/docsql/query/cache"
)

var namedParam = regexp.MustCompile(`(?i):([a-z0-9_][a-z0-9_.]*)`)

// Template is SQL with named placeholders replaced by ?, and the names in scan order
type Template struct {
	SQL   string
	Names []string
	// Distinct is the number of unique names
	Distinct int
}

// Compile scans sql for :name tokens. Tokens preceded by a word
// character or another colon (casts, times) are left alone.
func Compile(sql string) *Template {
	t := &Template{}
	seen := map[string]bool{}

	var b strings.Builder
	last := 0
	for _, loc := range namedParam.FindAllStringSubmatchIndex(sql, -1) {
		start := loc[0]
		if start > 0 && isWordOrColon(sql[start-1]) {
			continue
		}
		name := strings.TrimRight(sql[loc[2]:loc[3]], ".")
		end := loc[2] + len(name)

		b.WriteString(sql[last:start])
		b.WriteByte('?')
		last = end

		t.Names = append(t.Names, name)
		if !seen[name] {
			seen[name] = true
			t.Distinct++
		}
	}
	b.WriteString(sql[last:])
	t.SQL = b.String()
	return t
}

func isWordOrColon(c byte) bool {
	return c == ':' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Bind resolves the template's names against params
func (t *Template) Bind(params map[string]any) ([]any, error) {
	values := make([]any, 0, len(t.Names))
	for _, name := range t.Names {
		v, ok := params[name]
		if !ok {
			return nil, &UnknownParameterError{Name: name}
		}
		values = append(values, v)
	}
	if t.Distinct != len(params) {
		return nil, &ParameterCountError{Placeholders: t.Distinct, Params: len(params)}
	}
	return values, nil
}

// Preparer converts named parameters to positional ones, caching compiled templates
type Preparer struct {
	templates cache.Cache[*Template]
}

// NewPreparer creates a preparer caching up to size templates
func NewPreparer(size int) *Preparer {
	return &Preparer{templates: cache.NewLRU[*Template](size, 0)}
}

// DefaultPreparer is shared by query clients that were not given one
var DefaultPreparer = NewPreparer(512)

// Prepare returns sql with positional placeholders and the ordered values.
// params may be nil, []any or map[string]any.
func (p *Preparer) Prepare(sql string, params any) (string, []any, error) {
	switch v := params.(type) {
	case []any:
		if n := strings.Count(sql, "?"); n != len(v) {
			return "", nil, &ParameterCountError{Placeholders: n, Params: len(v)}
		}
		return sql, v, nil
	case nil:
		return p.prepareNamed(sql, map[string]any{})
	case map[string]any:
		return p.prepareNamed(sql, v)
	default:
		return "", nil, fmt.Errorf("%w: got %T", ErrUnsupportedParameters, params)
	}
}

func (p *Preparer) prepareNamed(sql string, params map[string]any) (string, []any, error) {
	key := cache.Fingerprint(sql)
	t, ok := p.templates.Get(key)
	if !ok {
		t = Compile(sql)
		p.templates.Set(key, t, 0)
	}
	values, err := t.Bind(params)
	if err != nil {
		return "", nil, err
	}
	return t.SQL, values, nil
}

// Stats returns the template cache statistics
func (p *Preparer) Stats() cache.Stats { return p.templates.Stats() }

// PrepareSQL prepares with the default preparer
func PrepareSQL(sql string, params any) (string, []any, error) {
	return DefaultPreparer.Prepare(sql, params)
}
