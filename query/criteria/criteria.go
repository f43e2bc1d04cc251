// Package criteria translates declarative condition maps into SQL WHERE fragments.
package criteria

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Criteria maps a field to a scalar (equality), nil (IS NULL) or an
// operator map such as Ops{"in": []any{1, 2}}.
type Criteria map[string]any

// Ops maps an operator name to its operand
type Ops map[string]any

// Operator names understood by the translator. A leading "$" is accepted.
const (
	OpEq     = "eq"
	OpEquals = "equals"
	OpGt     = "gt"
	OpGte    = "gte"
	OpLt     = "lt"
	OpLte    = "lte"
	OpNe     = "ne"
	OpIn     = "in"
	OpNin    = "nin"
	OpRegex  = "regex"
)

var sqlOperators = map[string]string{
	OpEq:     "=",
	OpEquals: "=",
	OpGt:     ">",
	OpGte:    ">=",
	OpLt:     "<",
	OpLte:    "<=",
	OpNe:     "!=",
	OpIn:     "in",
	OpNin:    "not in",
	OpRegex:  "like",
}

var (
	// ErrNotASequence is returned when in/nin receives a non-slice value
	ErrNotASequence = errors.New("criteria: in/nin value must be a sequence")
)

// Term is one translated field condition
type Term struct {
	Field string
	// Op is the SQL operator: =, >, >=, <, <=, !=, in, not in, like
	Op string
	// Values holds one value, or one per element for in/not in
	Values []any
	// Null is set for a nil scalar, rendered as IS NULL without a value
	Null bool
}

// Terms converts criteria into terms, visiting fields and operators in sorted order.
// Unknown operators fall back to equality. Empty in/nin sequences produce no term.
func Terms(c Criteria) ([]Term, error) {
	fields := make([]string, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var terms []Term
	for _, field := range fields {
		ops, ok := asOps(c[field])
		if !ok {
			if c[field] == nil {
				terms = append(terms, Term{Field: field, Op: "is", Null: true})
				continue
			}
			terms = append(terms, Term{Field: field, Op: "=", Values: []any{c[field]}})
			continue
		}

		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := ops[name]
			key := strings.TrimPrefix(name, "$")
			op, known := sqlOperators[key]
			if !known {
				op = "="
			}

			switch key {
			case OpIn, OpNin:
				values, err := toSlice(value)
				if err != nil {
					return nil, fmt.Errorf("%w: field %q", err, field)
				}
				if len(values) == 0 {
					continue
				}
				terms = append(terms, Term{Field: field, Op: op, Values: values})
			case OpRegex:
				terms = append(terms, Term{Field: field, Op: op, Values: []any{NormalizeRegex(value)}})
			default:
				terms = append(terms, Term{Field: field, Op: op, Values: []any{value}})
			}
		}
	}
	return terms, nil
}

// Render returns the SQL for a term using the given placeholders, one per value
func (t Term) Render(placeholders []string) string {
	switch {
	case t.Null:
		return t.Field + " is null"
	case t.Op == "in" || t.Op == "not in":
		return t.Field + " " + t.Op + " (" + strings.Join(placeholders, ",") + ")"
	default:
		return t.Field + " " + t.Op + " " + placeholders[0]
	}
}

func asOps(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Ops:
		return t, true
	case map[string]any:
		return t, true
	}
	return nil, false
}

func toSlice(v any) ([]any, error) {
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, ErrNotASequence
	}
	// []byte is a scalar value for drivers
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, ErrNotASequence
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

var regexDelims = regexp.MustCompile(`^/(.*)/[a-z]*$`)

// NormalizeRegex turns a regex into a LIKE pattern. A leading ^ drops the
// leading %, a trailing $ drops the trailing %.
func NormalizeRegex(v any) string {
	var pattern string
	switch t := v.(type) {
	case *regexp.Regexp:
		pattern = t.String()
	case string:
		pattern = t
	default:
		pattern = fmt.Sprint(v)
	}
	if m := regexDelims.FindStringSubmatch(pattern); m != nil {
		pattern = m[1]
	}

	if strings.HasPrefix(pattern, "^") {
		pattern = pattern[1:]
	} else {
		pattern = "%" + pattern
	}
	if strings.HasSuffix(pattern, "$") {
		pattern = pattern[:len(pattern)-1]
	} else {
		pattern += "%"
	}
	return pattern
}
