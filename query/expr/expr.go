// Package expr provides the SQL fragment model used by the query builder.
package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the variant of an expression node
type Kind int

const (
	// KindRaw is a plain SQL fragment supplied as a string
	KindRaw Kind = iota
	KindComparison
	KindAndx
	KindOrx
	KindFrom
	KindJoin
	KindOrderBy
	KindGroupBy
	KindFunc
	KindSelect
	KindLiteral
	KindMath
)

var kindNames = map[Kind]string{
	KindRaw:        "Raw",
	KindComparison: "Comparison",
	KindAndx:       "Andx",
	KindOrx:        "Orx",
	KindFrom:       "From",
	KindJoin:       "Join",
	KindOrderBy:    "OrderBy",
	KindGroupBy:    "GroupBy",
	KindFunc:       "Func",
	KindSelect:     "Select",
	KindLiteral:    "Literal",
	KindMath:       "Math",
}

// String returns the name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Expr is a node that renders to a SQL fragment
type Expr interface {
	Kind() Kind
	String() string
}

// Raw is an unvalidated SQL fragment
type Raw string

// Kind implements Expr
func (Raw) Kind() Kind { return KindRaw }

func (r Raw) String() string { return string(r) }

var (
	// ErrInvalidExpressionKind is returned when a node of a disallowed kind is added to a list
	ErrInvalidExpressionKind = errors.New("invalid expression kind")
	// ErrInvalidOperator is returned for comparison operators outside the supported set
	ErrInvalidOperator = errors.New("invalid comparison operator")
)

// InvalidKindError reports which kind was rejected by which list
type InvalidKindError struct {
	Got  Kind
	List Kind
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("%s: %s is not allowed in %s", ErrInvalidExpressionKind, e.Got, e.List)
}

func (e *InvalidKindError) Unwrap() error { return ErrInvalidExpressionKind }

// Of converts a value to an expression. Strings become Raw fragments.
func Of(v any) (Expr, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Expr:
		return t, nil
	case string:
		return Raw(t), nil
	case fmt.Stringer:
		return Raw(t.String()), nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as an expression", ErrInvalidExpressionKind, v)
	}
}

// join renders parts between pre and post separated by sep
func join(parts []Expr, pre, sep, post string) string {
	strs := make([]string, 0, len(parts))
	for _, p := range parts {
		strs = append(strs, p.String())
	}
	return pre + strings.Join(strs, sep) + post
}
