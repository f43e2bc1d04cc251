package expr

import (
	"fmt"
	"strings"
)

// Operator is a binary comparison operator
type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	LT  Operator = "<"
	LTE Operator = "<="
	GT  Operator = ">"
	GTE Operator = ">="
)

// Valid reports whether op is one of the supported operators
func (op Operator) Valid() bool {
	switch op {
	case EQ, NEQ, LT, LTE, GT, GTE:
		return true
	}
	return false
}

// Comparison is "left op right". Operands are rendered verbatim and are
// expected to be column references or placeholders.
type Comparison struct {
	Left  string
	Op    Operator
	Right string
}

// NewComparison creates a comparison, rejecting unsupported operators
func NewComparison(left string, op Operator, right string) (*Comparison, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, string(op))
	}
	return &Comparison{Left: left, Op: op, Right: right}, nil
}

// Eq creates "left = right"
func Eq(left, right string) *Comparison { return &Comparison{Left: left, Op: EQ, Right: right} }

// Neq creates "left <> right"
func Neq(left, right string) *Comparison { return &Comparison{Left: left, Op: NEQ, Right: right} }

// Lt creates "left < right"
func Lt(left, right string) *Comparison { return &Comparison{Left: left, Op: LT, Right: right} }

// Lte creates "left <= right"
func Lte(left, right string) *Comparison { return &Comparison{Left: left, Op: LTE, Right: right} }

// Gt creates "left > right"
func Gt(left, right string) *Comparison { return &Comparison{Left: left, Op: GT, Right: right} }

// Gte creates "left >= right"
func Gte(left, right string) *Comparison { return &Comparison{Left: left, Op: GTE, Right: right} }

// Kind implements Expr
func (c *Comparison) Kind() Kind { return KindComparison }

func (c *Comparison) String() string {
	return c.Left + " " + string(c.Op) + " " + c.Right
}

// IsNull renders "x IS NULL"
func IsNull(x string) Raw { return Raw(x + " IS NULL") }

// IsNotNull renders "x IS NOT NULL"
func IsNotNull(x string) Raw { return Raw(x + " IS NOT NULL") }

// In renders "x IN (a, b)"
func In(x string, values ...string) Raw {
	return Raw(x + " IN (" + strings.Join(values, ", ") + ")")
}

// NotIn renders "x NOT IN (a, b)"
func NotIn(x string, values ...string) Raw {
	return Raw(x + " NOT IN (" + strings.Join(values, ", ") + ")")
}

// Like renders "x LIKE pattern"
func Like(x, pattern string) Raw { return Raw(x + " LIKE " + pattern) }
