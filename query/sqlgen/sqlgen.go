// Package sqlgen provides per-provider SQL dialect details.
package sqlgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// ErrLocksUnsupported is returned by dialects without table locks
var ErrLocksUnsupported = errors.New("table locks are not supported by this provider")

// Lock is a table lock request. Type defaults to WRITE.
type Lock struct {
	Collection string
	Type       string
}

// Dialect renders the provider specific parts of a statement
type Dialect interface {
	// Name returns the provider name
	Name() string
	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string
	// Rebind converts ? placeholders to the provider's bind syntax
	Rebind(sql string) string
	// Insert renders an INSERT for columns with ? placeholders
	Insert(table string, columns []string, idField string) string
	// LockTables renders a statement locking the given tables
	LockTables(locks []Lock) (string, error)
	// UnlockTables renders the release statement, empty when locks end with the transaction
	UnlockTables() string
}

// For returns the dialect for a provider name
func For(provider string) (Dialect, error) {
	switch provider {
	case "mysql":
		return MySQL{}, nil
	case "postgresql", "postgres":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// MySQL dialect
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Rebind(sql string) string { return sql }

// Insert renders INSERT ... SET col = ?, ...
func (d MySQL) Insert(table string, columns []string, _ string) string {
	sets := make([]string, len(columns))
	for i, col := range columns {
		sets[i] = col + " = ?"
	}
	return "INSERT INTO " + table + " SET " + strings.Join(sets, ", ")
}

func (MySQL) LockTables(locks []Lock) (string, error) {
	parts, err := lockParts(locks)
	if err != nil {
		return "", err
	}
	return "LOCK TABLES " + strings.Join(parts, ", "), nil
}

func (MySQL) UnlockTables() string { return "UNLOCK TABLES" }

// Postgres dialect
type Postgres struct{}

func (Postgres) Name() string { return "postgresql" }

func (Postgres) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

// Rebind replaces ? with $1, $2, ... outside of quoted strings
func (Postgres) Rebind(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteString("$" + strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Insert renders INSERT ... VALUES with RETURNING for the id field
func (Postgres) Insert(table string, columns []string, idField string) string {
	sql := valuesInsert(table, columns)
	if idField != "" {
		sql += " RETURNING " + idField
	}
	return sql
}

// LockTables renders LOCK TABLE, which only holds inside a transaction
func (Postgres) LockTables(locks []Lock) (string, error) {
	if len(locks) == 0 {
		return "", fmt.Errorf("%w: no tables", ErrInvalidLock)
	}
	tables := make([]string, 0, len(locks))
	mode := "SHARE"
	for _, l := range locks {
		if l.Collection == "" {
			return "", fmt.Errorf("%w: missing collection", ErrInvalidLock)
		}
		tables = append(tables, l.Collection)
		if lockType(l) == "WRITE" {
			mode = "ACCESS EXCLUSIVE"
		}
	}
	return "LOCK TABLE " + strings.Join(tables, ", ") + " IN " + mode + " MODE", nil
}

func (Postgres) UnlockTables() string { return "" }

// SQLite dialect
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Rebind(sql string) string { return sql }

func (SQLite) Insert(table string, columns []string, _ string) string {
	return valuesInsert(table, columns)
}

func (SQLite) LockTables([]Lock) (string, error) { return "", ErrLocksUnsupported }

func (SQLite) UnlockTables() string { return "" }

// ErrInvalidLock is returned for lock requests without a table
var ErrInvalidLock = errors.New("invalid table lock")

func valuesInsert(table string, columns []string) string {
	if len(columns) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}
	marks := make([]string, len(columns))
	for i := range marks {
		marks[i] = "?"
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

func lockType(l Lock) string {
	if l.Type == "" {
		return "WRITE"
	}
	return strings.ToUpper(l.Type)
}

func lockParts(locks []Lock) ([]string, error) {
	if len(locks) == 0 {
		return nil, fmt.Errorf("%w: no tables", ErrInvalidLock)
	}
	parts := make([]string, 0, len(locks))
	for _, l := range locks {
		if l.Collection == "" {
			return nil, fmt.Errorf("%w: missing collection", ErrInvalidLock)
		}
		parts = append(parts, l.Collection+" "+lockType(l))
	}
	return parts, nil
}

// ParseLock parses "table" or "table READ"
func ParseLock(s string) Lock {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return Lock{}
	case 1:
		return Lock{Collection: fields[0]}
	default:
		return Lock{Collection: fields[0], Type: fields[1]}
	}
}
