package builder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidClausePart is returned when an unknown clause name is targeted
	ErrInvalidClausePart = errors.New("invalid query part")
	// ErrMissingClause is returned when UPDATE or DELETE lacks a required clause
	ErrMissingClause = errors.New("missing required clause")
	// ErrUnresolvedJoin is returned when a join's parent table cannot be determined
	ErrUnresolvedJoin = errors.New("unable to find joining table")
	// ErrUnknownDocument is returned when a document maps to no collection
	ErrUnknownDocument = errors.New("unable to map document to a known collection")
)

// InvalidPartError names the rejected clause
type InvalidPartError struct {
	Name string
}

func (e *InvalidPartError) Error() string {
	return fmt.Sprintf("%s %q", ErrInvalidClausePart, e.Name)
}

func (e *InvalidPartError) Unwrap() error { return ErrInvalidClausePart }

// MissingClauseError names the statement and the clause it lacks
type MissingClauseError struct {
	Statement Type
	Clause    string
}

func (e *MissingClauseError) Error() string {
	return fmt.Sprintf("cannot %s without a %s clause", strings.ToLower(string(e.Statement)), e.Clause)
}

func (e *MissingClauseError) Unwrap() error { return ErrMissingClause }

// UnresolvedJoinError names the table that could not be joined
type UnresolvedJoinError struct {
	Table  string
	Reason string
}

func (e *UnresolvedJoinError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s for %q: %s", ErrUnresolvedJoin, e.Table, e.Reason)
	}
	return fmt.Sprintf("%s for %q", ErrUnresolvedJoin, e.Table)
}

func (e *UnresolvedJoinError) Unwrap() error { return ErrUnresolvedJoin }

// UnknownDocumentError names a document without a collection
type UnknownDocumentError struct {
	Document string
}

func (e *UnknownDocumentError) Error() string {
	return fmt.Sprintf("unable to map %s to a known collection", e.Document)
}

func (e *UnknownDocumentError) Unwrap() error { return ErrUnknownDocument }
