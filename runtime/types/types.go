// Package types provides the document metadata consumed by the runtime.
package types

import (
	"github.com/satishbabariya/docsql/query"
)

// FieldType is the declared storage type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeJSON    FieldType = "json"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Field maps a document property to a column
type Field struct {
	// Name is the column name
	Name string `mapstructure:"name"`
	// Property is the document key, defaulting to Name
	Property string `mapstructure:"property"`
	// Table qualifies a column that belongs to another table
	Table string    `mapstructure:"table"`
	Type  FieldType `mapstructure:"type"`
}

// PropertyName returns Property, falling back to Name
func (f Field) PropertyName() string {
	if f.Property != "" {
		return f.Property
	}
	return f.Name
}

// RelationKind is one-to-one or one-to-many
type RelationKind string

const (
	OneToOne  RelationKind = "one-to-one"
	OneToMany RelationKind = "one-to-many"
)

// Relation references another document through a column holding its id(s)
type Relation struct {
	Property string       `mapstructure:"property"`
	Kind     RelationKind `mapstructure:"kind"`
	Document string       `mapstructure:"document"`
	// Column holds the related id, or a JSON array of ids for one-to-many
	Column    string `mapstructure:"column"`
	Sort      string `mapstructure:"sort"`
	Direction string `mapstructure:"direction"`
}

// ColumnName returns the column holding the relation, defaulting to Property
func (r Relation) ColumnName() string {
	if r.Column != "" {
		return r.Column
	}
	return r.Property
}

// SortOrder returns the relation sort, defaulting to id descending
func (r Relation) SortOrder() query.Sort {
	if r.Sort == "" || r.Direction == "" {
		return query.Sort{{Field: "id", Direction: -1}}
	}
	dir := 1
	if r.Direction == "desc" || r.Direction == "DESC" {
		dir = -1
	}
	return query.Sort{{Field: r.Sort, Direction: dir}}
}

// Metadata describes how a document is stored
type Metadata struct {
	Name       string     `mapstructure:"name"`
	Collection string     `mapstructure:"collection"`
	IDField    string     `mapstructure:"id"`
	Fields     []Field    `mapstructure:"fields"`
	Relations  []Relation `mapstructure:"relations"`
}

// OwnFields returns the fields stored in the document's own collection
func (m *Metadata) OwnFields(collection string) []Field {
	var out []Field
	for _, f := range m.Fields {
		if f.Table == "" || f.Table == collection {
			out = append(out, f)
		}
	}
	return out
}

// SelectFields returns OwnFields plus a field for every relation column that
// is not declared as a field.
func (m *Metadata) SelectFields(collection string) []Field {
	out := m.OwnFields(collection)
	for _, r := range m.Relations {
		col := r.ColumnName()
		if _, ok := m.FieldByName(col); !ok {
			out = append(out, Field{Name: col})
		}
	}
	return out
}

// FieldByProperty finds a field by its document key
func (m *Metadata) FieldByProperty(property string) (Field, bool) {
	for _, f := range m.Fields {
		if f.PropertyName() == property {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByName finds a field by its column name
func (m *Metadata) FieldByName(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Document is a hydrated document keyed by property name
type Document map[string]any
