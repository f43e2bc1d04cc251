package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cast"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/runtime/types"
)

// Registry resolves document metadata by name
type Registry interface {
	Get(name string) (*types.Metadata, bool)
}

// Mapper hydrates rows into documents, loading related documents through the client
type Mapper struct {
	registry Registry
	client   *Client
	// maxGoroutines bounds relation loading per document, 0 is unbounded
	maxGoroutines int
}

// NewMapper creates a mapper
func NewMapper(registry Registry, c *Client) *Mapper {
	return &Mapper{registry: registry, client: c}
}

// WithMaxGoroutines bounds concurrent relation loads per document
func (m *Mapper) WithMaxGoroutines(n int) *Mapper {
	m.maxGoroutines = n
	return m
}

// ConvertToDB converts a document value to its stored form. Arrays and objects
// are stored as JSON, booleans as 1 or 0.
func ConvertToDB(typ types.FieldType, value any) any {
	switch types.FieldType(strings.ToLower(string(typ))) {
	case types.TypeArray, types.TypeObject:
		if value == nil || isScalar(value) {
			return value
		}
		return marshal(value)
	case types.TypeJSON:
		return marshal(value)
	case types.TypeBoolean:
		if cast.ToBool(value) {
			return 1
		}
		return 0
	}
	return value
}

func marshal(value any) any {
	b, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return string(b)
}

func isScalar(v any) bool {
	switch v.(type) {
	case bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// ConvertFromDB converts a stored value to its document form. JSON that does
// not parse becomes nil.
func ConvertFromDB(typ types.FieldType, value any) any {
	switch types.FieldType(strings.ToLower(string(typ))) {
	case types.TypeArray, types.TypeObject, types.TypeJSON:
		if value == nil {
			return nil
		}
		var out any
		if err := json.Unmarshal([]byte(cast.ToString(value)), &out); err != nil {
			return nil
		}
		return out
	case types.TypeBoolean:
		return cast.ToBool(value)
	case types.TypeInteger:
		if value == nil {
			return nil
		}
		return cast.ToInt64(value)
	case types.TypeFloat:
		if value == nil {
			return nil
		}
		return cast.ToFloat64(value)
	}
	return value
}

// RowFromDocument converts a document to a row ready for insert. Related
// documents are stored by id: one-to-one as the id, one-to-many as a JSON
// array of ids.
func (m *Mapper) RowFromDocument(md *types.Metadata, doc types.Document) query.Row {
	row := query.Row{}
	for _, f := range md.OwnFields(md.Collection) {
		if v, ok := doc[f.PropertyName()]; ok {
			row[f.Name] = ConvertToDB(f.Type, v)
		}
	}
	for _, r := range md.Relations {
		v, ok := doc[r.Property]
		if !ok || v == nil {
			continue
		}
		switch r.Kind {
		case types.OneToOne:
			if id := relatedID(v); id != nil {
				row[r.ColumnName()] = id
			}
		case types.OneToMany:
			ids := []any{}
			for _, item := range cast.ToSlice(v) {
				if id := relatedID(item); id != nil {
					ids = append(ids, id)
				}
			}
			row[r.ColumnName()] = marshal(ids)
		}
	}
	return row
}

func relatedID(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return t["id"]
	case types.Document:
		return t["id"]
	}
	if isScalar(v) {
		return v
	}
	return nil
}

// mapFields copies the document's fields out of row. Without declared fields
// every column is copied.
func mapFields(md *types.Metadata, row query.Row) types.Document {
	doc := types.Document{}
	if len(md.Fields) == 0 {
		for k, v := range row {
			doc[k] = v
		}
		return doc
	}
	for _, f := range md.Fields {
		if v, ok := row[f.Name]; ok {
			doc[f.PropertyName()] = ConvertFromDB(f.Type, v)
		}
	}
	return doc
}

// MapRowsToDocuments hydrates each row. It returns nil for no rows.
func (m *Mapper) MapRowsToDocuments(ctx context.Context, md *types.Metadata, rows []query.Row) ([]any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	docs := make([]any, 0, len(rows))
	for _, row := range rows {
		doc, err := m.MapRowToDocument(ctx, md, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type relationValue struct {
	property string
	value    any
}

// MapRowToDocument hydrates one row and loads its relations concurrently.
// Related documents are mapped without their own relations.
func (m *Mapper) MapRowToDocument(ctx context.Context, md *types.Metadata, row query.Row) (any, error) {
	doc := mapFields(md, row)
	if len(md.Relations) == 0 {
		return doc, nil
	}

	type load struct {
		relation types.Relation
		value    any
	}
	var loads []load
	for _, r := range md.Relations {
		if value, ok := row[r.ColumnName()]; ok && value != nil {
			loads = append(loads, load{relation: r, value: value})
		}
	}
	if len(loads) == 0 {
		return doc, nil
	}

	p := pool.NewWithResults[relationValue]().WithContext(ctx).WithCancelOnError()
	if m.maxGoroutines > 0 {
		p = p.WithMaxGoroutines(m.maxGoroutines)
	}
	for _, l := range loads {
		p.Go(func(ctx context.Context) (relationValue, error) {
			v, err := m.loadRelation(ctx, l.relation, l.value)
			return relationValue{property: l.relation.Property, value: v}, err
		})
	}
	values, err := p.Wait()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		doc[v.property] = v.value
	}
	return doc, nil
}

func (m *Mapper) loadRelation(ctx context.Context, r types.Relation, value any) (any, error) {
	if m.registry == nil {
		return nil, fmt.Errorf("no registry to resolve %s", r.Document)
	}
	related, ok := m.registry.Get(r.Document)
	if !ok {
		return nil, fmt.Errorf("unknown document %s for relation %s", r.Document, r.Property)
	}

	switch r.Kind {
	case types.OneToOne:
		row, err := m.client.Find(ctx, related, related.Collection, value)
		if err != nil || row == nil {
			return nil, err
		}
		return mapFields(related, row), nil

	case types.OneToMany:
		ids := relationIDs(value)
		if len(ids) == 0 {
			return nil, nil
		}
		idField := related.IDField
		if idField == "" {
			idField = "id"
		}
		rows, err := m.client.FindWhereIn(ctx, related, idField, ids, r.SortOrder(), 0)
		if err != nil || rows == nil {
			return nil, err
		}
		docs := make([]types.Document, len(rows))
		for i, row := range rows {
			docs[i] = mapFields(related, row)
		}
		return docs, nil
	}
	return nil, fmt.Errorf("unknown relation kind %q", r.Kind)
}

// relationIDs reads ids from a JSON array column or a slice
func relationIDs(value any) []any {
	if s, ok := value.(string); ok {
		var ids []any
		if err := json.Unmarshal([]byte(s), &ids); err != nil {
			return nil
		}
		value = ids
	}
	var out []any
	for _, item := range cast.ToSlice(value) {
		if id := relatedID(item); id != nil {
			out = append(out, id)
		}
	}
	return out
}

// ScanInto maps rows or documents onto structs. Columns match a field by its
// db tag, its name, or its name case-insensitively.
func ScanInto[T any, R ~map[string]any](rows []R) ([]T, error) {
	results := make([]T, 0, len(rows))
	for _, row := range rows {
		var result T
		val := reflect.ValueOf(&result).Elem()
		if val.Kind() != reflect.Struct {
			return nil, fmt.Errorf("scan target must be a struct, got %s", val.Kind())
		}
		typ := val.Type()
		for col, v := range row {
			field := findFieldByName(typ, col)
			if field.Name == "" || v == nil {
				continue
			}
			fv := val.FieldByIndex(field.Index)
			if !fv.CanSet() {
				continue
			}
			if err := setValue(fv, v); err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

var timeType = reflect.TypeOf(time.Time{})

func setValue(fv reflect.Value, v any) error {
	if fv.Type() == timeType {
		t, err := cast.ToTimeE(v)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		fv.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(v)
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(fv.Type()) {
			if rv.Type().ConvertibleTo(fv.Type()) {
				fv.Set(rv.Convert(fv.Type()))
				return nil
			}
			return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
		}
		fv.Set(rv)
	}
	return nil
}

// findFieldByName finds a struct field by database column name (db tag or field name)
func findFieldByName(typ reflect.Type, colName string) reflect.StructField {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Name == colName {
			return field
		}
		if dbTag := field.Tag.Get("db"); dbTag != "" {
			if name := strings.Split(dbTag, ",")[0]; name == colName {
				return field
			}
		}
		if strings.EqualFold(field.Name, colName) {
			return field
		}
	}
	return reflect.StructField{}
}
