package criteria

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateOperators(t *testing.T) {
	tests := []struct {
		name       string
		criteria   Criteria
		wantClause string
		wantParams []any
	}{
		{
			name:       "scalar equality",
			criteria:   Criteria{"id": 5},
			wantClause: "id = ?",
			wantParams: []any{5},
		},
		{
			name:       "comparison operators",
			criteria:   Criteria{"age": Ops{"gte": 18, "lt": 65}},
			wantClause: "age >= ? AND age < ?",
			wantParams: []any{18, 65},
		},
		{
			name:       "dollar prefixed operators",
			criteria:   Criteria{"age": map[string]any{"$gt": 1, "$ne": 3}},
			wantClause: "age > ? AND age != ?",
			wantParams: []any{1, 3},
		},
		{
			name:       "eq and equals",
			criteria:   Criteria{"a": Ops{"eq": 1}, "b": Ops{"equals": 2}},
			wantClause: "a = ? AND b = ?",
			wantParams: []any{1, 2},
		},
		{
			name:       "in list",
			criteria:   Criteria{"status": Ops{"in": []any{"a", "b", "c"}}},
			wantClause: "status in (?,?,?)",
			wantParams: []any{"a", "b", "c"},
		},
		{
			name:       "typed nin list",
			criteria:   Criteria{"id": Ops{"nin": []int{1, 2}}},
			wantClause: "id not in (?,?)",
			wantParams: []any{1, 2},
		},
		{
			name:       "empty in list drops the term",
			criteria:   Criteria{"id": Ops{"in": []any{}}, "name": "x"},
			wantClause: "name = ?",
			wantParams: []any{"x"},
		},
		{
			name:       "nil is null",
			criteria:   Criteria{"deleted_at": nil},
			wantClause: "deleted_at is null",
			wantParams: nil,
		},
		{
			// unrecognized operators fall back to equality
			name:       "unknown operator",
			criteria:   Criteria{"a": Ops{"near": 3}},
			wantClause: "a = ?",
			wantParams: []any{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Translate(tt.criteria)
			require.NoError(t, err)
			require.NotNil(t, w)
			assert.Equal(t, tt.wantClause, w.Clause)
			assert.Equal(t, " WHERE "+tt.wantClause, w.SQL)
			assert.Equal(t, tt.wantParams, w.Params)
		})
	}
}

func TestInPlaceholdersMatchValues(t *testing.T) {
	for n := 1; n <= 6; n++ {
		values := make([]any, n)
		for i := range values {
			values[i] = i
		}
		w, err := Translate(Criteria{"f": Ops{"in": values}})
		require.NoError(t, err)
		assert.Equal(t, n, strings.Count(w.Clause, "?"))
		assert.Equal(t, values, w.Params)
	}
}

func TestRegex(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"/^foo/", "foo%"},
		{"/bar$/", "%bar"},
		{"/baz/", "%baz%"},
		{"/^exact$/", "exact"},
		{"/Case/i", "%Case%"},
		{regexp.MustCompile("^pre"), "pre%"},
		{"plain", "%plain%"},
	}
	for _, tt := range tests {
		w, err := Translate(Criteria{"field": Ops{"regex": tt.value}})
		require.NoError(t, err)
		assert.Equal(t, "field like ?", w.Clause)
		assert.Equal(t, []any{tt.want}, w.Params)
	}
}

func TestPrefixes(t *testing.T) {
	c := Criteria{"a": 1}

	w, err := Translate(c, WithPrefix("SET"))
	require.NoError(t, err)
	assert.Equal(t, " SET a = ?", w.SQL)

	w, err = Translate(c, WithoutPrefix())
	require.NoError(t, err)
	assert.Equal(t, " a = ?", w.SQL)
}

func TestEmptyCriteria(t *testing.T) {
	w, err := Translate(nil)
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = Translate(Criteria{})
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = Translate(Criteria{"id": Ops{"in": []string{}}})
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestNotASequence(t *testing.T) {
	_, err := Translate(Criteria{"id": Ops{"in": 5}})
	assert.ErrorIs(t, err, ErrNotASequence)

	_, err = Translate(Criteria{"id": Ops{"nin": []byte("ab")}})
	assert.ErrorIs(t, err, ErrNotASequence)
}

func TestNilValueIsNull(t *testing.T) {
	w, err := Translate(Criteria{"deleted_at": nil, "name": "x", "age": Ops{"gt": 3}})
	require.NoError(t, err)
	assert.Equal(t, " WHERE age > ? AND deleted_at is null AND name = ?", w.SQL)
	assert.Equal(t, []any{3, "x"}, w.Params)
	assert.Equal(t, len(w.Params), strings.Count(w.Clause, "?"))

	terms, err := Terms(Criteria{"deleted_at": nil})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.True(t, terms[0].Null)
	assert.Empty(t, terms[0].Values)
}
