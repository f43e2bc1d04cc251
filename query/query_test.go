package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryClone(t *testing.T) {
	q := New().Where("status", "active").SortBy("id", -1).SetLimit(10).SetSkip(20)
	c := q.Clone()
	c.Where("role", "admin").SortBy("name", 1)

	assert.Len(t, q.Conditions, 1)
	assert.Len(t, q.Sort, 1)
	assert.True(t, q.Sort[0].Desc())
	assert.Len(t, c.Conditions, 2)
	assert.Equal(t, 10, c.Limit)
}

func TestResultFirst(t *testing.T) {
	r := NewResult(nil, []Row{{"id": 1}, {"id": 2}})
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, Row{"id": 1}, r.First())

	r.Documents = []any{}
	assert.Nil(t, r.First())
	assert.Equal(t, 0, r.Len())
}
