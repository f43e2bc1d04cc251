package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparison(t *testing.T) {
	assert.Equal(t, "u.id = :id", Eq("u.id", ":id").String())
	assert.Equal(t, "a <> ?", Neq("a", "?").String())
	assert.Equal(t, "a >= 3", Gte("a", "3").String())

	c, err := NewComparison("a", LTE, "?")
	require.NoError(t, err)
	assert.Equal(t, "a <= ?", c.String())

	_, err = NewComparison("a", Operator("=="), "?")
	assert.ErrorIs(t, err, ErrInvalidOperator)
}

func TestGroupRendering(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Group, error)
		want  string
	}{
		{
			name:  "single part is unwrapped",
			build: func() (*Group, error) { return NewAndx(Eq("a", "?")) },
			want:  "a = ?",
		},
		{
			name:  "and joins with parens",
			build: func() (*Group, error) { return NewAndx(Eq("a", "?"), Raw("b IS NULL")) },
			want:  "(a = ? AND b IS NULL)",
		},
		{
			name:  "or joins with parens",
			build: func() (*Group, error) { return NewOrx(Eq("a", "1"), Eq("a", "2")) },
			want:  "(a = 1 OR a = 2)",
		},
		{
			name: "nested groups",
			build: func() (*Group, error) {
				or, err := NewOrx(Eq("a", "1"), Eq("a", "2"))
				if err != nil {
					return nil, err
				}
				return NewAndx(or, Eq("b", "3"))
			},
			want: "((a = 1 OR a = 2) AND b = 3)",
		},
		{
			name:  "function call allowed",
			build: func() (*Group, error) { return NewAndx(NewFunc("ISNULL", "x"), Eq("y", "?")) },
			want:  "(ISNULL(x) AND y = ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.String())
		})
	}
}

func TestGroupAddSkipsAndUnwraps(t *testing.T) {
	g, err := NewAndx()
	require.NoError(t, err)

	empty, _ := NewOrx()
	require.NoError(t, g.Add(empty))
	assert.Equal(t, 0, g.Count())

	single, _ := NewOrx(Eq("a", "1"))
	require.NoError(t, g.Add(single))
	require.Equal(t, 1, g.Count())
	assert.Equal(t, KindComparison, g.Parts()[0].Kind())

	require.NoError(t, g.Add(nil))
	assert.Equal(t, 1, g.Count())
}

func TestGroupRejectsDisallowedKinds(t *testing.T) {
	g, _ := NewAndx()

	err := g.Add(NewFrom("users", "u"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidExpressionKind))

	var kindErr *InvalidKindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, KindFrom, kindErr.Got)
	assert.Equal(t, KindAndx, kindErr.List)

	_, err = NewOrx(NewOrderBy("id", DESC))
	assert.ErrorIs(t, err, ErrInvalidExpressionKind)
}

func TestGroupClone(t *testing.T) {
	inner, _ := NewOrx(Eq("a", "1"), Eq("a", "2"))
	g, _ := NewAndx(inner, Eq("b", "3"))

	c := g.Clone()
	require.NoError(t, c.Add(Eq("c", "4")))

	assert.Equal(t, "((a = 1 OR a = 2) AND b = 3)", g.String())
	assert.Equal(t, "((a = 1 OR a = 2) AND b = 3 AND c = 4)", c.String())
}

func TestTables(t *testing.T) {
	assert.Equal(t, "users u", NewFrom("users", "u").String())
	assert.Equal(t, "users", NewFrom("users", "").String())
	assert.Equal(t, "users u USE INDEX (idx_email)", NewFrom("users", "u", UseIndex("idx_email")).String())

	f := NewFrom("users AS u", "")
	assert.Equal(t, "users", f.Table)
	assert.Equal(t, "u", f.Alias)

	j := NewJoin(LeftJoin, "posts", "p", Eq("p.user_id", "u.id"), UseIndex("(idx_user)"))
	assert.Equal(t, "LEFT JOIN posts p USE INDEX (idx_user) ON p.user_id = u.id", j.String())

	j = NewJoin(InnerJoin, "tags", "t", Raw("t.post_id = p.id"))
	assert.Equal(t, "INNER JOIN tags t ON t.post_id = p.id", j.String())
}

func TestLists(t *testing.T) {
	o := NewOrderBy("u.name", "")
	o.Add("u.id", DESC)
	assert.Equal(t, "u.name ASC, u.id DESC", o.String())

	g, err := NewGroupBy(Raw("u.id"), NewFunc("DATE", "u.created_at"))
	require.NoError(t, err)
	assert.Equal(t, "u.id, DATE(u.created_at)", g.String())

	s, err := NewSelect(Raw("u.id"), NewFunc("COUNT", "p.id"))
	require.NoError(t, err)
	assert.Equal(t, "u.id, COUNT(p.id)", s.String())

	_, err = NewSelect(Eq("a", "b"))
	assert.ErrorIs(t, err, ErrInvalidExpressionKind)

	assert.Equal(t, "a, b = c", NewLiteral(Raw("a"), Eq("b", "c")).String())
}

func TestMath(t *testing.T) {
	m := NewMath(NewMath(Raw("a"), "+", Raw("b")), "*", Raw("2"))
	assert.Equal(t, "(a + b) * 2", m.String())
}

func TestOf(t *testing.T) {
	e, err := Of("a = 1")
	require.NoError(t, err)
	assert.Equal(t, KindRaw, e.Kind())

	e, err = Of(nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	_, err = Of(42)
	assert.ErrorIs(t, err, ErrInvalidExpressionKind)
}
