package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/criteria"
	"github.com/satishbabariya/docsql/query/executor"
	"github.com/satishbabariya/docsql/query/expr"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/registry"
	"github.com/satishbabariya/docsql/runtime/types"
)

type ManagerSuite struct {
	suite.Suite
	ctx context.Context
	m   *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	reg, err := registry.New(
		&types.Metadata{
			Name:       "Author",
			Collection: "authors",
			IDField:    "id",
			Fields: []types.Field{
				{Name: "id", Type: types.TypeInteger},
				{Name: "full_name", Property: "name"},
				{Name: "active", Type: types.TypeBoolean},
			},
			Relations: []types.Relation{
				{Property: "books", Kind: types.OneToMany, Document: "Book", Column: "book_ids"},
			},
		},
		&types.Metadata{
			Name:       "Book",
			Collection: "books",
			IDField:    "id",
			Fields:     []types.Field{{Name: "id", Type: types.TypeInteger}, {Name: "title"}},
		},
	)
	s.Require().NoError(err)

	m, err := Open(s.ctx, Config{
		Primary:   driver.Config{Provider: "sqlite", Database: ":memory:", MaxOpenConns: 1},
		CacheSize: 16,
	}, reg)
	s.Require().NoError(err)
	s.m = m

	for _, stmt := range []string{
		"CREATE TABLE authors (id INTEGER PRIMARY KEY AUTOINCREMENT, full_name TEXT, active INTEGER, book_ids TEXT)",
		"CREATE TABLE books (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT)",
		"INSERT INTO books (title) VALUES ('one'), ('two'), ('three')",
	} {
		_, err := m.Primary().RawQuery(s.ctx, stmt, nil)
		s.Require().NoError(err)
	}
}

func (s *ManagerSuite) TearDownTest() {
	s.Require().NoError(s.m.Close())
}

func (s *ManagerSuite) create(name string, active bool, books ...any) types.Document {
	doc, err := s.m.Create(s.ctx, "Author", types.Document{"name": name, "active": active, "books": books})
	s.Require().NoError(err)
	return doc
}

func (s *ManagerSuite) TestCreateAndFind() {
	doc := s.create("ann", true, 1, 3)
	s.Equal(int64(1), doc["id"])

	found, err := s.m.Find(s.ctx, "Author", 1)
	s.Require().NoError(err)
	author := found.(types.Document)
	s.Equal("ann", author["name"])
	s.Equal(true, author["active"])

	books := author["books"].([]types.Document)
	s.Require().Len(books, 2)
	s.Equal("three", books[0]["title"])
	s.Equal("one", books[1]["title"])

	missing, err := s.m.Find(s.ctx, "Author", 99)
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *ManagerSuite) TestFindByQuery() {
	s.create("ann", true)
	s.create("bob", false)
	s.create("cid", true)

	q := query.New().Where("active", 1).SortBy("full_name", -1).SetLimit(1).SetCountFoundRows(true)
	res, err := s.m.FindByQuery(s.ctx, "Author", q)
	s.Require().NoError(err)
	s.Equal(int64(2), res.TotalRows)
	s.Require().Len(res.Documents, 1)
	s.Equal("cid", res.Documents[0].(types.Document)["name"])

	_, err = s.m.FindByQuery(s.ctx, "Nope", q)
	s.ErrorIs(err, ErrUnknownDocument)
}

func (s *ManagerSuite) TestQueryBuilderResult() {
	s.create("ann", true)
	s.create("bob", false)

	c, err := s.m.CreateQueryBuilder().
		SelectDocument("Author", "a", "").
		Where(expr.Eq("a.active", ":active")).
		SetParameter("active", 1).
		OrderBy("a.id", expr.DESC).
		GetQuery()
	s.Require().NoError(err)

	res, err := c.SetCountFoundRows(true).GetResult(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), res.TotalRows)
	s.Require().Len(res.Documents, 1)
	s.Equal("ann", res.Documents[0].(types.Document)["name"])
}

func (s *ManagerSuite) TestCreateQueryNamedParameters() {
	s.create("ann", true)

	one, err := s.m.CreateQuery("SELECT full_name FROM authors WHERE id = :id AND active = :active").
		SetParameters(map[string]any{"id": 1, "active": 1}).
		GetOneResult(s.ctx)
	s.Require().NoError(err)
	s.Equal(query.Row{"full_name": "ann"}, one)
	s.Equal(1, s.m.Preparer().Stats().Size)
}

func (s *ManagerSuite) TestQueryClientDelegatesWithoutSQL() {
	s.create("ann", true)
	s.create("bob", true)

	q := query.New().Where("full_name", criteria.Ops{"$regex": "/^an/"})
	res, err := executor.NewQueryClient(s.m, q).GetResult(s.ctx, "Author")
	s.Require().NoError(err)
	s.Require().Len(res.Documents, 1)
	s.Equal("ann", res.Documents[0].(types.Document)["name"])
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func TestDocumentMapping(t *testing.T) {
	reg, err := registry.New(&types.Metadata{
		Name:       "User",
		Collection: "users",
		Fields:     []types.Field{{Name: "id"}, {Name: "city", Table: "addresses"}},
	})
	require.NoError(t, err)
	m := New(reg, nil, nil)

	c, ok := m.DocumentToCollection("User")
	assert.True(t, ok)
	assert.Equal(t, "users", c)
	assert.Equal(t, []types.Field{{Name: "id"}}, m.DocumentFields("User"))
	assert.Nil(t, m.DocumentFields("Nope"))
}
