package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/criteria"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/types"
)

type SQLiteClientSuite struct {
	suite.Suite
	ctx    context.Context
	conn   *driver.SQLConn
	client *Client
	md     *types.Metadata
}

func (s *SQLiteClientSuite) SetupTest() {
	s.ctx = context.Background()
	conn, err := driver.Open(s.ctx, driver.Config{Provider: "sqlite", Database: ":memory:", MaxOpenConns: 1})
	s.Require().NoError(err)
	s.conn = conn
	s.client = New(conn, conn.Dialect())
	s.md = &types.Metadata{
		Name:       "User",
		Collection: "users",
		IDField:    "id",
		Fields:     []types.Field{{Name: "id"}, {Name: "name"}, {Name: "age"}},
	}

	_, err = s.client.RawQuery(s.ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)", nil)
	s.Require().NoError(err)
	for i, name := range []string{"ann", "bob", "cid", "dee", "eve"} {
		_, err := s.client.Insert(s.ctx, s.md, "users", map[string]any{"name": name, "age": 20 + i})
		s.Require().NoError(err)
	}
}

func (s *SQLiteClientSuite) TearDownTest() {
	s.Require().NoError(s.client.Close())
}

func (s *SQLiteClientSuite) TestInsertReturnsID() {
	data, err := s.client.Insert(s.ctx, s.md, "users", map[string]any{"name": "fay", "age": 30})
	s.Require().NoError(err)
	s.Equal(int64(6), data["id"])
}

func (s *SQLiteClientSuite) TestFindByQueryWithCount() {
	q := query.New().
		Where("age", criteria.Ops{"gte": 21}).
		SortBy("age", -1).
		SetLimit(2).
		SetSkip(1).
		SetCountFoundRows(true)

	res, err := s.client.FindByQuery(s.ctx, s.md, "users", q)
	s.Require().NoError(err)
	s.Require().Len(res.Rows, 2)
	s.Equal("dee", res.Rows[0]["name"])
	s.Equal(int64(4), res.TotalRows)
}

func (s *SQLiteClientSuite) TestUpdateByAndRemoveBy() {
	_, err := s.client.UpdateBy(s.ctx, s.md, "users", criteria.Criteria{"name": criteria.Ops{"in": []string{"ann", "bob"}}}, map[string]any{"age": 99})
	s.Require().NoError(err)

	n, err := s.client.FindCountByQuery(s.ctx, s.md, "users", query.New().Where("age", 99))
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	res, err := s.client.RemoveBy(s.ctx, s.md, "users", criteria.Criteria{"age": 99})
	s.Require().NoError(err)
	s.Equal(int64(2), res.RowsAffected)
}

func (s *SQLiteClientSuite) TestTransactionRollback() {
	_, err := s.client.StartTransaction(s.ctx, nil)
	s.Require().NoError(err)
	_, err = s.client.Remove(s.ctx, s.md, "users", 1)
	s.Require().NoError(err)
	s.Require().NoError(s.client.RollbackTransaction(s.ctx))

	row, err := s.client.Find(s.ctx, s.md, "users", 1)
	s.Require().NoError(err)
	s.Equal("ann", row["name"])
}

func TestSQLiteClientSuite(t *testing.T) {
	suite.Run(t, new(SQLiteClientSuite))
}
