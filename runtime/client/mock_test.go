package client

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/types"
)

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Execute(ctx context.Context, sql string, params []any) (*driver.Result, error) {
	args := m.Called(ctx, sql, params)
	res, _ := args.Get(0).(*driver.Result)
	return res, args.Error(1)
}

func (m *mockConn) Begin(ctx context.Context, opts *sql.TxOptions) (driver.Tx, error) {
	args := m.Called(ctx, opts)
	tx, _ := args.Get(0).(driver.Tx)
	return tx, args.Error(1)
}

func (m *mockConn) Close() error {
	return m.Called().Error(0)
}

type mockTx struct {
	mock.Mock
}

func (m *mockTx) Execute(ctx context.Context, sql string, params []any) (*driver.Result, error) {
	args := m.Called(ctx, sql, params)
	res, _ := args.Get(0).(*driver.Result)
	return res, args.Error(1)
}

func (m *mockTx) Commit() error   { return m.Called().Error(0) }
func (m *mockTx) Rollback() error { return m.Called().Error(0) }

type staticRegistry map[string]*types.Metadata

func (r staticRegistry) Get(name string) (*types.Metadata, bool) {
	md, ok := r[name]
	return md, ok
}
