package executor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/types"
)

type mockDataClient struct {
	mock.Mock
}

func (m *mockDataClient) RawQuery(ctx context.Context, sql string, params []any) (*driver.Result, error) {
	args := m.Called(ctx, sql, params)
	res, _ := args.Get(0).(*driver.Result)
	return res, args.Error(1)
}

func (m *mockDataClient) CountFoundRows(ctx context.Context, sql string, params []any) (int64, error) {
	args := m.Called(ctx, sql, params)
	return args.Get(0).(int64), args.Error(1)
}

type mockManager struct {
	mock.Mock
	client *mockDataClient
	reader *mockDataClient
}

func newMockManager() *mockManager {
	return &mockManager{client: &mockDataClient{}, reader: &mockDataClient{}}
}

func (m *mockManager) Client() DataClient       { return m.client }
func (m *mockManager) ReaderClient() DataClient { return m.reader }

func (m *mockManager) Metadata(name string) (*types.Metadata, bool) {
	args := m.Called(name)
	md, _ := args.Get(0).(*types.Metadata)
	return md, args.Bool(1)
}

func (m *mockManager) MapRowsToDocuments(ctx context.Context, md *types.Metadata, rows []query.Row) ([]any, error) {
	args := m.Called(ctx, md, rows)
	docs, _ := args.Get(0).([]any)
	return docs, args.Error(1)
}

func (m *mockManager) MapRowToDocument(ctx context.Context, md *types.Metadata, row query.Row) (any, error) {
	args := m.Called(ctx, md, row)
	return args.Get(0), args.Error(1)
}

func (m *mockManager) FindByQuery(ctx context.Context, repository string, q *query.Query) (*query.Result, error) {
	args := m.Called(ctx, repository, q)
	res, _ := args.Get(0).(*query.Result)
	return res, args.Error(1)
}
