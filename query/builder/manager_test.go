package builder

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/executor"
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

// fakeManager maps documents to collections from a fixed table
type fakeManager struct {
	docs   map[string]*types.Metadata
	client *mockDataClient
	reader *mockDataClient
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		docs: map[string]*types.Metadata{
			"User": {
				Name:       "User",
				Collection: "users",
				IDField:    "id",
				Fields: []types.Field{
					{Name: "id", Property: "id", Table: "users"},
					{Name: "first_name", Property: "firstName", Table: "users"},
				},
			},
			"Post": {Name: "Post", Collection: "posts", IDField: "id"},
		},
		client: &mockDataClient{},
		reader: &mockDataClient{},
	}
}

func (m *fakeManager) DocumentToCollection(document string) (string, bool) {
	if md, ok := m.docs[document]; ok {
		return md.Collection, true
	}
	return "", false
}

func (m *fakeManager) CollectionToDocument(collection string) (string, bool) {
	for name, md := range m.docs {
		if md.Collection == collection {
			return name, true
		}
	}
	return "", false
}

func (m *fakeManager) DocumentFields(document string) []types.Field {
	if md, ok := m.docs[document]; ok {
		return md.Fields
	}
	return nil
}

func (m *fakeManager) Client() executor.DataClient       { return m.client }
func (m *fakeManager) ReaderClient() executor.DataClient { return m.reader }

func (m *fakeManager) Metadata(name string) (*types.Metadata, bool) {
	md, ok := m.docs[name]
	return md, ok
}

func (m *fakeManager) MapRowsToDocuments(_ context.Context, _ *types.Metadata, rows []query.Row) ([]any, error) {
	docs := make([]any, len(rows))
	for i, r := range rows {
		docs[i] = types.Document(r)
	}
	return docs, nil
}

func (m *fakeManager) MapRowToDocument(_ context.Context, _ *types.Metadata, row query.Row) (any, error) {
	return types.Document(row), nil
}

func (m *fakeManager) FindByQuery(context.Context, string, *query.Query) (*query.Result, error) {
	return nil, nil
}
