// Package manager wires the registry, data access clients and mapper behind
// the interfaces used by the query builder and query clients.
package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/builder"
	"github.com/satishbabariya/docsql/query/executor"
	"github.com/satishbabariya/docsql/runtime/client"
	"github.com/satishbabariya/docsql/runtime/driver"
	"github.com/satishbabariya/docsql/runtime/registry"
	"github.com/satishbabariya/docsql/runtime/types"
)

// ErrUnknownDocument is returned for document names missing from the registry
var ErrUnknownDocument = errors.New("unknown document")

// Config describes the connections a manager opens
type Config struct {
	Primary driver.Config
	// Reader is an optional read replica
	Reader *driver.Config
	Logger client.Logger
	// Middleware wraps every statement of both clients
	Middleware []client.Middleware
	// CacheSize bounds the named parameter template cache, 0 uses the shared cache
	CacheSize int
}

// Manager owns the clients for one database
type Manager struct {
	registry *registry.Registry
	client   *client.Client
	reader   *client.Client
	mapper   *client.Mapper
	preparer *executor.Preparer
}

// New creates a manager. A nil reader reads from primary.
func New(reg *registry.Registry, primary, reader *client.Client) *Manager {
	if reader == nil {
		reader = primary
	}
	return &Manager{
		registry: reg,
		client:   primary,
		reader:   reader,
		mapper:   client.NewMapper(reg, reader),
		preparer: executor.DefaultPreparer,
	}
}

// Open connects the primary and optional reader described by cfg
func Open(ctx context.Context, cfg Config, reg *registry.Registry) (*Manager, error) {
	opts := []client.Option{client.WithMiddleware(cfg.Middleware...)}
	if cfg.Logger != nil {
		opts = append(opts, client.WithLogger(cfg.Logger))
	}

	conn, err := driver.Open(ctx, cfg.Primary)
	if err != nil {
		return nil, err
	}
	primary := client.New(conn, conn.Dialect(), opts...)

	var reader *client.Client
	if cfg.Reader != nil {
		rconn, err := driver.Open(ctx, *cfg.Reader)
		if err != nil {
			_ = primary.Close()
			return nil, fmt.Errorf("reader: %w", err)
		}
		reader = client.New(rconn, rconn.Dialect(), opts...)
	}

	m := New(reg, primary, reader)
	if cfg.CacheSize > 0 {
		m.preparer = executor.NewPreparer(cfg.CacheSize)
	}
	return m, nil
}

// Close closes both connections
func (m *Manager) Close() error {
	err := m.client.Close()
	if m.reader != m.client {
		err = errors.Join(err, m.reader.Close())
	}
	return err
}

// Registry returns the document registry
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Preparer returns the named parameter preparer used by query clients
func (m *Manager) Preparer() *executor.Preparer { return m.preparer }

// Client returns the primary data access client
func (m *Manager) Client() executor.DataClient { return m.client }

// ReaderClient returns the read replica client
func (m *Manager) ReaderClient() executor.DataClient { return m.reader }

// Primary returns the primary client with its CRUD operations
func (m *Manager) Primary() *client.Client { return m.client }

// Reader returns the read replica client with its CRUD operations
func (m *Manager) Reader() *client.Client { return m.reader }

// Metadata returns a document's metadata
func (m *Manager) Metadata(name string) (*types.Metadata, bool) {
	return m.registry.Get(name)
}

func (m *Manager) metadata(name string) (*types.Metadata, error) {
	md, ok := m.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, name)
	}
	return md, nil
}

// DocumentToCollection maps a document name to its collection
func (m *Manager) DocumentToCollection(document string) (string, bool) {
	return m.registry.DocumentToCollection(document)
}

// CollectionToDocument maps a collection to its document name
func (m *Manager) CollectionToDocument(collection string) (string, bool) {
	return m.registry.CollectionToDocument(collection)
}

// DocumentFields returns the columns selected for a document: its own fields
// and its relation columns.
func (m *Manager) DocumentFields(document string) []types.Field {
	md, ok := m.registry.Get(document)
	if !ok {
		return nil
	}
	return md.SelectFields(md.Collection)
}

// MapRowsToDocuments hydrates rows
func (m *Manager) MapRowsToDocuments(ctx context.Context, md *types.Metadata, rows []query.Row) ([]any, error) {
	return m.mapper.MapRowsToDocuments(ctx, md, rows)
}

// MapRowToDocument hydrates one row
func (m *Manager) MapRowToDocument(ctx context.Context, md *types.Metadata, row query.Row) (any, error) {
	return m.mapper.MapRowToDocument(ctx, md, row)
}

// CreateQueryBuilder returns a builder bound to the manager
func (m *Manager) CreateQueryBuilder() *builder.QueryBuilder {
	return builder.New(m)
}

// CreateQuery returns a query client for raw SQL with named or positional parameters
func (m *Manager) CreateQuery(sql string) *executor.QueryClient {
	return executor.NewQueryClient(m, nil).WithPreparer(m.preparer).SetSQL(sql)
}

// FindByQuery runs q against the document's collection on the reader and
// hydrates the rows.
func (m *Manager) FindByQuery(ctx context.Context, repository string, q *query.Query) (*query.Result, error) {
	md, err := m.metadata(repository)
	if err != nil {
		return nil, err
	}
	result, err := m.reader.FindByQuery(ctx, md, md.Collection, q)
	if err != nil {
		return nil, err
	}
	docs, err := m.mapper.MapRowsToDocuments(ctx, md, result.Rows)
	if err != nil {
		return nil, err
	}
	result.Documents = docs
	return result, nil
}

// Find returns the hydrated document with the given id, or nil
func (m *Manager) Find(ctx context.Context, document string, id any) (any, error) {
	md, err := m.metadata(document)
	if err != nil {
		return nil, err
	}
	row, err := m.reader.Find(ctx, md, md.Collection, id)
	if err != nil || row == nil {
		return nil, err
	}
	return m.mapper.MapRowToDocument(ctx, md, row)
}

// Create stores doc and sets its generated id
func (m *Manager) Create(ctx context.Context, document string, doc types.Document) (types.Document, error) {
	md, err := m.metadata(document)
	if err != nil {
		return nil, err
	}
	row := m.mapper.RowFromDocument(md, doc)
	data, err := m.client.Insert(ctx, md, md.Collection, row)
	if err != nil {
		return nil, err
	}
	if id, ok := data[md.IDField]; ok && md.IDField != "" {
		key := md.IDField
		if f, ok := md.FieldByName(md.IDField); ok {
			key = f.PropertyName()
		}
		doc[key] = id
	}
	return doc, nil
}
