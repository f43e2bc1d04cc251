// Package registry holds document metadata, loaded in code or from a YAML file.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/docsql/runtime/types"
)

var (
	// ErrInvalidMetadata is returned for documents without a name or collection
	ErrInvalidMetadata = errors.New("invalid document metadata")
	// ErrDuplicateCollection is returned when two documents share a collection
	ErrDuplicateCollection = errors.New("collection already mapped")
)

// Registry maps document names to metadata. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]*types.Metadata
	byCollection map[string]*types.Metadata
}

// New creates a registry holding docs
func New(docs ...*types.Metadata) (*Registry, error) {
	r := &Registry{
		byName:       make(map[string]*types.Metadata),
		byCollection: make(map[string]*types.Metadata),
	}
	for _, md := range docs {
		if err := r.Register(md); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a document
func (r *Registry) Register(md *types.Metadata) error {
	if md == nil || md.Name == "" || md.Collection == "" {
		return ErrInvalidMetadata
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if other, ok := r.byCollection[md.Collection]; ok && other.Name != md.Name {
		return fmt.Errorf("%w: %s is mapped by %s", ErrDuplicateCollection, md.Collection, other.Name)
	}
	if old, ok := r.byName[md.Name]; ok {
		delete(r.byCollection, old.Collection)
	}
	r.byName[md.Name] = md
	r.byCollection[md.Collection] = md
	return nil
}

// Get returns a document by name
func (r *Registry) Get(name string) (*types.Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.byName[name]
	return md, ok
}

// GetByCollection returns the document stored in collection
func (r *Registry) GetByCollection(collection string) (*types.Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.byCollection[collection]
	return md, ok
}

// DocumentToCollection maps a document name to its collection
func (r *Registry) DocumentToCollection(document string) (string, bool) {
	if md, ok := r.Get(document); ok {
		return md.Collection, true
	}
	return "", false
}

// CollectionToDocument maps a collection to its document name
func (r *Registry) CollectionToDocument(collection string) (string, bool) {
	if md, ok := r.GetByCollection(collection); ok {
		return md.Name, true
	}
	return "", false
}

// Names returns the document names in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type documentsFile struct {
	Documents []*types.Metadata `mapstructure:"documents"`
}

// LoadFile reads documents from a YAML, JSON or TOML file:
//
//	documents:
//	  - name: User
//	    collection: users
//	    id: id
//	    fields:
//	      - name: first_name
//	        property: firstName
func LoadFile(fs afero.Fs, path string) (*Registry, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read documents file %s: %w", path, err)
	}

	var file documentsFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode documents file %s: %w", path, err)
	}
	return New(file.Documents...)
}
