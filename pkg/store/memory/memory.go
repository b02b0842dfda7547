// Package memory implements store.Store over in-memory documents, loaded
// from Go values or a JSON fixture file.
//
// A fixture maps collection names to document arrays:
//
//	{
//	  "meta_workflows": [{"_id": "w1", "name": "Ingest", "nodes": [], "edges": []}],
//	  "meta_nodes":     [{"_id": "r1", "name": "Fetch"}]
//	}
//
// Collections absent from the fixture do not exist, so lookups against them
// fail with CATALOG_UNAVAILABLE just as they would against a real database.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// Document is one stored document.
type Document = map[string]any

// Store holds collections of documents.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]Document
	queries     map[string]int
}

// New creates a store from collections. The map is used as is.
func New(collections map[string][]Document) *Store {
	if collections == nil {
		collections = make(map[string][]Document)
	}
	return &Store{collections: collections, queries: make(map[string]int)}
}

// Parse reads a JSON fixture. Numbers are kept exact.
func Parse(data []byte) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var collections map[string][]Document
	if err := dec.Decode(&collections); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "parse fixture")
	}
	return New(collections), nil
}

// LoadFile reads a JSON fixture file.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// FromWorkflows creates a store whose meta_workflows collection holds list
// and whose meta_nodes collection holds nodes.
func FromWorkflows(list []workflow.Workflow, nodes []workflow.MetadataRecord) (*Store, error) {
	wfDocs, err := toDocuments(list)
	if err != nil {
		return nil, err
	}
	nodeDocs, err := toDocuments(nodes)
	if err != nil {
		return nil, err
	}
	return New(map[string][]Document{
		catalog.WorkflowCatalog: wfDocs,
		catalog.NodeCatalog:     nodeDocs,
	}), nil
}

func toDocuments[T any](values []T) ([]Document, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	docs := []Document{}
	if err := dec.Decode(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Dialer returns a store.Dialer that hands out s for any connection. The
// parameters are still validated. Close on the returned store is a no-op.
func (s *Store) Dialer() store.Dialer {
	return func(ctx context.Context, uri, dbName string) (store.Store, error) {
		if err := errors.ValidateConnection(uri, dbName); err != nil {
			return nil, err
		}
		return s, nil
	}
}

// CatalogExists implements catalog.Catalog.
func (s *Store) CatalogExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(errors.ErrCodeTransport, err, "list collections")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// FindByIDs implements catalog.Catalog.
func (s *Store) FindByIDs(ctx context.Context, name string, ids []workflow.ID) ([]workflow.MetadataRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "query %s", name)
	}
	want := make(map[workflow.ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[name]++

	var out []workflow.MetadataRecord
	for _, doc := range s.collections[name] {
		rec := workflow.RecordFromDocument(doc)
		if want[rec.ID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListWorkflows implements store.Store.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "query %s", catalog.WorkflowCatalog)
	}
	s.mu.RLock()
	docs, ok := s.collections[catalog.WorkflowCatalog]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeCatalogUnavailable, "collection %s does not exist", catalog.WorkflowCatalog)
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode workflows")
	}
	list := []workflow.Workflow{}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "read %s", catalog.WorkflowCatalog)
	}
	workflow.AssignIDs(list)
	return list, nil
}

// Queries returns how many FindByIDs calls hit the named collection.
func (s *Store) Queries(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries[name]
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
