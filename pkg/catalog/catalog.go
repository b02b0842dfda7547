// Package catalog resolves workflow node references against the metadata
// catalogs of the document store.
//
// Plain nodes are described by the meta_nodes collection, sub-workflow
// nodes by the meta_workflows collection. A [Resolver] partitions a
// workflow's references by kind and fetches each partition with a single
// batched query, so resolving a workflow costs at most two round trips no
// matter how many nodes it has.
//
// Resolution is all-or-nothing: on failure the caller gets an empty
// [Lookup] and a structured error, never a partial result.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// Catalog collection names.
const (
	WorkflowCatalog = "meta_workflows"
	NodeCatalog     = "meta_nodes"
)

// CatalogFor returns the collection that describes nodes of the given kind.
func CatalogFor(k workflow.Kind) string {
	if k == workflow.KindSubWorkflow {
		return WorkflowCatalog
	}
	return NodeCatalog
}

// Catalog is the document-store surface the resolver needs.
// store.Store implements it.
type Catalog interface {
	// CatalogExists reports whether the named collection exists.
	CatalogExists(ctx context.Context, name string) (bool, error)
	// FindByIDs returns the records of the named collection whose id is in
	// ids. Missing ids are not an error.
	FindByIDs(ctx context.Context, name string, ids []workflow.ID) ([]workflow.MetadataRecord, error)
}

// Resolver fetches metadata for node references.
type Resolver struct {
	Catalog Catalog
	Logger  *log.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(c Catalog, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{Catalog: c, Logger: logger}
}

// Partition splits refs into de-duplicated id sets per catalog, each in
// first-seen order. Empty reference ids are skipped.
func Partition(refs []workflow.NodeRef) (nodes, workflows []workflow.ID) {
	seen := map[workflow.Kind]map[workflow.ID]struct{}{
		workflow.KindPlain:       {},
		workflow.KindSubWorkflow: {},
	}
	for _, r := range refs {
		if r.ReferenceID == "" {
			continue
		}
		kind := r.Kind
		if kind != workflow.KindSubWorkflow {
			kind = workflow.KindPlain
		}
		if _, dup := seen[kind][r.ReferenceID]; dup {
			continue
		}
		seen[kind][r.ReferenceID] = struct{}{}
		if kind == workflow.KindSubWorkflow {
			workflows = append(workflows, r.ReferenceID)
		} else {
			nodes = append(nodes, r.ReferenceID)
		}
	}
	return nodes, workflows
}

// Resolve fetches the metadata records referenced by refs.
//
// Both catalogs must exist, even when refs is empty; a missing one fails
// with CATALOG_UNAVAILABLE. Store failures fail with TRANSPORT_ERROR. On
// any error the returned Lookup is empty.
func (r *Resolver) Resolve(ctx context.Context, workflowID workflow.ID, refs []workflow.NodeRef) (*Lookup, error) {
	nodeIDs, workflowIDs := Partition(refs)

	start := time.Now()
	for _, name := range []string{WorkflowCatalog, NodeCatalog} {
		ok, err := r.Catalog.CatalogExists(ctx, name)
		if err != nil {
			return NewLookup(nil, nil), asTransport(err, "check catalog %s", name)
		}
		if !ok {
			return NewLookup(nil, nil), errors.New(errors.ErrCodeCatalogUnavailable, "collection %s does not exist", name)
		}
	}
	if len(nodeIDs) == 0 && len(workflowIDs) == 0 {
		return NewLookup(nil, nil), nil
	}

	nodes, err := r.fetch(ctx, NodeCatalog, nodeIDs)
	if err != nil {
		return NewLookup(nil, nil), err
	}
	workflows, err := r.fetch(ctx, WorkflowCatalog, workflowIDs)
	if err != nil {
		return NewLookup(nil, nil), err
	}

	lookup := NewLookup(nodes, workflows)
	r.Logger.Debug("resolved metadata",
		"workflow", workflowID,
		"nodes", len(nodeIDs),
		"workflows", len(workflowIDs),
		"found", lookup.Len(),
		"took", time.Since(start))
	return lookup, nil
}

func (r *Resolver) fetch(ctx context.Context, name string, ids []workflow.ID) ([]workflow.MetadataRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	recs, err := r.Catalog.FindByIDs(ctx, name, ids)
	if err != nil {
		return nil, asTransport(err, "query %s", name)
	}
	return recs, nil
}

// asTransport keeps coded errors from the store and wraps anything else as
// a transport failure.
func asTransport(err error, format string, args ...any) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeTransport, err, format, args...)
}

// =============================================================================
// Lookup
// =============================================================================

// Lookup is the result of a resolution: O(1) access to records by
// reference id, separately per catalog.
type Lookup struct {
	nodes     map[workflow.ID]*workflow.MetadataRecord
	workflows map[workflow.ID]*workflow.MetadataRecord

	nodeRecs     []workflow.MetadataRecord
	workflowRecs []workflow.MetadataRecord
}

// NewLookup indexes node-catalog and workflow-catalog records. When an id
// repeats within one catalog the first record wins.
func NewLookup(nodes, workflows []workflow.MetadataRecord) *Lookup {
	l := &Lookup{}
	l.nodes, l.nodeRecs = index(nodes)
	l.workflows, l.workflowRecs = index(workflows)
	return l
}

func index(recs []workflow.MetadataRecord) (map[workflow.ID]*workflow.MetadataRecord, []workflow.MetadataRecord) {
	kept := make([]workflow.MetadataRecord, 0, len(recs))
	seen := make(map[workflow.ID]struct{}, len(recs))
	for _, rec := range recs {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		kept = append(kept, rec)
	}
	idx := make(map[workflow.ID]*workflow.MetadataRecord, len(kept))
	for i := range kept {
		idx[kept[i].ID] = &kept[i]
	}
	return idx, kept
}

// For returns the record a node reference points at, looking in the
// catalog its kind selects. It implements graph.MetadataLookup.
func (l *Lookup) For(ref workflow.NodeRef) (*workflow.MetadataRecord, bool) {
	idx := l.nodes
	if ref.Kind == workflow.KindSubWorkflow {
		idx = l.workflows
	}
	rec, ok := idx[ref.ReferenceID]
	return rec, ok
}

// Get returns a record by id from either catalog, preferring the node
// catalog.
func (l *Lookup) Get(id workflow.ID) (*workflow.MetadataRecord, bool) {
	if rec, ok := l.nodes[id]; ok {
		return rec, true
	}
	rec, ok := l.workflows[id]
	return rec, ok
}

// Len returns the number of distinct records.
func (l *Lookup) Len() int { return len(l.nodeRecs) + len(l.workflowRecs) }

// Records returns every record sorted by id, node catalog first on ties.
func (l *Lookup) Records() []workflow.MetadataRecord {
	out := slices.Concat(l.nodeRecs, l.workflowRecs)
	slices.SortStableFunc(out, func(a, b workflow.MetadataRecord) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

type lookupJSON struct {
	Nodes     []workflow.MetadataRecord `json:"meta_nodes"`
	Workflows []workflow.MetadataRecord `json:"meta_workflows"`
}

// MarshalJSON encodes the records per catalog, in fetch order.
func (l *Lookup) MarshalJSON() ([]byte, error) {
	return json.Marshal(lookupJSON{
		Nodes:     nonNil(l.nodeRecs),
		Workflows: nonNil(l.workflowRecs),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (l *Lookup) UnmarshalJSON(data []byte) error {
	var in lookupJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = *NewLookup(in.Nodes, in.Workflows)
	return nil
}

func nonNil(recs []workflow.MetadataRecord) []workflow.MetadataRecord {
	if recs == nil {
		return []workflow.MetadataRecord{}
	}
	return recs
}
