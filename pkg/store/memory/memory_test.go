package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

const fixture = `{
  "meta_workflows": [
    {"_id": "w1", "name": "Ingest",
     "nodes": [{"_id": "n1", "metamodelId": "r1"}, {"_id": "n2", "metamodelId": 7, "type": "SUB_WORKFLOW"}],
     "edges": [{"sourceNodeId": "n1", "targetNodeId": "n2"}]},
    {"_id": 7, "name": "Child", "nodes": [], "edges": []}
  ],
  "meta_nodes": [{"_id": "r1", "name": "Fetch", "color": "blue"}]
}`

func TestListWorkflows(t *testing.T) {
	s, err := Parse([]byte(fixture))
	if err != nil {
		t.Fatal(err)
	}

	list, err := s.ListWorkflows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "w1" || list[1].ID != "7" {
		t.Fatalf("ListWorkflows() = %v", list)
	}
	if list[0].Nodes[1].ReferenceID != "7" || list[0].Nodes[1].Kind() != workflow.KindSubWorkflow {
		t.Errorf("node n2 = %+v", list[0].Nodes[1])
	}
	if list[0].Edges[0].ID != "edge-0" {
		t.Errorf("edge id = %q", list[0].Edges[0].ID)
	}
}

func TestFindByIDs(t *testing.T) {
	s, _ := Parse([]byte(fixture))
	ctx := context.Background()

	recs, err := s.FindByIDs(ctx, catalog.NodeCatalog, []workflow.ID{"r1", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Name != "Fetch" || recs[0].Attributes["color"] != "blue" {
		t.Errorf("FindByIDs = %+v", recs)
	}

	recs, _ = s.FindByIDs(ctx, catalog.WorkflowCatalog, []workflow.ID{"7"})
	if len(recs) != 1 || recs[0].Name != "Child" {
		t.Errorf("numeric id lookup = %+v", recs)
	}

	if s.Queries(catalog.NodeCatalog) != 1 || s.Queries(catalog.WorkflowCatalog) != 1 {
		t.Error("each call should count as one query")
	}
}

func TestMissingCollection(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	if ok, err := s.CatalogExists(ctx, catalog.NodeCatalog); ok || err != nil {
		t.Errorf("CatalogExists = %v, %v", ok, err)
	}
	if _, err := s.ListWorkflows(ctx); !errors.Is(err, errors.ErrCodeCatalogUnavailable) {
		t.Errorf("err = %v, want CATALOG_UNAVAILABLE", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s, _ := Parse([]byte(fixture))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.ListWorkflows(ctx); !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("err = %v, want TRANSPORT_ERROR", err)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("[1,2]")); !errors.Is(err, errors.ErrCodeMalformedInput) {
		t.Errorf("err = %v, want MALFORMED_INPUT", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.CatalogExists(context.Background(), catalog.WorkflowCatalog); !ok {
		t.Error("meta_workflows should exist")
	}
}

func TestFromWorkflows(t *testing.T) {
	s, err := FromWorkflows(
		[]workflow.Workflow{{ID: "w1", Nodes: []workflow.Node{{ID: "a", ReferenceID: "r1"}}}},
		[]workflow.MetadataRecord{{ID: "r1", Name: "Fetch"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListWorkflows(context.Background())
	if len(list) != 1 || list[0].Nodes[0].ReferenceID != "r1" {
		t.Errorf("ListWorkflows() = %v", list)
	}
	recs, _ := s.FindByIDs(context.Background(), catalog.NodeCatalog, []workflow.ID{"r1"})
	if len(recs) != 1 || recs[0].Name != "Fetch" {
		t.Errorf("FindByIDs = %v", recs)
	}
}

func TestDialer(t *testing.T) {
	s := New(nil)
	dial := s.Dialer()
	if _, err := dial(context.Background(), "", "db"); !errors.Is(err, errors.ErrCodeMalformedInput) {
		t.Errorf("err = %v, want MALFORMED_INPUT", err)
	}
	got, err := dial(context.Background(), "mongodb://x", "db")
	if err != nil || got != s {
		t.Errorf("dial = %v, %v", got, err)
	}
}
