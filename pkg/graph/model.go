package graph

import (
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// =============================================================================
// Model - Workflow Graph Model
// =============================================================================

// MetadataLookup resolves a node's catalog reference to its metadata record.
// catalog.Lookup implements it.
type MetadataLookup interface {
	For(ref workflow.NodeRef) (*workflow.MetadataRecord, bool)
}

// MetadataMap is a MetadataLookup keyed by reference id only, ignoring kind.
type MetadataMap map[workflow.ID]workflow.MetadataRecord

// For implements MetadataLookup.
func (m MetadataMap) For(ref workflow.NodeRef) (*workflow.MetadataRecord, bool) {
	rec, ok := m[ref.ReferenceID]
	if !ok {
		return nil, false
	}
	return &rec, true
}

// ModelNode is a workflow node annotated with resolved metadata and
// presentation flags.
type ModelNode struct {
	ID          workflow.ID              `json:"id"`
	ReferenceID workflow.ID              `json:"metamodelId"`
	Kind        workflow.Kind            `json:"kind"`
	Loop        bool                     `json:"loop,omitempty"`
	Selected    bool                     `json:"selected,omitempty"`
	Metadata    *workflow.MetadataRecord `json:"metadata,omitempty"`
}

// Label is the metadata name when resolved, otherwise the reference id,
// otherwise the node id.
func (n *ModelNode) Label() string {
	if n.Metadata != nil && n.Metadata.Name != "" {
		return n.Metadata.Name
	}
	if n.ReferenceID != "" {
		return n.ReferenceID.String()
	}
	return n.ID.String()
}

// IsSubWorkflow reports whether the node can be drilled into.
func (n *ModelNode) IsSubWorkflow() bool { return n.Kind == workflow.KindSubWorkflow }

// ModelEdge is an edge whose endpoints both exist in the model.
type ModelEdge struct {
	ID     workflow.ID `json:"id"`
	Source workflow.ID `json:"source"`
	Target workflow.ID `json:"target"`
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e ModelEdge) IsSelfLoop() bool { return e.Source == e.Target }

// Model is the graph built from one workflow. Nodes and edges keep document
// order. A Model is not modified after Build; Select returns a copy.
type Model struct {
	WorkflowID workflow.ID `json:"workflowId"`
	Name       string      `json:"name"`
	Nodes      []ModelNode `json:"nodes"`
	Edges      []ModelEdge `json:"edges"`

	// DroppedEdges counts edges skipped because an endpoint is not a node of
	// the workflow. DuplicateNodes counts nodes skipped because their id was
	// already taken by an earlier node.
	DroppedEdges   int `json:"droppedEdges,omitempty"`
	DuplicateNodes int `json:"duplicateNodes,omitempty"`

	index map[workflow.ID]int
}

// Build converts a workflow into a Model. lookup may be nil, in which case
// no node carries metadata. Build never fails: duplicate nodes and dangling
// edges are dropped and counted.
func Build(wf *workflow.Workflow, lookup MetadataLookup) *Model {
	m := &Model{
		WorkflowID: wf.ID,
		Name:       wf.DisplayName(),
		Nodes:      make([]ModelNode, 0, len(wf.Nodes)),
		Edges:      make([]ModelEdge, 0, len(wf.Edges)),
		index:      make(map[workflow.ID]int, len(wf.Nodes)),
	}

	for _, n := range wf.Nodes {
		if _, dup := m.index[n.ID]; dup {
			m.DuplicateNodes++
			continue
		}
		node := ModelNode{
			ID:          n.ID,
			ReferenceID: n.ReferenceID,
			Kind:        n.Kind(),
			Loop:        n.HasLoop(),
		}
		if lookup != nil {
			if rec, ok := lookup.For(n.Ref()); ok {
				node.Metadata = rec
			}
		}
		m.index[n.ID] = len(m.Nodes)
		m.Nodes = append(m.Nodes, node)
	}

	for i, e := range wf.Edges {
		_, srcOK := m.index[e.Source]
		_, dstOK := m.index[e.Target]
		if !srcOK || !dstOK {
			m.DroppedEdges++
			continue
		}
		m.Edges = append(m.Edges, ModelEdge{
			ID:     workflow.EdgeID(e, i),
			Source: e.Source,
			Target: e.Target,
		})
	}
	return m
}

// Node returns the node with the given id.
func (m *Model) Node(id workflow.ID) (*ModelNode, bool) {
	i, ok := m.Index(id)
	if !ok {
		return nil, false
	}
	return &m.Nodes[i], true
}

// Index returns the document position of a node.
func (m *Model) Index(id workflow.ID) (int, bool) {
	if m.index == nil {
		for i := range m.Nodes {
			if m.Nodes[i].ID == id {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := m.index[id]
	return i, ok
}

// Selected returns the selected node, if any.
func (m *Model) Selected() (*ModelNode, bool) {
	for i := range m.Nodes {
		if m.Nodes[i].Selected {
			return &m.Nodes[i], true
		}
	}
	return nil, false
}

// Select returns a copy of the model with only the node id selected. An
// empty or unknown id yields a copy with no selection. The receiver is not
// modified; metadata records are shared between the copies.
func (m *Model) Select(id workflow.ID) *Model {
	cp := *m
	cp.Nodes = make([]ModelNode, len(m.Nodes))
	copy(cp.Nodes, m.Nodes)
	cp.Edges = m.Edges
	for i := range cp.Nodes {
		cp.Nodes[i].Selected = id != "" && cp.Nodes[i].ID == id
	}
	return &cp
}

// reindex builds the node index for models that were decoded rather than
// built.
func (m *Model) reindex() {
	m.index = make(map[workflow.ID]int, len(m.Nodes))
	for i, n := range m.Nodes {
		if _, dup := m.index[n.ID]; !dup {
			m.index[n.ID] = i
		}
	}
}
