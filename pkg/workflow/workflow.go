// Package workflow defines the stored shape of workflow documents.
//
// A [Workflow] is a directed graph of [Node] values joined by [Edge] values,
// loaded from the meta_workflows collection. Nodes reference entries in a
// metadata catalog through their ReferenceID; a node whose type tag is
// exactly "SUB_WORKFLOW" references another workflow instead and can be
// drilled into.
//
// Identity everywhere is the canonical string form described on [ID].
package workflow

import (
	"fmt"
	"strconv"
)

// Kind classifies a node reference.
type Kind string

const (
	// KindPlain references the node-type catalog (meta_nodes).
	KindPlain Kind = "PLAIN"
	// KindSubWorkflow references another workflow (meta_workflows).
	KindSubWorkflow Kind = "SUB_WORKFLOW"
)

// SubWorkflowTag is the only type tag that classifies a node as a sub-workflow.
const SubWorkflowTag = "SUB_WORKFLOW"

// KindFromTag derives a Kind from a stored type tag. The match is exact and
// case-sensitive; every other tag, including the empty one, is KindPlain.
func KindFromTag(tag string) Kind {
	if tag == SubWorkflowTag {
		return KindSubWorkflow
	}
	return KindPlain
}

// Node is one step of a workflow.
type Node struct {
	ID           ID     `json:"_id" bson:"_id"`
	ReferenceID  ID     `json:"metamodelId" bson:"metamodelId"`
	Type         string `json:"type,omitempty" bson:"type,omitempty"`
	LoopSettings any    `json:"loopSettings,omitempty" bson:"loopSettings,omitempty"`
}

// Kind classifies the node by its type tag.
func (n Node) Kind() Kind { return KindFromTag(n.Type) }

// HasLoop reports whether loop settings are present and non-null.
// Their content is never interpreted.
func (n Node) HasLoop() bool { return n.LoopSettings != nil }

// Ref returns the node's catalog reference.
func (n Node) Ref() NodeRef { return NodeRef{ReferenceID: n.ReferenceID, Kind: n.Kind()} }

// Edge is a directed connection between two nodes of the same workflow.
// Parallel edges between the same ordered pair are allowed.
type Edge struct {
	ID     ID `json:"_id,omitempty" bson:"_id,omitempty"`
	Source ID `json:"sourceNodeId" bson:"sourceNodeId"`
	Target ID `json:"targetNodeId" bson:"targetNodeId"`
}

// EdgeID returns the edge's identity, synthesizing "edge-<position>" when
// the stored edge has none.
func EdgeID(e Edge, position int) ID {
	if e.ID != "" {
		return e.ID
	}
	return ID("edge-" + strconv.Itoa(position))
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Workflow is a stored workflow document. It is treated as immutable once
// loaded; callers that need to change it work on a copy.
type Workflow struct {
	ID          ID     `json:"_id" bson:"_id"`
	Name        string `json:"name,omitempty" bson:"name,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Nodes       []Node `json:"nodes" bson:"nodes"`
	Edges       []Edge `json:"edges" bson:"edges"`
}

// DisplayName returns the workflow name, or "Unnamed Workflow".
func (w *Workflow) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return "Unnamed Workflow"
}

// NodeRefs returns the catalog reference of every node in document order.
// Duplicates are preserved; deduplication is the resolver's concern.
func (w *Workflow) NodeRefs() []NodeRef {
	refs := make([]NodeRef, len(w.Nodes))
	for i, n := range w.Nodes {
		refs[i] = n.Ref()
	}
	return refs
}

// String implements fmt.Stringer for log output.
func (w *Workflow) String() string {
	return fmt.Sprintf("%s (%d nodes, %d edges)", w.ID, len(w.Nodes), len(w.Edges))
}

// AssignIDs fills in missing identities in place: a workflow without an id
// gets its position in the list, an edge without an id gets "edge-<position>".
func AssignIDs(list []Workflow) {
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = ID(strconv.Itoa(i))
		}
		for j := range list[i].Edges {
			list[i].Edges[j].ID = EdgeID(list[i].Edges[j], j)
		}
	}
}

// Find returns the workflow with the given id.
func Find(list []Workflow, id ID) (*Workflow, bool) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}

// NodeRef is a node's pointer into a metadata catalog.
type NodeRef struct {
	ReferenceID ID   `json:"metamodelId"`
	Kind        Kind `json:"kind"`
}
