// Package dag provides the directed graph used by the layered workflow
// layout.
//
// # Overview
//
// The layered layout works on rows (ranks): every node is assigned a row,
// long edges are split so that each edge joins consecutive rows, and nodes
// inside a row are ordered to reduce crossings. This package holds that
// structure; the [transform] subpackage computes ranks and splits edges.
//
// # Determinism
//
// Workflow layouts must be identical across re-renders. DAG therefore keeps
// nodes in insertion order and every accessor that returns several nodes
// reports them in that order. Algorithms that iterate over [DAG.Nodes] are
// deterministic as long as the caller inserts nodes in a stable order (the
// layout engine uses document order).
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "start"})
//	g.AddNode(dag.Node{ID: "fetch", Row: 1})
//	g.AddEdge(dag.Edge{From: "start", To: "fetch"})
//
// # Node Types
//
//   - [NodeKindRegular]: a workflow node
//   - [NodeKindVirtual]: a placeholder splitting an edge that spans several ranks
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions in O(E log V), cheap enough to evaluate after every ordering
// sweep.
//
// [transform]: github.com/matzehuels/flowlens/pkg/dag/transform
package dag
