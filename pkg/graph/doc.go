// Package graph builds the graph model of a workflow and defines the
// serialization format of computed layouts.
//
// # Architecture
//
// The package sits between stored workflow documents and the layout engine:
//
//   - pkg/workflow.Workflow: stored document shape
//   - [Model]: nodes with resolved metadata and flags, dangling edges dropped
//   - pkg/layout.Result: positions and edge routing (internal)
//   - [Layout]: serialization format of a layout (this package)
//
// # Building a Model
//
// [Build] takes a workflow and a [MetadataLookup] (usually a catalog.Lookup)
// and never fails:
//
//	m := graph.Build(wf, lookup)
//	m.DroppedEdges   // edges whose endpoints are not nodes of wf
//	m.DuplicateNodes // nodes whose id repeats an earlier one
//
// Node and edge order is document order, so building the same workflow with
// the same metadata twice yields identical models. Lookups by node id use an
// index built once per model.
//
// Selection is presentation state. [Model.Select] returns a copy with the
// flag applied, leaving the built model untouched:
//
//	selected := m.Select("n2")
//
// # Constants
//
//	graph.StrategyLayered  // "layered"
//	graph.StrategyLinear   // "linear"
//	graph.RoutingStraight  // "STRAIGHT"
//	graph.RoutingCurved    // "CURVED"
//
// # Layout Serialization
//
//	data, _ := graph.MarshalLayout(l)
//	l, err := graph.UnmarshalLayout(data)
//	graph.WriteLayoutFile(l, "layout.json")
//
// # Concurrency
//
// A built Model is safe for concurrent reads.
package graph
