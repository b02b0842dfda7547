// Package transform prepares a workflow graph for layered layout.
//
// The layered layout needs an acyclic graph whose edges each join two
// consecutive rows. The transforms here get it there in three steps, applied
// in this order:
//
//	transform.BreakCycles(g)  // reverse back edges
//	transform.AssignLayers(g) // longest-path ranks
//	transform.Subdivide(g)    // virtual nodes on long edges
//
// # Cycle Breaking
//
// [BreakCycles] reverses the back edges found by a depth-first search. The
// search order is the graph's insertion order, so ties are broken by
// visiting order and the result is deterministic.
//
// # Layer Assignment
//
// [AssignLayers] places each node one row below its deepest parent.
//
// # Edge Subdivision
//
// [Subdivide] splits edges that span several rows into chains of virtual
// nodes and reports each chain, so the layout can route the original edge
// through the positions its virtual nodes receive.
package transform
