// Package ordering decides the order of nodes within each rank of a layered
// workflow graph.
//
// Fewer edge crossings make a workflow easier to follow, but finding the
// ordering with the minimum number of crossings is NP-hard. This package
// provides the classic heuristic:
//
//   - [Barycentric]: alternating barycenter sweeps with adjacent-swap
//     refinement, O(V + E) per sweep with a fixed number of sweeps
//   - [Identity]: insertion (document) order, useful for tests and as a
//     baseline
//
// # Usage
//
//	var orderer ordering.Orderer = ordering.Barycentric{Passes: 24}
//	orders := orderer.OrderRows(g) // map[row][]nodeID
//
// Orderers never modify the graph. Crossings are counted with
// [dag.CountCrossings].
package ordering
