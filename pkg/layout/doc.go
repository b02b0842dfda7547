// Package layout assigns 2-D coordinates to workflow nodes and routing to
// workflow edges.
//
// # Strategies
//
// Two interchangeable [Engine] implementations are provided:
//
//   - [Layered]: Sugiyama-style ranks following edge direction, with
//     crossing reduction ([ordering.Barycentric]) and cycle breaking
//   - [Linear]: every node on one row in document order, edges routed as
//     straight segments or arcs above and below the row
//
// Select one by name with [New]:
//
//	eng, err := layout.New("layered", layout.Options{})
//	res := eng.Layout(model, layout.TB)
//	data, _ := graph.MarshalLayout(res.Export())
//
// # Edge Routing
//
// Every edge is STRAIGHT or CURVED. Parallel edges, edges between distant
// nodes and edges that close a cycle are CURVED, and parallel curves are
// kept apart. Self-edges are CURVED with SelfLoop set and drawn above their
// node. Nodes with loop settings get a separate [Arc] above them. Edge
// endpoints are clipped to the node circle and no edge interior crosses a
// node other than its endpoints.
//
// [Edge.SVGPath] and [Arc.SVGPath] render the geometry as SVG path data.
//
// # Coordinates
//
// Positions are node centres. The canonical frame flows left to right;
// [Direction] rotates or mirrors it (LR, TB, RL, BT). The result is then
// shifted so the drawing starts at the origin, and Width and Height give its
// size.
//
// # Determinism
//
// Layouts are pure functions of the model, the direction and the options.
// Nothing depends on map iteration order or randomness, so identical input
// serializes to identical bytes.
package layout
