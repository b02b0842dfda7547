package transform

import "github.com/matzehuels/flowlens/pkg/dag"

// BreakCycles makes g acyclic by reversing its back edges and returns the
// edges that were reversed, in their original orientation.
//
// Workflows may contain cycles (retry paths, loops drawn as edges). They
// are never rejected: a back edge u→v is replaced by v→u so that ranking can
// proceed, and the caller still draws it from u to v. If v→u already exists
// the back edge is simply dropped from g. Self-loops are removed.
//
// Back edges are found with a depth-first search that starts from the
// sources and then from every unvisited node, always in insertion order, so
// the same graph always yields the same reversals.
func BreakCycles(g *dag.DAG) []dag.Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var backEdges []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, dag.Edge{From: node, To: child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e.From, e.To)
		if e.From == e.To || g.HasEdge(e.To, e.From) {
			continue
		}
		if err := g.AddEdge(dag.Edge{From: e.To, To: e.From, Meta: dag.Metadata{MetaReversed: true}}); err != nil {
			panic(err)
		}
	}
	return backEdges
}

// MetaReversed marks an edge added by BreakCycles.
const MetaReversed = "reversed"
