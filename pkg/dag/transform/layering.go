package transform

import "github.com/matzehuels/flowlens/pkg/dag"

// AssignLayers assigns nodes to rows (ranks) using a longest-path
// topological traversal (Kahn's algorithm). Each node lands one row below
// the deepest of its parents, so:
//   - nodes without incoming edges are at row 0
//   - every edge points from a lower row to a higher one
//
// Existing row assignments are overwritten.
//
// # Cycles
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach
// zero in-degree and stay at row 0. Run [BreakCycles] first.
//
// # Performance
//
// O(V + E) time and O(V) space.
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		rows[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}
