package transform_test

import (
	"fmt"

	"github.com/matzehuels/flowlens/pkg/dag"
	"github.com/matzehuels/flowlens/pkg/dag/transform"
)

func ExampleBreakCycles() {
	// start → check → retry → check forms a retry loop
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "start"})
	_ = g.AddNode(dag.Node{ID: "check"})
	_ = g.AddNode(dag.Node{ID: "retry"})
	_ = g.AddEdge(dag.Edge{From: "start", To: "check"})
	_ = g.AddEdge(dag.Edge{From: "check", To: "retry"})
	_ = g.AddEdge(dag.Edge{From: "retry", To: "check"})

	reversed := transform.BreakCycles(g)
	for _, e := range reversed {
		fmt.Printf("reversed %s→%s\n", e.From, e.To)
	}
	fmt.Println("Edges:", g.EdgeCount())
	// Output:
	// reversed retry→check
	// Edges: 2
}

func ExampleAssignLayers() {
	// Diamond: start fans out to a and b, both feed end
	g := dag.New()
	for _, id := range []string{"start", "a", "b", "end"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "start", To: "a"})
	_ = g.AddEdge(dag.Edge{From: "start", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "end"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "end"})

	transform.AssignLayers(g)

	for _, row := range g.RowIDs() {
		fmt.Printf("Row %d: %v\n", row, dag.NodeIDs(g.NodesInRow(row)))
	}
	// Output:
	// Row 0: [start]
	// Row 1: [a b]
	// Row 2: [end]
}

func ExampleSubdivide() {
	// start → end skips a rank occupied by mid
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "start"})
	_ = g.AddNode(dag.Node{ID: "mid"})
	_ = g.AddNode(dag.Node{ID: "end"})
	_ = g.AddEdge(dag.Edge{From: "start", To: "mid"})
	_ = g.AddEdge(dag.Edge{From: "mid", To: "end"})
	_ = g.AddEdge(dag.Edge{From: "start", To: "end"})

	transform.AssignLayers(g)
	chains := transform.Subdivide(g)

	fmt.Println("Chains:", len(chains))
	fmt.Println("Virtual:", chains[0].Virtual)
	fmt.Println("Valid:", g.Validate() == nil)
	// Output:
	// Chains: 1
	// Virtual: [start~end~1]
	// Valid: true
}
