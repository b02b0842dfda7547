package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/flowlens/pkg/dag"
)

func build(ids []string, edges [][2]string) *dag.DAG {
	g := dag.New()
	for _, id := range ids {
		g.AddNode(dag.Node{ID: id})
	}
	for _, e := range edges {
		g.AddEdge(dag.Edge{From: e[0], To: e[1]})
	}
	return g
}

func TestBreakCycles_NoCycles(t *testing.T) {
	g := build([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	reversed := BreakCycles(g)

	if len(reversed) != 0 {
		t.Errorf("BreakCycles() reversed %d edges, want 0", len(reversed))
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestBreakCycles_TwoCycleCollapses(t *testing.T) {
	g := build([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	reversed := BreakCycles(g)

	if len(reversed) != 1 || reversed[0].From != "b" || reversed[0].To != "a" {
		t.Fatalf("reversed = %v, want [b→a]", reversed)
	}
	if g.EdgeCount() != 1 || !g.HasEdge("a", "b") {
		t.Errorf("edges = %v, want only a→b", g.Edges())
	}
}

func TestBreakCycles_TriangleReversed(t *testing.T) {
	g := build([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	reversed := BreakCycles(g)

	if len(reversed) != 1 {
		t.Fatalf("reversed %d edges, want 1", len(reversed))
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3 (edge reversed, not dropped)", g.EdgeCount())
	}
	if !g.HasEdge("a", "c") {
		t.Error("expected reversed edge a→c")
	}
	for _, e := range g.Edges() {
		if e.From == "a" && e.To == "c" && e.Meta[MetaReversed] != true {
			t.Error("reversed edge should be marked")
		}
	}
}

func TestBreakCycles_SelfLoopRemoved(t *testing.T) {
	g := build([]string{"a"}, [][2]string{{"a", "a"}})

	reversed := BreakCycles(g)

	if len(reversed) != 1 || g.EdgeCount() != 0 {
		t.Errorf("reversed=%v edges=%d, want self-loop removed", reversed, g.EdgeCount())
	}
}

func TestBreakCycles_MultipleCycles(t *testing.T) {
	g := build([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "a"}, {"c", "d"}, {"d", "c"}})

	reversed := BreakCycles(g)

	if len(reversed) != 2 {
		t.Errorf("reversed %d edges, want 2", len(reversed))
	}
	if err := acyclic(g); err != nil {
		t.Error(err)
	}
}

func TestBreakCycles_Deterministic(t *testing.T) {
	ids := []string{"n5", "n1", "n3", "n2", "n4"}
	edges := [][2]string{{"n1", "n2"}, {"n2", "n3"}, {"n3", "n1"}, {"n3", "n4"}, {"n4", "n5"}, {"n5", "n3"}}

	first := BreakCycles(build(ids, edges))
	for i := 0; i < 20; i++ {
		if got := BreakCycles(build(ids, edges)); !slices.EqualFunc(got, first, sameEdge) {
			t.Fatalf("run %d reversed %v, first run reversed %v", i, got, first)
		}
	}
}

func TestAssignLayers_AfterCycleBreaking(t *testing.T) {
	g := build([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	BreakCycles(g)
	AssignLayers(g)

	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, row := range want {
		if n, _ := g.Node(id); n.Row != row {
			t.Errorf("%s.Row = %d, want %d", id, n.Row, row)
		}
	}
}

func TestAssignLayers_LongestPath(t *testing.T) {
	g := build([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}, {"c", "d"}})
	AssignLayers(g)

	if n, _ := g.Node("d"); n.Row != 3 {
		t.Errorf("d.Row = %d, want 3", n.Row)
	}
}

func TestSubdivide_Chains(t *testing.T) {
	g := build([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}})
	AssignLayers(g)

	chains := Subdivide(g)

	if len(chains) != 1 {
		t.Fatalf("chains = %d, want 1", len(chains))
	}
	c := chains[0]
	if c.From != "a" || c.To != "d" || !slices.Equal(c.Virtual, []string{"a~d~1", "a~d~2"}) {
		t.Errorf("chain = %+v", c)
	}
	for _, id := range c.Virtual {
		n, ok := g.Node(id)
		if !ok || !n.IsVirtual() || n.Origin != "a" {
			t.Errorf("virtual node %s = %+v", id, n)
		}
	}
	if g.HasEdge("a", "d") {
		t.Error("long edge should be removed")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSubdivide_IDCollision(t *testing.T) {
	g := build([]string{"a", "b", "c", "a~c~1"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})
	AssignLayers(g)

	chains := Subdivide(g)

	if len(chains) != 1 || chains[0].Virtual[0] != "a~c~1__1" {
		t.Errorf("chains = %+v, want suffixed virtual id", chains)
	}
}

func sameEdge(a, b dag.Edge) bool { return a.From == b.From && a.To == b.To }

func acyclic(g *dag.DAG) error {
	AssignLayers(g)
	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Row <= src.Row {
			return &cycleError{e}
		}
	}
	return nil
}

type cycleError struct{ e dag.Edge }

func (c *cycleError) Error() string { return "edge " + c.e.From + "→" + c.e.To + " does not point down" }

func TestPipelineYieldsValidGraph(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	edges := [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"}, {"c", "d"}, {"d", "b"},
		{"a", "f"}, {"d", "e"}, {"e", "f"}, {"f", "f"}, {"f", "a"},
	}
	g := build(ids, edges)

	BreakCycles(g)
	AssignLayers(g)
	Subdivide(g)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate = %v", err)
	}
}
