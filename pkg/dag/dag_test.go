package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNodeErrors(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty id: err = %v, want %v", err, ErrInvalidNodeID)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: err = %v, want %v", err, ErrDuplicateNodeID)
	}
	if n, _ := g.Node("a"); n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("err = %v, want %v", err, ErrUnknownSourceNode)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("err = %v, want %v", err, ErrUnknownTargetNode)
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})

	if !g.HasEdge("a", "b") {
		t.Fatal("HasEdge(a, b) = false")
	}
	g.RemoveEdge("a", "b")
	if g.HasEdge("a", "b") || g.EdgeCount() != 0 {
		t.Errorf("edges left after RemoveEdge: %v", g.Edges())
	}
	if g.InDegree("b") != 0 || g.OutDegree("a") != 0 {
		t.Error("adjacency not cleaned up")
	}
}

func TestSetRowsKeepsInsertionOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b"} {
		_ = g.AddNode(Node{ID: id})
	}
	g.SetRows(map[string]int{"c": 1, "a": 1, "b": 0})

	if got := NodeIDs(g.NodesInRow(1)); !slices.Equal(got, []string{"c", "a"}) {
		t.Errorf("row 1 = %v, want [c a]", got)
	}
	if got := g.RowIDs(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("RowIDs = %v", got)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a", Row: 0})
	_ = g.AddNode(Node{ID: "b", Row: 1})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "b", To: "a"})

	// b→a is also non-consecutive, which is reported first.
	if err := g.Validate(); !errors.Is(err, ErrNonConsecutiveRows) {
		t.Errorf("Validate = %v, want %v", err, ErrNonConsecutiveRows)
	}
	if err := g.detectCycles(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("detectCycles = %v, want %v", err, ErrGraphHasCycle)
	}
}

func TestCountCrossings(t *testing.T) {
	g := New()
	for _, n := range []Node{{ID: "a"}, {ID: "b"}, {ID: "x", Row: 1}, {ID: "y", Row: 1}, {ID: "z", Row: 2}} {
		_ = g.AddNode(n)
	}
	_ = g.AddEdge(Edge{From: "a", To: "y"})
	_ = g.AddEdge(Edge{From: "b", To: "x"})
	_ = g.AddEdge(Edge{From: "x", To: "z"})

	orders := map[int][]string{0: {"a", "b"}, 1: {"x", "y"}, 2: {"z"}}
	if got := CountCrossings(g, orders); got != 1 {
		t.Errorf("CountCrossings = %d, want 1", got)
	}

	below := PosMap([]string{"x", "y"})
	if got := CountPairCrossingsWithPos(g, "a", "b", below, false); got != 1 {
		t.Errorf("pair crossings (a, b) = %d, want 1", got)
	}
	if got := CountPairCrossingsWithPos(g, "b", "a", below, false); got != 0 {
		t.Errorf("pair crossings (b, a) = %d, want 0", got)
	}
	if got := CountPairCrossingsWithPos(g, "x", "y", PosMap([]string{"a", "b"}), true); got != 1 {
		t.Errorf("pair crossings parents = %d, want 1", got)
	}
}
