package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// model builds a graph model from node ids and "src>dst" edge specs.
func model(nodes []string, edges ...string) *graph.Model {
	wf := &workflow.Workflow{ID: "wf"}
	for _, id := range nodes {
		wf.Nodes = append(wf.Nodes, workflow.Node{ID: workflow.ID(id)})
	}
	for _, spec := range edges {
		src, dst, _ := strings.Cut(spec, ">")
		wf.Edges = append(wf.Edges, workflow.Edge{Source: workflow.ID(src), Target: workflow.ID(dst)})
	}
	return graph.Build(wf, nil)
}

func engines() map[string]Engine {
	return map[string]Engine{
		graph.StrategyLayered: Layered{},
		graph.StrategyLinear:  Linear{},
	}
}

func TestScenarioW1(t *testing.T) {
	wf := &workflow.Workflow{
		ID: "w1",
		Nodes: []workflow.Node{
			{ID: "n1", ReferenceID: "r1", Type: "PLAIN"},
			{ID: "n2", ReferenceID: "r2", Type: "SUB_WORKFLOW"},
		},
		Edges: []workflow.Edge{{Source: "n1", Target: "n2"}},
	}
	m := graph.Build(wf, graph.MetadataMap{"r1": {ID: "r1", Name: "Start"}})

	for name, eng := range engines() {
		t.Run(name, func(t *testing.T) {
			res := eng.Layout(m, LR)

			if len(res.Nodes) != 2 || len(res.Edges) != 1 {
				t.Fatalf("nodes=%d edges=%d", len(res.Nodes), len(res.Edges))
			}
			n1, n2 := res.Nodes[0], res.Nodes[1]
			if n1.X == n2.X && n1.Y == n2.Y {
				t.Error("n1 and n2 share a position")
			}
			if n1.Rank == n2.Rank {
				t.Errorf("n1 and n2 share rank %d", n1.Rank)
			}
			if !res.Edges[0].IsStraight() {
				t.Errorf("edge routing = %s, want STRAIGHT", res.Edges[0].Routing)
			}
			if n1.Label != "Start" || n2.Metadata != nil {
				t.Errorf("labels/metadata wrong: %+v %+v", n1, n2)
			}
		})
	}
}

func TestEmptyModel(t *testing.T) {
	for name, eng := range engines() {
		res := eng.Layout(model(nil), LR)
		if len(res.Nodes) != 0 || len(res.Edges) != 0 || res.Width != 0 || res.Height != 0 {
			t.Errorf("%s: got %+v, want empty", name, res)
		}
	}
}

func TestLinear_Positions(t *testing.T) {
	tests := []struct {
		name    string
		spacing float64
		want    float64
	}{
		{"Default", 0, 180},
		{"Custom", 220, 220},
		{"ClampedToMinimum", 100, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Linear{Options: Options{Spacing: tt.spacing}}.Layout(model([]string{"a", "b", "c"}), LR)
			for i := 1; i < len(res.Nodes); i++ {
				if dx := res.Nodes[i].X - res.Nodes[i-1].X; math.Abs(dx-tt.want) > 1e-9 {
					t.Errorf("spacing = %v, want %v", dx, tt.want)
				}
				if res.Nodes[i].Y != res.Nodes[0].Y {
					t.Error("nodes should share a row")
				}
			}
		})
	}
}

func TestLinear_ParallelEdgeReclassifies(t *testing.T) {
	single := Linear{}.Layout(model([]string{"a", "b", "c"}, "a>b"), LR)
	if !single.Edges[0].IsStraight() {
		t.Fatalf("single edge = %s, want STRAIGHT", single.Edges[0].Routing)
	}

	double := Linear{}.Layout(model([]string{"a", "b", "c"}, "a>b", "a>b"), LR)
	for i, e := range double.Edges {
		if e.Routing != graph.RoutingCurved {
			t.Errorf("edge %d = %s, want CURVED", i, e.Routing)
		}
	}
	if double.Edges[0].Height != 120 || double.Edges[1].Height != 165 {
		t.Errorf("heights = %v, %v, want 120 and 165", double.Edges[0].Height, double.Edges[1].Height)
	}
}

func TestLinear_Classification(t *testing.T) {
	res := Linear{}.Layout(model([]string{"a", "b", "c", "d"}, "a>b", "b>a", "a>c", "c>d", "d>a"), LR)

	want := []string{graph.RoutingStraight, graph.RoutingCurved, graph.RoutingCurved, graph.RoutingStraight, graph.RoutingCurved}
	for i, e := range res.Edges {
		if e.Routing != want[i] {
			t.Errorf("edge %s→%s = %s, want %s", e.Source, e.Target, e.Routing, want[i])
		}
	}
}

func TestLinear_AntiparallelNeighbours(t *testing.T) {
	res := Linear{}.Layout(model([]string{"a", "b"}, "a>b", "b>a"), LR)
	fwd, back := res.Edges[0], res.Edges[1]

	if !fwd.IsStraight() {
		t.Errorf("a→b = %s, want STRAIGHT", fwd.Routing)
	}
	if back.IsStraight() || back.Sweep != graph.SweepCounterClockwise {
		t.Fatalf("b→a = %s %s, want CURVED counter-clockwise", back.Routing, back.Sweep)
	}
	if back.Control.Y <= res.Nodes[0].Y {
		t.Errorf("b→a control = %v, want below the row", *back.Control)
	}
	if fwd.SVGPath() == back.SVGPath() {
		t.Error("antiparallel edges share a path")
	}

	alone := Linear{}.Layout(model([]string{"a", "b"}, "b>a"), LR)
	if !alone.Edges[0].IsStraight() {
		t.Errorf("lone b→a = %s, want STRAIGHT", alone.Edges[0].Routing)
	}
}

func TestLinear_SweepByDirection(t *testing.T) {
	res := Linear{}.Layout(model([]string{"a", "b", "c"}, "a>c", "c>a"), LR)
	rowY := res.Nodes[0].Y

	fwd, back := res.Edges[0], res.Edges[1]
	if fwd.Sweep != graph.SweepClockwise || fwd.Control.Y >= rowY {
		t.Errorf("forward edge sweep=%s control=%v, want CW above row %v", fwd.Sweep, *fwd.Control, rowY)
	}
	if back.Sweep != graph.SweepCounterClockwise || back.Control.Y <= rowY {
		t.Errorf("backward edge sweep=%s control=%v, want CCW below row %v", back.Sweep, *back.Control, rowY)
	}
	if fwd.Height != 160 || back.Height != 175 {
		t.Errorf("heights = %v, %v, want 160 and 175", fwd.Height, back.Height)
	}
}

func TestLinear_EndpointsClipped(t *testing.T) {
	res := Linear{}.Layout(model([]string{"a", "b", "c"}, "a>b", "a>c"), LR)

	for _, e := range res.Edges {
		src, _ := res.Node(e.Source)
		dst, _ := res.Node(e.Target)
		if d := (Point{src.X, src.Y}).dist(e.Points[0]); math.Abs(d-DefaultNodeRadius) > 1e-6 {
			t.Errorf("%s start is %v from centre, want %d", e.ID, d, DefaultNodeRadius)
		}
		if d := (Point{dst.X, dst.Y}).dist(e.Points[len(e.Points)-1]); math.Abs(d-DefaultNodeRadius) > 1e-6 {
			t.Errorf("%s end is %v from centre, want %d", e.ID, d, DefaultNodeRadius)
		}
	}
}

func TestEdgesClearNodes(t *testing.T) {
	nodes := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7"}
	edges := []string{
		"n0>n1", "n0>n2", "n1>n3", "n2>n3", "n3>n4", "n0>n4",
		"n4>n1", "n2>n5", "n5>n6", "n6>n2", "n0>n7", "n7>n6",
		"n3>n4", "n1>n0", "n0>n6", "n5>n0",
	}
	m := model(nodes, edges...)

	for name, eng := range engines() {
		for _, dir := range []Direction{LR, TB, RL, BT} {
			t.Run(fmt.Sprintf("%s/%s", name, dir), func(t *testing.T) {
				res := eng.Layout(m, dir)
				for _, e := range res.Edges {
					if e.SelfLoop {
						continue
					}
					for _, n := range res.Nodes {
						if n.ID == e.Source || n.ID == e.Target {
							continue
						}
						if d := pathDistance(e, Point{n.X, n.Y}); d <= DefaultNodeRadius {
							t.Errorf("edge %s→%s passes %v from node %s", e.Source, e.Target, d, n.ID)
						}
					}
				}
			})
		}
	}
}

// pathDistance returns the smallest distance from c to the edge's geometry.
func pathDistance(e Edge, c Point) float64 {
	best := math.Inf(1)
	if e.Control != nil {
		p0, p1 := e.Points[0], e.Points[len(e.Points)-1]
		for i := 0; i <= 200; i++ {
			best = math.Min(best, quadAt(p0, *e.Control, p1, float64(i)/200).dist(c))
		}
		return best
	}
	for i := 0; i+1 < len(e.Points); i++ {
		best = math.Min(best, segmentDistance(c, e.Points[i], e.Points[i+1]))
	}
	return best
}

func TestLayered_Spacing(t *testing.T) {
	res := Layered{}.Layout(model([]string{"start", "a", "b", "end"}, "start>a", "start>b", "a>end", "b>end"), LR)

	start, _ := res.Node("start")
	a, _ := res.Node("a")
	b, _ := res.Node("b")
	end, _ := res.Node("end")

	if a.X-start.X != DefaultRankSep || end.X-a.X != DefaultRankSep {
		t.Errorf("rank spacing = %v, %v, want %d", a.X-start.X, end.X-a.X, DefaultRankSep)
	}
	if math.Abs(b.Y-a.Y) != DefaultNodeSep {
		t.Errorf("sibling spacing = %v, want %d", math.Abs(b.Y-a.Y), DefaultNodeSep)
	}
	if start.Y != (a.Y+b.Y)/2 || end.Y != start.Y {
		t.Errorf("ranks not centred: start=%v a=%v b=%v end=%v", start.Y, a.Y, b.Y, end.Y)
	}
	if len(res.Ranks) != 3 || len(res.Ranks[1]) != 2 {
		t.Errorf("ranks = %v", res.Ranks)
	}
}

func TestLayered_Directions(t *testing.T) {
	m := model([]string{"a", "b"}, "a>b")
	tests := []struct {
		dir        Direction
		dx, dy     float64
		wantWidth  float64
		wantHeight float64
	}{
		{LR, DefaultRankSep, 0, DefaultRankSep + DefaultNodeWidth, DefaultNodeHeight},
		{RL, -DefaultRankSep, 0, DefaultRankSep + DefaultNodeWidth, DefaultNodeHeight},
		{TB, 0, DefaultRankSep, DefaultNodeWidth, DefaultRankSep + DefaultNodeHeight},
		{BT, 0, -DefaultRankSep, DefaultNodeWidth, DefaultRankSep + DefaultNodeHeight},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			res := Layered{}.Layout(m, tt.dir)
			a, b := res.Nodes[0], res.Nodes[1]
			if b.X-a.X != tt.dx || b.Y-a.Y != tt.dy {
				t.Errorf("b - a = (%v, %v), want (%v, %v)", b.X-a.X, b.Y-a.Y, tt.dx, tt.dy)
			}
			if res.Width != tt.wantWidth || res.Height != tt.wantHeight {
				t.Errorf("size = %vx%v, want %vx%v", res.Width, res.Height, tt.wantWidth, tt.wantHeight)
			}
			minX, minY := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
			if minX != DefaultNodeWidth/2 || minY != DefaultNodeHeight/2 {
				t.Errorf("not normalized: min centre (%v, %v)", minX, minY)
			}
		})
	}
}

func TestLayered_CycleTerminates(t *testing.T) {
	res := Layered{}.Layout(model([]string{"a", "b", "c"}, "a>b", "b>c", "c>a"), LR)

	if len(res.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(res.Edges))
	}
	ranks := []int{res.Nodes[0].Rank, res.Nodes[1].Rank, res.Nodes[2].Rank}
	if ranks[0] != 0 || ranks[1] != 1 || ranks[2] != 2 {
		t.Errorf("ranks = %v, want [0 1 2]", ranks)
	}
	back := res.Edges[2]
	if back.Routing != graph.RoutingCurved || !back.Reversed {
		t.Errorf("closing edge = %+v, want reversed CURVED", back)
	}
}

func TestLayered_ParallelAndAntiparallel(t *testing.T) {
	t.Run("Parallel", func(t *testing.T) {
		res := Layered{}.Layout(model([]string{"a", "b"}, "a>b", "a>b"), LR)
		e0, e1 := res.Edges[0], res.Edges[1]
		if e0.IsStraight() || e1.IsStraight() {
			t.Fatal("parallel edges must be CURVED")
		}
		if e0.Height == 0 || e0.Height != e1.Height {
			t.Errorf("offsets = %v, %v, want equal and non-zero", e0.Height, e1.Height)
		}
		if e0.Points[1] == e1.Points[1] {
			t.Error("parallel edges overlap")
		}
	})

	t.Run("Antiparallel", func(t *testing.T) {
		res := Layered{}.Layout(model([]string{"a", "b"}, "a>b", "b>a"), LR)
		if !res.Edges[0].IsStraight() {
			t.Errorf("a→b = %s, want STRAIGHT", res.Edges[0].Routing)
		}
		back := res.Edges[1]
		if back.IsStraight() || !back.Reversed || back.Height == 0 {
			t.Errorf("b→a = %+v, want offset reversed CURVED", back)
		}
	})
}

func TestLayered_LongEdge(t *testing.T) {
	res := Layered{}.Layout(model([]string{"a", "b", "c"}, "a>b", "b>c", "a>c"), LR)

	long := res.Edges[2]
	if long.IsStraight() {
		t.Fatal("edge spanning two ranks must be CURVED")
	}
	if len(long.Points) < 4 {
		t.Errorf("points = %v, want bends", long.Points)
	}
	if long.Reversed {
		t.Error("a→c follows the rank order")
	}
	if p := long.SVGPath(); !strings.HasPrefix(p, "M ") || !strings.Contains(p, " Q ") {
		t.Errorf("SVGPath() = %q, want rounded polyline", p)
	}
}

func TestSelfLoopAndLoopArc(t *testing.T) {
	wf := &workflow.Workflow{
		Nodes: []workflow.Node{{ID: "a", LoopSettings: map[string]any{"times": 3}}, {ID: "b"}},
		Edges: []workflow.Edge{{Source: "a", Target: "a"}, {Source: "a", Target: "b"}, {Source: "a", Target: "a"}},
	}
	m := graph.Build(wf, nil)

	for name, eng := range engines() {
		t.Run(name, func(t *testing.T) {
			res := eng.Layout(m, TB)
			a := res.Nodes[0]

			if a.LoopArc == nil {
				t.Fatal("loop-enabled node has no arc")
			}
			if !strings.Contains(a.LoopArc.SVGPath(), " A 45 45 0 1 1 ") {
				t.Errorf("LoopArc = %q", a.LoopArc.SVGPath())
			}
			if a.LoopArc.top() >= a.Y-DefaultNodeRadius {
				t.Error("loop arc should rise above the node")
			}
			if res.Nodes[1].LoopArc != nil {
				t.Error("node b has no loop settings")
			}

			first, second := res.Edges[0], res.Edges[2]
			for _, e := range []Edge{first, second} {
				if !e.SelfLoop || e.Routing != graph.RoutingCurved || e.Control.Y >= a.Y {
					t.Errorf("self-edge = %+v, want CURVED above node", e)
				}
			}
			if second.Height <= first.Height {
				t.Error("repeated self-edges should stack")
			}
			if res.Edges[1].SelfLoop {
				t.Error("a→b is not a self-edge")
			}
			if a.LoopArc.top() < 0 {
				t.Errorf("drawing not normalized: arc top %v", a.LoopArc.top())
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	m := model(
		[]string{"n0", "n1", "n2", "n3", "n4", "n5"},
		"n0>n1", "n1>n2", "n2>n0", "n0>n3", "n3>n5", "n1>n5", "n4>n2", "n2>n4", "n0>n5", "n5>n5",
	)
	for name, eng := range engines() {
		for _, dir := range []Direction{LR, TB, RL, BT} {
			first := export(t, eng.Layout(m, dir))
			for i := 0; i < 10; i++ {
				if got := export(t, eng.Layout(m, dir)); !bytes.Equal(got, first) {
					t.Fatalf("%s/%s run %d differs", name, dir, i)
				}
			}
		}
	}
}

func export(t *testing.T, r Result) []byte {
	t.Helper()
	data, err := json.Marshal(r.Export())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestExport(t *testing.T) {
	m := model([]string{"a", "b"}, "a>b").Select("b")
	res := Linear{}.Layout(m, LR)
	l := res.Export()

	if l.Strategy != graph.StrategyLinear || l.Direction != "LR" || l.WorkflowID != "wf" {
		t.Errorf("header = %+v", l)
	}
	if l.Selected != "b" {
		t.Errorf("Selected = %q, want b", l.Selected)
	}
	if l.Edges[0].Path != "M 130 90 L 190 90" {
		t.Errorf("Path = %q", l.Edges[0].Path)
	}
	if _, err := graph.UnmarshalLayout(mustMarshal(t, l)); err != nil {
		t.Errorf("exported layout does not round-trip: %v", err)
	}
}

func mustMarshal(t *testing.T, l graph.Layout) []byte {
	t.Helper()
	data, err := graph.MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", LR, false},
		{"lr", LR, false},
		{"TB", TB, false},
		{" rl ", RL, false},
		{"bt", BT, false},
		{"diagonal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNew(t *testing.T) {
	if e, err := New("", Options{}); err != nil {
		t.Errorf("New(\"\") error = %v", err)
	} else if _, ok := e.(Layered); !ok {
		t.Errorf("New(\"\") = %T, want Layered", e)
	}
	if e, _ := New("Linear", Options{}); fmt.Sprintf("%T", e) != "layout.Linear" {
		t.Errorf("New(Linear) = %T", e)
	}
	if _, err := New("tower", Options{}); err == nil {
		t.Error("New(tower) should fail")
	}
}
