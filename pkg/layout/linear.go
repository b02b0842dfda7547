package layout

import "github.com/matzehuels/flowlens/pkg/graph"

// Linear places nodes in document order on a single row (a column for TB
// and BT) at fixed spacing.
//
// An edge between neighbours is STRAIGHT when it is the only edge of its
// ordered pair, unless it points backward and its neighbour also has an
// edge pointing forward to it; that one curves below the row so the two
// never share a line. Every other edge is a quadratic curve rising
//
//	CurveBase + distance*CurveStep + k*ParallelOffset (+ ParallelOffset/2 for odd edge indexes)
//
// above the row when it points forward and below it when it points
// backward, where k counts the earlier edges of the same ordered pair.
type Linear struct {
	Options Options
}

// Layout implements Engine.
func (l Linear) Layout(m *graph.Model, dir Direction) Result {
	opts := l.Options.withDefaults()
	res := newResult(m, graph.StrategyLinear, dir, opts)
	if len(m.Nodes) == 0 {
		return res
	}

	centre := make([]Point, len(m.Nodes))
	for i := range res.Nodes {
		centre[i] = Point{X: float64(i) * opts.Spacing}
		res.Nodes[i].X, res.Nodes[i].Y = centre[i].X, centre[i].Y
		res.Nodes[i].Rank = i
	}

	type pair struct{ a, b int }
	total := make(map[pair]int)
	for _, e := range m.Edges {
		a, _ := m.Index(e.Source)
		b, _ := m.Index(e.Target)
		total[pair{a, b}]++
	}

	seen := make(map[pair]int)
	for j, e := range m.Edges {
		out := Edge{ID: e.ID, Source: e.Source, Target: e.Target}
		if e.IsSelfLoop() {
			out.SelfLoop = true
			res.Edges = append(res.Edges, out)
			continue
		}

		a, _ := m.Index(e.Source)
		b, _ := m.Index(e.Target)
		p := pair{a, b}
		k := seen[p]
		seen[p]++
		A, B := centre[a], centre[b]
		d := a - b
		if d < 0 {
			d = -d
		}

		if d == 1 && total[p] == 1 && (a < b || total[pair{b, a}] == 0) {
			out.Routing = graph.RoutingStraight
			out.Points = []Point{towards(A, B, opts.NodeRadius), towards(B, A, opts.NodeRadius)}
			res.Edges = append(res.Edges, out)
			continue
		}

		h := opts.CurveBase + float64(d)*opts.CurveStep + float64(k)*opts.ParallelOffset
		if j%2 == 1 {
			h += opts.ParallelOffset / 2
		}
		side, sweep := -1.0, graph.SweepClockwise
		if a > b {
			side, sweep = 1.0, graph.SweepCounterClockwise
		}
		mid := midpoint(A, B)
		ctrl := Point{X: mid.X, Y: mid.Y + side*2*h}

		out.Routing = graph.RoutingCurved
		out.Points = []Point{towards(A, ctrl, opts.NodeRadius), towards(B, ctrl, opts.NodeRadius)}
		out.Control = &ctrl
		out.Height = h
		out.Sweep = sweep
		res.Edges = append(res.Edges, out)
	}

	res.finish(opts)
	return res
}
