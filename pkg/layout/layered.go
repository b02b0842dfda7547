package layout

import (
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/flowlens/pkg/dag"
	"github.com/matzehuels/flowlens/pkg/dag/transform"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout/ordering"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// Layered is the Sugiyama-style strategy:
//
//  1. one DAG edge per ordered node pair, self-edges excluded
//  2. back edges found by depth-first search in document order are reversed
//  3. longest-path ranking
//  4. edges spanning several ranks are split by virtual nodes
//  5. ranks are ordered to reduce crossings
//  6. ranks are RankSep apart, siblings NodeSep apart, each rank centred
//
// An edge is STRAIGHT when it spans one rank, follows the rank order, is
// the only edge of its ordered pair and its segment clears every other
// node. Other edges bend into the node-free band between ranks and pass
// through the positions of their virtual nodes; parallel ones are shifted
// sideways so they do not overlap.
type Layered struct {
	Options Options
	// Orderer orders nodes within ranks. Nil means ordering.Barycentric
	// with Options.Sweeps passes.
	Orderer ordering.Orderer
}

// Layout implements Engine.
func (l Layered) Layout(m *graph.Model, dir Direction) Result {
	opts := l.Options.withDefaults()
	res := newResult(m, graph.StrategyLayered, dir, opts)
	if len(m.Nodes) == 0 {
		return res
	}

	// DAG node ids are document indexes, which keeps empty or odd workflow
	// ids out of the graph and virtual ids collision-free.
	g := dag.New()
	for i := range m.Nodes {
		_ = g.AddNode(dag.Node{ID: key(i)})
	}
	for _, e := range m.Edges {
		if e.IsSelfLoop() {
			continue
		}
		a, _ := m.Index(e.Source)
		b, _ := m.Index(e.Target)
		if !g.HasEdge(key(a), key(b)) {
			_ = g.AddEdge(dag.Edge{From: key(a), To: key(b)})
		}
	}

	transform.BreakCycles(g)
	transform.AssignLayers(g)
	chains := transform.Subdivide(g)
	if err := g.Validate(); err != nil {
		panic(fmt.Sprintf("layout: ranked graph is inconsistent: %v", err))
	}

	orderer := l.Orderer
	if orderer == nil {
		orderer = ordering.Barycentric{Passes: opts.Sweeps}
	}
	orders := orderer.OrderRows(g)

	pos := make(map[string]Point, g.NodeCount())
	res.Ranks = make(map[int][]workflow.ID, len(orders))
	for _, r := range g.RowIDs() {
		ids := orders[r]
		for i, id := range ids {
			pos[id] = Point{
				X: float64(r) * opts.RankSep,
				Y: (float64(i) - float64(len(ids)-1)/2) * opts.NodeSep,
			}
			if n, ok := g.Node(id); ok && !n.IsVirtual() {
				idx, _ := strconv.Atoi(id)
				res.Ranks[r] = append(res.Ranks[r], m.Nodes[idx].ID)
			}
		}
	}
	for i := range res.Nodes {
		p := pos[key(i)]
		res.Nodes[i].X, res.Nodes[i].Y = p.X, p.Y
		n, _ := g.Node(key(i))
		res.Nodes[i].Rank = n.Row
	}

	virtual := make(map[[2]string][]string, len(chains))
	for _, c := range chains {
		virtual[[2]string{c.From, c.To}] = c.Virtual
	}

	rt := &router{m: m, g: g, orders: orders, pos: pos, virtual: virtual, opts: opts}
	res.Edges = rt.route()

	res.finish(opts)
	return res
}

func key(i int) string { return strconv.Itoa(i) }

// router turns model edges into routed layout edges.
type router struct {
	m       *graph.Model
	g       *dag.DAG
	orders  map[int][]string
	pos     map[string]Point
	virtual map[[2]string][]string
	opts    Options
}

// plan is the routing decision for one non-self edge.
type plan struct {
	path     []string // DAG ids from source to target
	reversed bool
	straight bool
	offset   float64
}

func (rt *router) route() []Edge {
	type pair struct{ a, b int }
	ordered := make(map[pair]int)
	for _, e := range rt.m.Edges {
		a, _ := rt.m.Index(e.Source)
		b, _ := rt.m.Index(e.Target)
		ordered[pair{a, b}]++
	}

	plans := make([]*plan, len(rt.m.Edges))
	groups := make(map[pair][]int) // unordered pair -> edge indexes
	var groupOrder []pair
	for j, e := range rt.m.Edges {
		if e.IsSelfLoop() {
			continue
		}
		a, _ := rt.m.Index(e.Source)
		b, _ := rt.m.Index(e.Target)
		p := rt.path(a, b)
		p.straight = len(p.path) == 2 && !p.reversed && ordered[pair{a, b}] == 1 && rt.clear(p.path[0], p.path[1])
		plans[j] = p

		u := pair{min(a, b), max(a, b)}
		if _, ok := groups[u]; !ok {
			groupOrder = append(groupOrder, u)
		}
		groups[u] = append(groups[u], j)
	}

	for _, u := range groupOrder {
		rt.assignOffsets(plans, groups[u])
	}

	edges := make([]Edge, 0, len(rt.m.Edges))
	for j, e := range rt.m.Edges {
		out := Edge{ID: e.ID, Source: e.Source, Target: e.Target}
		p := plans[j]
		switch {
		case p == nil:
			out.SelfLoop = true
		case p.straight:
			a, b := rt.pos[p.path[0]], rt.pos[p.path[1]]
			out.Routing = graph.RoutingStraight
			out.Points = []Point{towards(a, b, rt.opts.NodeRadius), towards(b, a, rt.opts.NodeRadius)}
		default:
			out.Routing = graph.RoutingCurved
			out.Points = rt.lanePoints(p)
			out.Height = math.Abs(p.offset)
			out.Reversed = p.reversed
		}
		edges = append(edges, out)
	}
	return edges
}

// path returns the DAG nodes an edge a→b passes through, oriented from a
// to b. After cycle breaking exactly one of a→b and b→a is in the DAG.
func (rt *router) path(a, b int) *plan {
	ka, kb := key(a), key(b)
	na, _ := rt.g.Node(ka)
	nb, _ := rt.g.Node(kb)

	if na.Row < nb.Row {
		path := append([]string{ka}, rt.virtual[[2]string{ka, kb}]...)
		return &plan{path: append(path, kb)}
	}

	path := append([]string{kb}, rt.virtual[[2]string{kb, ka}]...)
	path = append(path, ka)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return &plan{path: path, reversed: true}
}

// clear reports whether the segment between two nodes of adjacent ranks
// keeps NodeRadius away from every other real node of those ranks.
func (rt *router) clear(from, to string) bool {
	a, b := rt.pos[from], rt.pos[to]
	for _, id := range []string{from, to} {
		n, _ := rt.g.Node(id)
		for _, other := range rt.orders[n.Row] {
			if other == from || other == to {
				continue
			}
			if o, _ := rt.g.Node(other); o.IsVirtual() {
				continue
			}
			if segmentDistance(rt.pos[other], a, b) <= rt.opts.NodeRadius {
				return false
			}
		}
	}
	return true
}

// assignOffsets spreads the curved edges between one pair of nodes over
// alternating sides: +1, -1, +2, -2 steps. A lone curved edge without a
// straight sibling stays centred.
func (rt *router) assignOffsets(plans []*plan, group []int) {
	var curved []int
	hasStraight := false
	for _, j := range group {
		if plans[j].straight {
			hasStraight = true
			continue
		}
		curved = append(curved, j)
	}
	if len(curved) == 0 || (len(curved) == 1 && !hasStraight) {
		return
	}

	maxSlot := float64((len(curved) + 1) / 2)
	step := math.Min(rt.opts.ParallelOffset, rt.opts.maxParallelOffset()/maxSlot)
	for i, j := range curved {
		slot := float64(i/2 + 1)
		if i%2 == 1 {
			slot = -slot
		}
		plans[j].offset = slot * step
	}
}

// lanePoints routes a curved edge along its path. Each hop between ranks
// leaves a node along the rank axis, crosses the free band between ranks
// and enters the next node along the rank axis. The interior is shifted
// sideways by the edge's parallel offset and the ends are clipped to the
// node circles.
func (rt *router) lanePoints(p *plan) []Point {
	lane := rt.opts.lane()
	centres := make([]Point, len(p.path))
	for i, id := range p.path {
		centres[i] = rt.pos[id]
	}

	pts := []Point{centres[0]}
	for i := 0; i+1 < len(centres); i++ {
		a, b := centres[i], centres[i+1]
		sgn := 1.0
		if b.X < a.X {
			sgn = -1
		}
		pts = append(pts,
			Point{a.X + sgn*lane, a.Y + p.offset},
			Point{b.X - sgn*lane, b.Y + p.offset},
		)
	}
	pts = append(pts, centres[len(centres)-1])

	last := len(pts) - 1
	pts[0] = towards(centres[0], pts[1], rt.opts.NodeRadius)
	pts[last] = towards(centres[len(centres)-1], pts[last-1], rt.opts.NodeRadius)
	return dedupe(pts)
}

// dedupe drops consecutive duplicate points, which appear where a bend
// lines up exactly with the next one.
func dedupe(pts []Point) []Point {
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
