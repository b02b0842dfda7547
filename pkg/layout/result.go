package layout

import (
	"math"
	"strings"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// =============================================================================
// Result - Computed Layout
// =============================================================================

// Result is a computed layout: node centres and edge routing. It is plain
// data; renderers (JSON API, DOT/SVG, terminal) consume it separately.
type Result struct {
	WorkflowID workflow.ID
	Name       string
	Strategy   string
	Direction  Direction

	Nodes []Node
	Edges []Edge

	// Ranks lists node ids per rank in their final order (layered only).
	Ranks map[int][]workflow.ID

	Width      float64
	Height     float64
	NodeRadius float64

	DroppedEdges int
}

// Node is a positioned model node.
type Node struct {
	ID          workflow.ID
	ReferenceID workflow.ID
	Label       string
	Kind        workflow.Kind
	X, Y        float64
	Rank        int
	Loop        bool
	Selected    bool
	// LoopArc is set for loop-enabled nodes.
	LoopArc  *Arc
	Metadata *workflow.MetadataRecord
}

// Edge is a routed model edge.
//
// Points holds the clipped start, any bends, and the clipped end. A CURVED
// edge with a Control point is a single quadratic curve whose apex lies
// Height away from its chord; Sweep tells on which side, relative to the
// chord oriented from the lower to the higher node index.
type Edge struct {
	ID       workflow.ID
	Source   workflow.ID
	Target   workflow.ID
	Routing  string
	Points   []Point
	Control  *Point
	Height   float64
	Sweep    string
	SelfLoop bool
	// Reversed is set when the edge runs against the rank order because it
	// closes a cycle.
	Reversed bool
}

// IsStraight reports whether the edge is drawn as a straight segment.
func (e *Edge) IsStraight() bool { return e.Routing == graph.RoutingStraight }

// cornerRadius rounds the bends of polyline edges.
const cornerRadius = 20

// SVGPath renders the routing as SVG path data.
func (e *Edge) SVGPath() string {
	switch {
	case len(e.Points) < 2:
		return ""
	case e.Control != nil:
		var b strings.Builder
		b.WriteString("M ")
		writePoint(&b, e.Points[0])
		b.WriteString(" Q ")
		writePoint(&b, *e.Control)
		b.WriteByte(' ')
		writePoint(&b, e.Points[len(e.Points)-1])
		return b.String()
	case len(e.Points) == 2:
		var b strings.Builder
		b.WriteString("M ")
		writePoint(&b, e.Points[0])
		b.WriteString(" L ")
		writePoint(&b, e.Points[1])
		return b.String()
	default:
		return roundedPolyline(e.Points, cornerRadius)
	}
}

// Node returns the positioned node with the given id.
func (r *Result) Node(id workflow.ID) (*Node, bool) {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i], true
		}
	}
	return nil, false
}

// Export converts the result to its serialization format.
func (r *Result) Export() graph.Layout {
	out := graph.Layout{
		WorkflowID:   r.WorkflowID.String(),
		Name:         r.Name,
		Strategy:     r.Strategy,
		Direction:    string(r.Direction),
		Width:        r.Width,
		Height:       r.Height,
		NodeRadius:   r.NodeRadius,
		Nodes:        make([]graph.Node, len(r.Nodes)),
		Edges:        make([]graph.Edge, len(r.Edges)),
		DroppedEdges: r.DroppedEdges,
	}

	for i, n := range r.Nodes {
		gn := graph.Node{
			ID:          n.ID.String(),
			Label:       n.Label,
			ReferenceID: n.ReferenceID.String(),
			Kind:        string(n.Kind),
			X:           n.X,
			Y:           n.Y,
			Rank:        n.Rank,
			Loop:        n.Loop,
			Selected:    n.Selected,
			Resolved:    n.Metadata != nil,
		}
		if n.LoopArc != nil {
			gn.LoopArc = n.LoopArc.SVGPath()
		}
		if n.Metadata != nil && len(n.Metadata.Attributes) > 0 {
			gn.Meta = n.Metadata.Attributes
		}
		if n.Selected {
			out.Selected = gn.ID
		}
		out.Nodes[i] = gn
	}

	for i, e := range r.Edges {
		ge := graph.Edge{
			ID:       e.ID.String(),
			From:     e.Source.String(),
			To:       e.Target.String(),
			Routing:  e.Routing,
			Points:   make([]graph.Point, len(e.Points)),
			Height:   e.Height,
			Sweep:    e.Sweep,
			SelfLoop: e.SelfLoop,
			Reversed: e.Reversed,
			Path:     e.SVGPath(),
		}
		for j, p := range e.Points {
			ge.Points[j] = graph.Point{X: p.X, Y: p.Y}
		}
		if e.Control != nil {
			ge.Control = &graph.Point{X: e.Control.X, Y: e.Control.Y}
		}
		out.Edges[i] = ge
	}

	if len(r.Ranks) > 0 {
		out.Ranks = make(map[int][]string, len(r.Ranks))
		for rank, ids := range r.Ranks {
			s := make([]string, len(ids))
			for i, id := range ids {
				s[i] = id.String()
			}
			out.Ranks[rank] = s
		}
	}
	return out
}

// =============================================================================
// Shared finishing steps
// =============================================================================

// newResult starts a result with the model's nodes in document order.
func newResult(m *graph.Model, strategy string, dir Direction, opts Options) Result {
	r := Result{
		WorkflowID:   m.WorkflowID,
		Name:         m.Name,
		Strategy:     strategy,
		Direction:    dir,
		Nodes:        make([]Node, len(m.Nodes)),
		Edges:        make([]Edge, 0, len(m.Edges)),
		NodeRadius:   opts.NodeRadius,
		DroppedEdges: m.DroppedEdges,
	}
	for i, n := range m.Nodes {
		r.Nodes[i] = Node{
			ID:          n.ID,
			ReferenceID: n.ReferenceID,
			Label:       n.Label(),
			Kind:        n.Kind,
			Loop:        n.Loop,
			Selected:    n.Selected,
			Metadata:    n.Metadata,
		}
	}
	return r
}

// orient maps every canonical coordinate of the result into the frame of
// its direction.
func (r *Result) orient() {
	for i := range r.Nodes {
		p := r.Direction.apply(Point{r.Nodes[i].X, r.Nodes[i].Y})
		r.Nodes[i].X, r.Nodes[i].Y = p.X, p.Y
	}
	for i := range r.Edges {
		e := &r.Edges[i]
		for j := range e.Points {
			e.Points[j] = r.Direction.apply(e.Points[j])
		}
		if e.Control != nil {
			c := r.Direction.apply(*e.Control)
			e.Control = &c
		}
	}
}

// routeSelfLoops draws every self-edge as a curve above its node, stacking
// repeated self-edges of one node. Coordinates are final-frame.
func (r *Result) routeSelfLoops(opts Options) {
	index := make(map[workflow.ID]int, len(r.Nodes))
	for i, n := range r.Nodes {
		index[n.ID] = i
	}
	seen := make(map[workflow.ID]int)
	for i := range r.Edges {
		e := &r.Edges[i]
		if !e.SelfLoop {
			continue
		}
		n := r.Nodes[index[e.Source]]
		k := seen[e.Source]
		seen[e.Source]++

		h := opts.SelfLoopHeight + float64(k)*opts.ParallelOffset
		off := opts.NodeRadius * math.Sqrt2 / 2
		ctrl := Point{n.X, n.Y - opts.NodeRadius - 2*h}

		e.Routing = graph.RoutingCurved
		e.Points = []Point{{n.X - off, n.Y - off}, {n.X + off, n.Y - off}}
		e.Control = &ctrl
		e.Height = h
		e.Sweep = graph.SweepClockwise
	}
}

// addLoopArcs attaches the loop indicator to loop-enabled nodes.
func (r *Result) addLoopArcs(opts Options) {
	for i := range r.Nodes {
		if r.Nodes[i].Loop {
			r.Nodes[i].LoopArc = loopArc(Point{r.Nodes[i].X, r.Nodes[i].Y}, opts.NodeRadius, opts.LoopRadius)
		}
	}
}

// normalize shifts the drawing so its top-left corner is at the origin and
// records its size.
func (r *Result) normalize(opts Options) {
	var b bounds
	hw, hh := opts.NodeWidth/2, opts.NodeHeight/2
	for _, n := range r.Nodes {
		b.add(Point{n.X - hw, n.Y - hh})
		b.add(Point{n.X + hw, n.Y + hh})
		if n.LoopArc != nil {
			b.add(Point{n.X, n.LoopArc.top()})
		}
	}
	for _, e := range r.Edges {
		for _, p := range e.Points {
			b.add(p)
		}
		if e.Control != nil {
			b.add(quadAt(e.Points[0], *e.Control, e.Points[len(e.Points)-1], 0.5))
		}
	}
	if !b.set {
		return
	}

	dx, dy := -b.minX, -b.minY
	for i := range r.Nodes {
		n := &r.Nodes[i]
		n.X += dx
		n.Y += dy
		if n.LoopArc != nil {
			n.LoopArc.shift(dx, dy)
		}
	}
	for i := range r.Edges {
		e := &r.Edges[i]
		for j := range e.Points {
			e.Points[j] = e.Points[j].shiftBy(dx, dy)
		}
		if e.Control != nil {
			c := e.Control.shiftBy(dx, dy)
			e.Control = &c
		}
	}
	r.Width = b.maxX - b.minX
	r.Height = b.maxY - b.minY
}

// finish runs the steps shared by every strategy once canonical positions
// and non-self edges are in place. Self-edges are expected as placeholders
// with SelfLoop set.
func (r *Result) finish(opts Options) {
	r.orient()
	r.routeSelfLoops(opts)
	r.addLoopArcs(opts)
	r.normalize(opts)
}
