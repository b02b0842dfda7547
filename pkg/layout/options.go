package layout

import "math"

// Reference dimensions, in layout units.
const (
	DefaultNodeRadius     = 60
	DefaultNodeWidth      = 140
	DefaultNodeHeight     = 180
	DefaultNodeSep        = 200
	DefaultRankSep        = 300
	DefaultSpacing        = 180
	MinSpacing            = 150
	DefaultCurveBase      = 80
	DefaultCurveStep      = 40
	DefaultParallelOffset = 30
	DefaultLanePad        = 20
	DefaultSelfLoopHeight = 80
	DefaultLoopRadius     = 45
	DefaultSweeps         = 24
)

// Options controls node geometry and spacing. Zero fields take the
// defaults above.
type Options struct {
	// NodeRadius is the radius of the circle edges are clipped to.
	NodeRadius float64
	// NodeWidth and NodeHeight size the box used for the drawing bounds.
	NodeWidth  float64
	NodeHeight float64

	// NodeSep separates siblings in a rank, RankSep separates ranks
	// (layered strategy).
	NodeSep float64
	RankSep float64
	// Spacing separates consecutive nodes of the linear strategy. Values
	// below MinSpacing are raised to it.
	Spacing float64

	// Curved edges of the linear strategy rise CurveBase + distance*CurveStep
	// above the row. ParallelOffset separates parallel curves in both
	// strategies.
	CurveBase      float64
	CurveStep      float64
	ParallelOffset float64

	// LanePad is how far past the node circle a layered curve bends.
	LanePad float64
	// SelfLoopHeight is how far a self-edge rises above its node.
	SelfLoopHeight float64
	// LoopRadius is the radius of the loop indicator arc.
	LoopRadius float64
	// Sweeps bounds the crossing-reduction passes.
	Sweeps int
}

// DefaultOptions returns the reference geometry.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	def := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&o.NodeRadius, DefaultNodeRadius)
	def(&o.NodeWidth, DefaultNodeWidth)
	def(&o.NodeHeight, DefaultNodeHeight)
	def(&o.NodeSep, DefaultNodeSep)
	def(&o.RankSep, DefaultRankSep)
	def(&o.Spacing, DefaultSpacing)
	def(&o.CurveBase, DefaultCurveBase)
	def(&o.CurveStep, DefaultCurveStep)
	def(&o.ParallelOffset, DefaultParallelOffset)
	def(&o.LanePad, DefaultLanePad)
	def(&o.SelfLoopHeight, DefaultSelfLoopHeight)
	def(&o.LoopRadius, DefaultLoopRadius)
	if o.Sweeps <= 0 {
		o.Sweeps = DefaultSweeps
	}

	if o.Spacing < MinSpacing {
		o.Spacing = MinSpacing
	}
	// The arc has to span the chord between its two anchor points.
	if minR := o.NodeRadius*math.Sqrt2/2 + 1; o.LoopRadius < minR {
		o.LoopRadius = minR
	}
	return o
}

// lane is the distance from a node centre, along the rank axis, at which a
// layered curve bends into the free band between ranks.
func (o Options) lane() float64 {
	return math.Min(o.NodeRadius+o.LanePad, o.RankSep/2)
}

// maxParallelOffset bounds the sideways shift of parallel layered curves
// so they stay clear of neighbouring nodes.
func (o Options) maxParallelOffset() float64 {
	return math.Max((o.NodeSep-2*o.NodeRadius)/2-5, 0)
}
