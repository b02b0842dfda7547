package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Layout strategies.
const (
	StrategyLayered = "layered"
	StrategyLinear  = "linear"
)

// Layout directions.
const (
	DirectionLR = "LR"
	DirectionTB = "TB"
	DirectionRL = "RL"
	DirectionBT = "BT"
)

// Edge routing classifications.
const (
	RoutingStraight = "STRAIGHT"
	RoutingCurved   = "CURVED"
)

// Arc sweep directions.
const (
	SweepClockwise        = "CW"
	SweepCounterClockwise = "CCW"
)

// =============================================================================
// Node - Positioned Workflow Node
// =============================================================================

// Node is a positioned workflow node in a serialized layout.
type Node struct {
	ID          string         `json:"id" bson:"id"`
	Label       string         `json:"label,omitempty" bson:"label,omitempty"`
	ReferenceID string         `json:"metamodelId,omitempty" bson:"metamodelId,omitempty"`
	Kind        string         `json:"kind" bson:"kind"`
	X           float64        `json:"x" bson:"x"`
	Y           float64        `json:"y" bson:"y"`
	Rank        int            `json:"rank" bson:"rank"`
	Loop        bool           `json:"loop,omitempty" bson:"loop,omitempty"`
	LoopArc     string         `json:"loopArc,omitempty" bson:"loopArc,omitempty"` // SVG path above the node
	Selected    bool           `json:"selected,omitempty" bson:"selected,omitempty"`
	Resolved    bool           `json:"resolved" bson:"resolved"` // metadata found in the catalog
	Meta        map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Routed Workflow Edge
// =============================================================================

// Point is a 2-D coordinate.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Edge is a routed edge in a serialized layout.
//
// STRAIGHT edges use Points[0] and Points[len-1] only. CURVED edges carry
// either a Control point (single quadratic curve) or intermediate bend
// points. Path is the ready-to-draw SVG path data.
type Edge struct {
	ID       string  `json:"id" bson:"id"`
	From     string  `json:"from" bson:"from"`
	To       string  `json:"to" bson:"to"`
	Routing  string  `json:"routing" bson:"routing"`
	Points   []Point `json:"points" bson:"points"`
	Control  *Point  `json:"control,omitempty" bson:"control,omitempty"`
	Height   float64 `json:"height,omitempty" bson:"height,omitempty"`
	Sweep    string  `json:"sweep,omitempty" bson:"sweep,omitempty"`
	SelfLoop bool    `json:"selfLoop,omitempty" bson:"selfLoop,omitempty"`
	Reversed bool    `json:"reversed,omitempty" bson:"reversed,omitempty"`
	Path     string  `json:"path" bson:"path"`
}

// IsCurved reports whether the edge is routed as a curve.
func (e *Edge) IsCurved() bool { return e.Routing == RoutingCurved }
