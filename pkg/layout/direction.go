package layout

import (
	"strings"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Direction is the flow direction of a layout.
type Direction string

// Supported directions. LR is the default.
const (
	LR Direction = graph.DirectionLR
	TB Direction = graph.DirectionTB
	RL Direction = graph.DirectionRL
	BT Direction = graph.DirectionBT
)

// ParseDirection parses a direction name, case-insensitively. The empty
// string is LR.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case "":
		return LR, nil
	case LR, TB, RL, BT:
		return d, nil
	}
	return "", errors.New(errors.ErrCodeMalformedInput, "unknown direction %q (want LR, TB, RL or BT)", s)
}

// apply maps a point of the canonical frame, where flow runs along +X, into
// this direction's frame.
func (d Direction) apply(p Point) Point {
	switch d {
	case TB:
		return Point{X: p.Y, Y: p.X}
	case RL:
		return Point{X: -p.X, Y: p.Y}
	case BT:
		return Point{X: p.Y, Y: -p.X}
	default:
		return p
	}
}
