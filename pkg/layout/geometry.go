package layout

import (
	"math"
	"strconv"
	"strings"
)

// Point is a 2-D coordinate.
type Point struct {
	X, Y float64
}

func (p Point) add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) scale(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) length() float64 { return math.Hypot(p.X, p.Y) }
func (p Point) dist(q Point) float64 { return p.sub(q).length() }
func midpoint(a, b Point) Point { return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2} }
func (p Point) shiftBy(dx, dy float64) Point { return Point{p.X + dx, p.Y + dy} }

// towards moves dist units from `from` in the direction of `to`.
func towards(from, to Point, dist float64) Point {
	d := to.sub(from)
	l := d.length()
	if l == 0 {
		return from
	}
	return from.add(d.scale(dist / l))
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(p, a, b Point) float64 {
	ab := b.sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.dist(a.add(ab.scale(t)))
}

// quadAt evaluates the quadratic Bézier p0-c-p1 at t.
func quadAt(p0, c, p1 Point, t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
		Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
	}
}

// Arc is a circular arc drawn above a loop-enabled node.
type Arc struct {
	Start  Point
	End    Point
	Radius float64
}

// loopArc anchors an arc at ±45° on the top of a node circle and bulges it
// upwards.
func loopArc(centre Point, nodeRadius, radius float64) *Arc {
	off := nodeRadius * math.Sqrt2 / 2
	return &Arc{
		Start:  Point{centre.X - off, centre.Y - off},
		End:    Point{centre.X + off, centre.Y - off},
		Radius: radius,
	}
}

// top returns the highest point of the arc (smallest Y).
func (a *Arc) top() float64 {
	half := a.Start.dist(a.End) / 2
	rise := math.Sqrt(math.Max(a.Radius*a.Radius-half*half, 0))
	return math.Min(a.Start.Y, a.End.Y) - rise - a.Radius
}

func (a *Arc) shift(dx, dy float64) {
	a.Start = a.Start.shiftBy(dx, dy)
	a.End = a.End.shiftBy(dx, dy)
}

// SVGPath renders the arc as SVG path data. The large-arc flag makes it
// pass over the top of the node.
func (a *Arc) SVGPath() string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, a.Start)
	b.WriteString(" A ")
	b.WriteString(num(a.Radius))
	b.WriteByte(' ')
	b.WriteString(num(a.Radius))
	b.WriteString(" 0 1 1 ")
	writePoint(&b, a.End)
	return b.String()
}

// roundedPolyline renders pts as a path whose interior corners are rounded
// with quadratic curves of at most radius r.
func roundedPolyline(pts []Point, r float64) string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, pts[0])
	for i := 1; i < len(pts)-1; i++ {
		prev, cur, next := pts[i-1], pts[i], pts[i+1]
		cr := math.Min(r, math.Min(cur.dist(prev), cur.dist(next))/2)
		b.WriteString(" L ")
		writePoint(&b, towards(cur, prev, cr))
		b.WriteString(" Q ")
		writePoint(&b, cur)
		b.WriteByte(' ')
		writePoint(&b, towards(cur, next, cr))
	}
	b.WriteString(" L ")
	writePoint(&b, pts[len(pts)-1])
	return b.String()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(num(p.X))
	b.WriteByte(' ')
	b.WriteString(num(p.Y))
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// bounds accumulates the extent of a drawing.
type bounds struct {
	minX, minY, maxX, maxY float64
	set                    bool
}

func (b *bounds) add(p Point) {
	if !b.set {
		b.minX, b.maxX, b.minY, b.maxY = p.X, p.X, p.Y, p.Y
		b.set = true
		return
	}
	b.minX = math.Min(b.minX, p.X)
	b.maxX = math.Max(b.maxX, p.X)
	b.minY = math.Min(b.minY, p.Y)
	b.maxY = math.Max(b.maxY, p.Y)
}
