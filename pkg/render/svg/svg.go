// Package svg draws a workflow layout as a standalone SVG document.
//
// Nodes are circles labelled with their display label, edges use the
// layout's precomputed path data with an arrowhead, and loop-enabled nodes
// show their loop arc. The selected node is highlighted.
package svg

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/flowlens/pkg/graph"
)

const interactionCSS = `
    .node circle { transition: stroke-width 0.2s ease; }
    .node.highlight circle { stroke-width: 4; }
    .edge.highlight path { stroke: #1f6feb; stroke-width: 3; }
    .node { cursor: pointer; }`

const interactionJS = `
    function highlight(id) {
      document.querySelectorAll('.node').forEach(n => n.classList.toggle('highlight', n.id === 'node-' + id));
      document.querySelectorAll('.edge').forEach(e => e.classList.toggle('highlight', e.dataset.from === id || e.dataset.to === id));
    }
    function clearHighlight() {
      document.querySelectorAll('.node, .edge').forEach(el => el.classList.remove('highlight'));
    }
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('mouseenter', () => highlight(el.id.replace('node-', '')));
      el.addEventListener('mouseleave', clearHighlight);
    });`

// Option configures rendering.
type Option func(*renderer)

// WithInteraction adds hover highlighting of a node and its edges.
func WithInteraction() Option { return func(r *renderer) { r.interactive = true } }

// WithPadding sets the margin around the drawing.
func WithPadding(p float64) Option { return func(r *renderer) { r.padding = p } }

type renderer struct {
	interactive bool
	padding     float64
}

// DefaultPadding is the margin around the drawing.
const DefaultPadding = 20

// Render draws l.
func Render(l graph.Layout, opts ...Option) []byte {
	r := renderer{padding: DefaultPadding}
	for _, opt := range opts {
		opt(&r)
	}
	radius := l.NodeRadius
	if radius <= 0 {
		radius = 60
	}

	w, h := l.Width+2*r.padding, l.Height+2*r.padding
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#555"/>
    </marker>
  </defs>
`)
	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
	}
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)">`+"\n", r.padding, r.padding)

	for _, e := range l.Edges {
		renderEdge(&buf, e)
	}
	for _, n := range l.Nodes {
		renderNode(&buf, n, radius)
	}

	buf.WriteString("  </g>\n")
	if r.interactive {
		fmt.Fprintf(&buf, "  <script>%s\n  </script>\n", interactionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderEdge(buf *bytes.Buffer, e graph.Edge) {
	if e.Path == "" {
		return
	}
	class := "edge"
	if e.IsCurved() {
		class += " curved"
	}
	dash := ""
	if e.Reversed {
		dash = ` stroke-dasharray="6 4"`
	}
	fmt.Fprintf(buf, `    <g class="%s" data-from="%s" data-to="%s"><path d="%s" fill="none" stroke="#555" stroke-width="2"%s marker-end="url(#arrow)"/></g>`+"\n",
		class, esc(e.From), esc(e.To), e.Path, dash)
}

func renderNode(buf *bytes.Buffer, n graph.Node, radius float64) {
	fill, stroke := "#ffffff", "#333333"
	if n.Kind == "SUB_WORKFLOW" {
		fill = "#eef4ff"
	}
	if !n.Resolved {
		stroke = "#999999"
	}
	width := 2.0
	if n.Selected {
		stroke, width = "#1f6feb", 4
	}

	fmt.Fprintf(buf, `    <g class="node" id="node-%s">`+"\n", esc(n.ID))
	if n.LoopArc != "" {
		fmt.Fprintf(buf, `      <path class="loop" d="%s" fill="none" stroke="#555" stroke-width="2" marker-end="url(#arrow)"/>`+"\n", n.LoopArc)
	}
	fmt.Fprintf(buf, `      <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="%.0f"/>`+"\n",
		n.X, n.Y, radius, fill, stroke, width)
	fmt.Fprintf(buf, `      <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="14">%s</text>`+"\n",
		n.X, n.Y, esc(truncate(n.DisplayLabel(), 18)))
	fmt.Fprintf(buf, "      <title>%s</title>\n    </g>\n", esc(n.ID))
}

func esc(s string) string { return html.EscapeString(s) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
