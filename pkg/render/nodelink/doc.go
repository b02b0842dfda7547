// Package nodelink renders workflow layouts as Graphviz node-link diagrams.
//
// [ToDOT] emits DOT source with every node pinned to its computed position;
// [RenderSVG] runs it through the neato engine of go-graphviz, which keeps
// the pins and only routes edges. The DOT text itself is useful for
// external tooling:
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderPDF] and [RenderPNG] convert the SVG with rsvg-convert.
package nodelink
