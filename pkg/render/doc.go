// Package render turns computed workflow layouts into files.
//
// Renderers consume graph.Layout values and never compute geometry
// themselves:
//
//   - render/svg draws the layout's own node positions and edge paths
//   - render/nodelink emits Graphviz DOT with pinned positions and renders
//     it through go-graphviz
//
// [ToPDF] and [ToPNG] convert any SVG through the external rsvg-convert
// tool:
//
//	out := svg.Render(l)
//	pdf, err := render.ToPDF(ctx, out)
package render
