package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
)

func sample() graph.Layout {
	return graph.Layout{
		Width: 320, Height: 180, NodeRadius: 60,
		Nodes: []graph.Node{
			{ID: "a", Label: "Start", X: 70, Y: 90},
			{ID: "b", Kind: "SUB_WORKFLOW", X: 250, Y: 30, Loop: true, Selected: true},
		},
		Edges: []graph.Edge{
			{From: "a", To: "b"},
			{From: "b", To: "a", Reversed: true},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph G",
		"width=1.667",
		`"a" [label="Start", pos="70,90!"]`,
		`pos="250,150!"`,
		`"a" -> "b";`,
		`"b" -> "a" [style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q:\n%s", want, dot)
		}
	}
}

func TestFmtLabel(t *testing.T) {
	n := graph.Node{ID: "n1", Label: "Fetch", Rank: 2, Meta: map[string]any{"color": "blue"}}

	if got := fmtLabel(n, false); got != "Fetch" {
		t.Errorf("fmtLabel() simple = %q", got)
	}
	got := fmtLabel(n, true)
	if !strings.HasPrefix(got, "Fetch\n") || !strings.Contains(got, "rank: 2") || !strings.Contains(got, "color: blue") {
		t.Errorf("fmtLabel() detailed = %q", got)
	}
	if got := fmtLabel(graph.Node{ID: "n2"}, false); got != "n2" {
		t.Errorf("fmtLabel() without label = %q", got)
	}
}

func TestFmtAttrs(t *testing.T) {
	tests := []struct {
		name string
		node graph.Node
		want []string
		n    int
	}{
		{"Plain", graph.Node{ID: "p"}, nil, 2},
		{"SubWorkflow", graph.Node{ID: "s", Kind: "SUB_WORKFLOW"}, []string{"peripheries=2"}, 3},
		{"Loop", graph.Node{ID: "l", Loop: true}, []string{"penwidth=2.5"}, 3},
		{"Selected", graph.Node{ID: "x", Selected: true}, []string{`color="#1f6feb"`}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := fmtAttrs(tt.node, "label", 100)
			if len(attrs) != tt.n {
				t.Errorf("fmtAttrs() = %v, want %d attrs", attrs, tt.n)
			}
			joined := strings.Join(attrs, " ")
			for _, w := range tt.want {
				if !strings.Contains(joined, w) {
					t.Errorf("fmtAttrs() missing %q: %v", w, attrs)
				}
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeViewBox([]byte(tt.svg)); string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
