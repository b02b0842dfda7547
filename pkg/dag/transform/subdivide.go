package transform

import (
	"fmt"

	"github.com/matzehuels/flowlens/pkg/dag"
)

// Chain lists the virtual nodes that replaced one long edge, ordered from
// From towards To.
type Chain struct {
	From    string
	To      string
	Virtual []string
}

// Subdivide replaces every edge spanning more than one row with a chain of
// [dag.NodeKindVirtual] nodes, one per intermediate row:
//
//	Before: fetch (row 0) → store (row 3)
//	After:  fetch → v1 → v2 → store
//
// Virtual nodes keep the edge's source in Origin. Edge metadata is carried
// on the last edge of each chain. The returned chains are in edge insertion
// order.
//
// # Node IDs
//
// Virtual nodes are named "from~to~row". On collision a numeric suffix is
// appended, so generated IDs never clash with workflow node IDs.
//
// Subdivide requires rows to be assigned ([AssignLayers]) and every edge to
// point downwards.
func Subdivide(g *dag.DAG) []Chain {
	gen := newIDGen(g.Nodes())

	var chains []Chain
	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		chain := Chain{From: src.ID, To: dst.ID}
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			prevID = addVirtual(g, gen, prevID, src.ID, dst.ID, row)
			chain.Virtual = append(chain.Virtual, prevID)
		}
		if err := g.AddEdge(dag.Edge{From: prevID, To: dst.ID, Meta: e.Meta}); err != nil {
			panic(err)
		}
		chains = append(chains, chain)
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
	return chains
}

func addVirtual(g *dag.DAG, gen *idGen, from, origin, target string, row int) string {
	id := gen.next(origin, target, row)
	if err := g.AddNode(dag.Node{
		ID:     id,
		Row:    row,
		Kind:   dag.NodeKindVirtual,
		Origin: origin,
	}); err != nil {
		panic(err)
	}
	if err := g.AddEdge(dag.Edge{From: from, To: id}); err != nil {
		panic(err)
	}
	return id
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(from, to string, row int) string {
	prefix := fmt.Sprintf("%s~%s~%d", from, to, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
