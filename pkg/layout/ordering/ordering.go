package ordering

import (
	"context"

	"github.com/matzehuels/flowlens/pkg/dag"
)

// Orderer is an interface for within-rank ordering algorithms.
// An orderer determines the sequence of nodes in each row
// to minimize edge crossings.
type Orderer interface {
	OrderRows(g *dag.DAG) map[int][]string
}

// ContextOrderer is an Orderer that supports cancellation via a context.
// On cancellation it returns the best ordering found so far.
type ContextOrderer interface {
	Orderer
	OrderRowsContext(ctx context.Context, g *dag.DAG) map[int][]string
}

// Identity keeps every row in insertion order.
type Identity struct{}

// OrderRows implements Orderer.
func (Identity) OrderRows(g *dag.DAG) map[int][]string {
	return initialOrders(g)
}

func initialOrders(g *dag.DAG) map[int][]string {
	orders := make(map[int][]string, g.RowCount())
	for _, r := range g.RowIDs() {
		orders[r] = dag.NodeIDs(g.NodesInRow(r))
	}
	return orders
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = append([]string(nil), ids...)
	}
	return out
}
