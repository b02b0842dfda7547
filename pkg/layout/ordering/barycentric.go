package ordering

import (
	"context"
	"slices"

	"github.com/matzehuels/flowlens/pkg/dag"
)

// DefaultPasses is the sweep count used when Barycentric.Passes is zero.
const DefaultPasses = 24

// DefaultPatience is the number of passes without fewer crossings after
// which the search stops, used when Barycentric.Patience is zero.
const DefaultPatience = 4

// DefaultTransposeBudget caps the neighbour comparisons spent on adjacent
// swaps over a whole run, used when Barycentric.TransposeBudget is zero.
// Sweeps stay linear in the graph size; once the budget is spent only the
// barycenter sorts run.
const DefaultTransposeBudget = 1 << 21

// maxTransposeRounds bounds the adjacent-swap refinement of one sweep.
const maxTransposeRounds = 4

// Barycentric orders rows with the Sugiyama barycenter heuristic.
//
// Rows start in insertion order. Each pass sweeps once, alternating
// downwards (sort by mean parent position) and upwards (sort by mean child
// position), then swaps adjacent nodes while that lowers crossings. The
// ordering with the fewest crossings seen is returned. The search ends
// after Passes sweeps, or earlier once Patience sweeps in a row brought no
// improvement.
//
// Ties keep their current relative order, so the result depends only on
// the graph and its insertion order.
type Barycentric struct {
	Passes int
	// Patience stops the search early. Zero means DefaultPatience.
	Patience int
	// TransposeBudget bounds adjacent-swap work. Zero means
	// DefaultTransposeBudget, negative disables swapping.
	TransposeBudget int
}

// OrderRows implements Orderer.
func (b Barycentric) OrderRows(g *dag.DAG) map[int][]string {
	return b.OrderRowsContext(context.Background(), g)
}

// OrderRowsContext implements ContextOrderer.
func (b Barycentric) OrderRowsContext(ctx context.Context, g *dag.DAG) map[int][]string {
	orders, _ := b.order(ctx, g)
	return orders
}

// order runs the search and reports how many sweeps it made.
func (b Barycentric) order(ctx context.Context, g *dag.DAG) (map[int][]string, int) {
	orders := initialOrders(g)
	rows := g.RowIDs()
	if len(rows) < 2 || g.EdgeCount() == 0 {
		return orders, 0
	}

	passes := b.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}
	patience := b.Patience
	if patience <= 0 {
		patience = DefaultPatience
	}
	budget := b.TransposeBudget
	if budget == 0 {
		budget = DefaultTransposeBudget
	}

	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)

	pass, stale := 0, 0
	for ; pass < passes && bestCrossings > 0 && stale < patience; pass++ {
		if ctx.Err() != nil {
			break
		}
		down := pass%2 == 0
		sweep(g, orders, rows, down)
		if budget > 0 {
			budget -= transpose(g, orders, rows, budget)
		}

		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			bestCrossings = c
			best = cloneOrders(orders)
			stale = 0
		} else {
			stale++
		}
	}
	return best, pass
}

// sweep reorders every row but the first (down) or last (up) by the
// barycenter of its neighbours in the row just processed.
func sweep(g *dag.DAG, orders map[int][]string, rows []int, down bool) {
	if down {
		for i := 1; i < len(rows); i++ {
			reorder(g, orders, rows[i], rows[i-1], true)
		}
		return
	}
	for i := len(rows) - 2; i >= 0; i-- {
		reorder(g, orders, rows[i], rows[i+1], false)
	}
}

func reorder(g *dag.DAG, orders map[int][]string, row, adj int, useParents bool) {
	adjPos := dag.PosMap(orders[adj])
	ids := orders[row]

	type keyed struct {
		id   string
		bary float64
	}
	items := make([]keyed, len(ids))
	for i, id := range ids {
		items[i] = keyed{id: id, bary: barycenter(g, id, adjPos, useParents, float64(i))}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.bary < b.bary:
			return -1
		case a.bary > b.bary:
			return 1
		}
		return 0
	})
	for i, it := range items {
		ids[i] = it.id
	}
}

// barycenter returns the mean position of a node's neighbours in the
// adjacent row, or fallback when it has none there.
func barycenter(g *dag.DAG, id string, adjPos map[string]int, useParents bool, fallback float64) float64 {
	nbrs := g.Children(id)
	if useParents {
		nbrs = g.Parents(id)
	}
	sum, n := 0, 0
	for _, nb := range nbrs {
		if p, ok := adjPos[nb]; ok {
			sum += p
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return float64(sum) / float64(n)
}

// transpose swaps adjacent nodes whenever the swap strictly lowers the
// crossings against both neighbouring rows. It stops once budget neighbour
// comparisons are spent and returns the comparisons made.
func transpose(g *dag.DAG, orders map[int][]string, rows []int, budget int) int {
	spent := 0
	for round := 0; round < maxTransposeRounds; round++ {
		improved := false
		for i, r := range rows {
			var above, below map[string]int
			if i > 0 {
				above = dag.PosMap(orders[rows[i-1]])
			}
			if i < len(rows)-1 {
				below = dag.PosMap(orders[rows[i+1]])
			}
			ids := orders[r]
			for j := 0; j+1 < len(ids); j++ {
				l, rt := ids[j], ids[j+1]
				spent += 2 * pairCost(g, l, rt)
				if spent > budget {
					return spent
				}
				before := pairCrossings(g, l, rt, above, below)
				after := pairCrossings(g, rt, l, above, below)
				if after < before {
					ids[j], ids[j+1] = rt, l
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return spent
}

// pairCost is the number of neighbour comparisons pairCrossings makes for
// one ordering of left and right.
func pairCost(g *dag.DAG, left, right string) int {
	return g.InDegree(left)*g.InDegree(right) + g.OutDegree(left)*g.OutDegree(right)
}

func pairCrossings(g *dag.DAG, left, right string, above, below map[string]int) int {
	c := 0
	if above != nil {
		c += dag.CountPairCrossingsWithPos(g, left, right, above, true)
	}
	if below != nil {
		c += dag.CountPairCrossingsWithPos(g, left, right, below, false)
	}
	return c
}
