// Package selection tracks which node of a workflow view is selected and
// handles drill-down navigation into sub-workflows.
//
// A [Controller] is in one of two states: nothing selected, or exactly one
// node selected. Selecting another node replaces the selection directly.
// Drilling down into a selected SUB_WORKFLOW node returns the workflow to
// load next, pushes the current workflow onto a breadcrumb trail and clears
// the selection; [Controller.Back] pops the trail.
//
// Drill-down refuses to revisit a workflow that is already on the trail
// (or is the current one) and fails with DRILLDOWN_CYCLE, unless the
// controller allows revisits.
package selection

import (
	"slices"
	"sync"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// State is the selection state.
type State int

const (
	// NoneSelected means no node is selected.
	NoneSelected State = iota
	// NodeSelected means exactly one node is selected.
	NodeSelected
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == NodeSelected {
		return "NODE_SELECTED"
	}
	return "NONE_SELECTED"
}

// Options configures a Controller.
type Options struct {
	// AllowRevisit lets drill-down load a workflow that is already on the
	// trail.
	AllowRevisit bool
}

// Controller is the selection state machine of one view. It is safe for
// concurrent use.
type Controller struct {
	mu       sync.Mutex
	opts     Options
	current  workflow.ID
	selected workflow.ID
	state    State
	trail    []workflow.ID
}

// New creates a controller showing the given workflow with nothing
// selected.
func New(current workflow.ID, opts Options) *Controller {
	return &Controller{current: current, opts: opts}
}

// State returns the current state and, for NodeSelected, the node id.
func (c *Controller) State() (State, workflow.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.selected
}

// Current returns the workflow being shown.
func (c *Controller) Current() workflow.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Trail returns the workflows drilled down from, outermost first.
func (c *Controller) Trail() []workflow.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.trail)
}

// Select selects a node, replacing any previous selection. An empty id is
// the same as Close.
func (c *Controller) Select(id workflow.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.clear()
		return
	}
	c.selected = id
	c.state = NodeSelected
}

// Close clears the selection.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

func (c *Controller) clear() {
	c.selected = ""
	c.state = NoneSelected
}

// Apply returns a copy of m with the controller's selection applied.
func (c *Controller) Apply(m *graph.Model) *graph.Model {
	_, id := c.State()
	return m.Select(id)
}

// DrillDown navigates into the selected node of m, which must be a
// SUB_WORKFLOW node. It returns the id of the workflow to load; the caller
// restarts the pipeline with it.
//
// Errors: MALFORMED_INPUT when nothing is selected or the node is not a
// sub-workflow, NOT_FOUND when the selected node is not in m, and
// DRILLDOWN_CYCLE when the target is already on the trail.
func (c *Controller) DrillDown(m *graph.Model) (workflow.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != NodeSelected {
		return "", errors.New(errors.ErrCodeMalformedInput, "no node selected")
	}
	n, ok := m.Node(c.selected)
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "node %s is not in workflow %s", c.selected, m.WorkflowID)
	}
	if !n.IsSubWorkflow() {
		return "", errors.New(errors.ErrCodeMalformedInput, "node %s is not a sub-workflow", n.ID)
	}
	target := n.ReferenceID
	if target == "" {
		return "", errors.New(errors.ErrCodeMalformedInput, "node %s references no workflow", n.ID)
	}
	if !c.opts.AllowRevisit && (target == c.current || slices.Contains(c.trail, target)) {
		return "", errors.New(errors.ErrCodeDrillDownCycle, "workflow %s is already open on the navigation trail", target)
	}

	c.trail = append(c.trail, c.current)
	c.current = target
	c.clear()
	return target, nil
}

// Back returns to the workflow drilled down from, clearing the selection.
// It reports false when the trail is empty.
func (c *Controller) Back() (workflow.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.trail) == 0 {
		return "", false
	}
	c.current = c.trail[len(c.trail)-1]
	c.trail = c.trail[:len(c.trail)-1]
	c.clear()
	return c.current, true
}

// Reset shows a different workflow from scratch: the trail and the
// selection are cleared.
func (c *Controller) Reset(current workflow.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = current
	c.trail = nil
	c.clear()
}
