package pipeline

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/selection"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// ErrStale is returned when a load finished after another workflow became
// active. Its result was discarded.
var ErrStale = stderrors.New("pipeline: result superseded by a newer load")

// Outcome is the result of an asynchronous load.
type Outcome struct {
	WorkflowID workflow.ID
	Result     *Result
	Err        error
}

// Surface is one interactive workflow view. At most one workflow is active;
// loads started for a workflow that is no longer active never replace the
// current result. Selecting or deselecting a node re-runs build and layout
// from the last resolution without querying the catalog again.
type Surface struct {
	runner  *Runner
	session *session.Session
	catalog catalog.Catalog
	opts    Options
	sel     *selection.Controller

	mu      sync.Mutex
	seq     uint64
	active  workflow.ID
	current *Result
}

// NewSurface creates a view over the workflows of sess.
func NewSurface(r *Runner, sess *session.Session, cat catalog.Catalog, opts Options, selOpts selection.Options) *Surface {
	return &Surface{
		runner:  r,
		session: sess,
		catalog: cat,
		opts:    opts,
		sel:     selection.New("", selOpts),
	}
}

// Active returns the workflow most recently requested.
func (s *Surface) Active() workflow.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Current returns the result of the active workflow, or nil when it has not
// loaded or was not found.
func (s *Surface) Current() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Selection exposes the selection state.
func (s *Surface) Selection() *selection.Controller { return s.sel }

// Open makes id the active workflow and loads it. The drill-down trail and
// the selection are reset.
func (s *Surface) Open(ctx context.Context, id workflow.ID) (*Result, error) {
	s.sel.Reset(id)
	return s.load(ctx, id)
}

// OpenAsync is Open in a goroutine. The channel receives exactly one
// outcome and is then closed.
func (s *Surface) OpenAsync(ctx context.Context, id workflow.ID) <-chan Outcome {
	s.sel.Reset(id)
	token := s.begin(id)
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := s.finish(ctx, id, token)
		ch <- Outcome{WorkflowID: id, Result: res, Err: err}
	}()
	return ch
}

// Select marks a node as selected and re-lays out the current workflow.
// An empty id closes the selection.
func (s *Surface) Select(ctx context.Context, id workflow.ID) (*Result, error) {
	s.sel.Select(id)
	return s.relayout(ctx)
}

// Close clears the selection and re-lays out the current workflow.
func (s *Surface) Close(ctx context.Context) (*Result, error) {
	s.sel.Close()
	return s.relayout(ctx)
}

// DrillDown opens the sub-workflow referenced by the selected node. When
// the target is not in the workflow list the surface stays on it with no
// result, and Back returns to the parent.
func (s *Surface) DrillDown(ctx context.Context) (*Result, error) {
	cur := s.Current()
	if cur == nil {
		return nil, errors.New(errors.ErrCodeMalformedInput, "no workflow loaded")
	}
	target, err := s.sel.DrillDown(cur.Model)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, target)
}

// Back returns to the workflow drilled down from. Without a trail it
// returns the current result unchanged.
func (s *Surface) Back(ctx context.Context) (*Result, error) {
	id, ok := s.sel.Back()
	if !ok {
		return s.Current(), nil
	}
	return s.load(ctx, id)
}

// =============================================================================
// Loading
// =============================================================================

func (s *Surface) load(ctx context.Context, id workflow.ID) (*Result, error) {
	return s.finish(ctx, id, s.begin(id))
}

// begin makes id active and returns the token a load must still hold to
// publish its result.
func (s *Surface) begin(id workflow.ID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.active = id
	return s.seq
}

func (s *Surface) finish(ctx context.Context, id workflow.ID, token uint64) (*Result, error) {
	opts := s.opts
	opts.Selected = ""
	res, err := s.runner.Execute(ctx, Input{Session: s.session, Catalog: s.catalog, WorkflowID: id}, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq {
		observability.Pipeline().OnStale(ctx, id.String(), s.active.String())
		return nil, ErrStale
	}
	if err != nil {
		s.current = nil
		return nil, err
	}
	s.current = res
	return res, nil
}

// relayout rebuilds the current result with the current selection. The
// stored resolution is reused.
func (s *Surface) relayout(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	cur, token := s.current, s.seq
	s.mu.Unlock()
	if cur == nil {
		return nil, errors.New(errors.ErrCodeMalformedInput, "no workflow loaded")
	}

	opts := s.opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r := s.runner
	r.applyLogger(&opts)
	_, selected := s.sel.State()
	opts.Selected = selected.String()

	next := *cur
	next.Model = r.Build(ctx, cur.Workflow, cur.Lookup, selected)
	var err error
	next.Layout, next.ModelHash, next.CacheInfo.LayoutHit, err = r.layout(ctx, next.Model, opts)
	if err != nil {
		return nil, err
	}
	next.CacheInfo.ResolveHit = true
	next.Artifact = nil
	if opts.Format != "" {
		next.Artifact, next.CacheInfo.RenderHit, err = r.RenderWithCacheInfo(ctx, next.Layout, opts)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq {
		observability.Pipeline().OnStale(ctx, cur.Workflow.ID.String(), s.active.String())
		return nil, ErrStale
	}
	s.current = &next
	return &next, nil
}
