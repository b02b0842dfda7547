package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/nodelink"
	"github.com/matzehuels/flowlens/pkg/render/svg"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// Runner executes pipeline stages with caching. It keeps no per-run state,
// so one Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means the default key scheme and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// =============================================================================
// Connect
// =============================================================================

// Connect opens the store and creates a session holding the workflow
// list. The list is served from the cache unless refresh is set. On error
// the store is closed and no session is returned.
func (r *Runner) Connect(ctx context.Context, dial store.Dialer, uri, dbName string, ttl time.Duration, refresh bool) (*session.Session, store.Store, error) {
	st, err := dial(ctx, uri, dbName)
	if err != nil {
		return nil, nil, err
	}

	list, err := r.Workflows(ctx, st, cache.Conn{URI: uri, Database: dbName}, refresh)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	sess := session.New(uri, dbName, ttl)
	if err := sess.SetWorkflows(list); err != nil {
		_ = st.Close()
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "encode workflows")
	}
	r.Logger.Info("connected", "db", dbName, "workflows", len(list))
	return sess, st, nil
}

// Workflows lists the workflows of a store, with caching.
func (r *Runner) Workflows(ctx context.Context, st store.Store, conn cache.Conn, refresh bool) ([]workflow.Workflow, error) {
	key := r.Keyer.WorkflowsKey(conn)
	if !refresh {
		var list []workflow.Workflow
		if ok, err := cache.GetJSON(ctx, r.Cache, key, &list); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "workflows")
			workflow.AssignIDs(list)
			return list, nil
		}
		observability.Cache().OnCacheMiss(ctx, "workflows")
	}

	list, err := st.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, "workflows", key, list, cache.TTLWorkflows)
	return list, nil
}

// =============================================================================
// Execute
// =============================================================================

// Execute runs resolve, build, layout and, when a format is set, render.
//
// A workflow missing from the session's list is NOT_FOUND. A failed
// resolution does not fail the run: the model is built without metadata
// and the error is reported in Result.ResolveErr.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	wf, ok := in.Session.Workflow(in.WorkflowID)
	if !ok {
		return nil, notFound(in.WorkflowID)
	}
	res := &Result{Workflow: wf}

	start := time.Now()
	lookup, hit, err := r.Resolve(ctx, in.Catalog, connOf(in.Session), wf, opts.Refresh)
	res.Lookup = lookup
	res.ResolveErr = err
	res.CacheInfo.ResolveHit = hit
	res.Stats.ResolveTime = time.Since(start)
	res.Stats.Records = lookup.Len()
	if err != nil {
		opts.Logger.Warn("metadata resolution failed", "workflow", wf.ID, "err", errors.UserMessage(err))
	}

	res.Model = r.Build(ctx, wf, lookup, workflow.ID(opts.Selected))
	res.Stats.Nodes = len(res.Model.Nodes)
	res.Stats.Edges = len(res.Model.Edges)
	res.Stats.DroppedEdges = res.Model.DroppedEdges

	start = time.Now()
	res.Layout, res.ModelHash, res.CacheInfo.LayoutHit, err = r.layout(ctx, res.Model, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LayoutTime = time.Since(start)

	if opts.Format != "" {
		start = time.Now()
		res.Artifact, res.CacheInfo.RenderHit, err = r.RenderWithCacheInfo(ctx, res.Layout, opts)
		if err != nil {
			return nil, err
		}
		res.Stats.RenderTime = time.Since(start)
	}

	opts.Logger.Debug("pipeline done",
		"workflow", wf.ID,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"records", res.Stats.Records,
		"layout", res.Stats.LayoutTime)
	return res, nil
}

// =============================================================================
// Stages
// =============================================================================

// Resolve looks up the catalog metadata of a workflow's nodes. Successful
// lookups are cached per connection, workflow and reference set. The
// returned lookup is never nil; on error it is empty.
func (r *Runner) Resolve(ctx context.Context, cat catalog.Catalog, conn cache.Conn, wf *workflow.Workflow, refresh bool) (*catalog.Lookup, bool, error) {
	refs := wf.NodeRefs()
	key := r.Keyer.ResolutionKey(conn, wf.ID.String(), refKeys(refs))

	if !refresh {
		var cached catalog.Lookup
		if ok, err := cache.GetJSON(ctx, r.Cache, key, &cached); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "resolve")
			return &cached, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "resolve")
	}

	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, wf.ID.String(), len(refs))
	start := time.Now()

	if cat == nil {
		err := errors.New(errors.ErrCodeTransport, "not connected")
		hooks.OnResolveComplete(ctx, wf.ID.String(), 0, time.Since(start), err)
		return catalog.NewLookup(nil, nil), false, err
	}
	lookup, err := catalog.NewResolver(cat, r.Logger).Resolve(ctx, wf.ID, refs)
	hooks.OnResolveComplete(ctx, wf.ID.String(), lookup.Len(), time.Since(start), err)
	if err != nil {
		return lookup, false, err
	}

	r.set(ctx, "resolve", key, lookup, cache.TTLResolution)
	return lookup, false, nil
}

// Build creates the graph model and applies the selection.
func (r *Runner) Build(ctx context.Context, wf *workflow.Workflow, lookup *catalog.Lookup, selected workflow.ID) *graph.Model {
	if lookup == nil {
		lookup = catalog.NewLookup(nil, nil)
	}
	m := graph.Build(wf, lookup)
	if selected != "" {
		m = m.Select(selected)
	}
	observability.Pipeline().OnBuildComplete(ctx, wf.ID.String(), len(m.Nodes), len(m.Edges), m.DroppedEdges)
	if m.DroppedEdges > 0 || m.DuplicateNodes > 0 {
		r.Logger.Debug("degraded model", "workflow", wf.ID, "dropped_edges", m.DroppedEdges, "duplicate_nodes", m.DuplicateNodes)
	}
	return m
}

// Layout computes the layout of a model, with caching.
func (r *Runner) Layout(ctx context.Context, m *graph.Model, opts Options) (graph.Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Layout{}, err
	}
	l, _, _, err := r.layout(ctx, m, opts)
	return l, err
}

// layout expects validated options.
func (r *Runner) layout(ctx context.Context, m *graph.Model, opts Options) (graph.Layout, string, bool, error) {
	data, err := graph.MarshalModel(m)
	if err != nil {
		return graph.Layout{}, "", false, errors.Wrap(errors.ErrCodeInternal, err, "serialize model")
	}
	modelHash := cache.Hash(data)
	key := r.Keyer.LayoutKey(modelHash, opts.LayoutKeyOpts())

	if raw, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if cached, err := graph.UnmarshalLayout(raw); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return cached, modelHash, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	eng, err := layout.New(opts.Strategy, opts.Layout)
	if err != nil {
		return graph.Layout{}, "", false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Strategy, len(m.Nodes))
	start := time.Now()
	res := eng.Layout(m, opts.direction)
	hooks.OnLayoutComplete(ctx, opts.Strategy, time.Since(start))

	out := res.Export()
	if raw, err := graph.MarshalLayout(out); err == nil {
		r.store(ctx, "layout", key, raw, cache.TTLLayout)
	}
	return out, modelHash, false, nil
}

// RenderWithCacheInfo renders a layout in opts.Format and reports whether
// the artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) ([]byte, bool, error) {
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}
	if opts.Format == "" {
		return nil, false, errors.New(errors.ErrCodeMalformedInput, "format is required")
	}

	data, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout")
	}
	key := r.Keyer.ArtifactKey(cache.Hash(data), opts.ArtifactKeyOpts())
	if out, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return out, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()
	out, err := Render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, "artifact", key, out, cache.TTLArtifact)
	return out, false, nil
}

// Render renders a layout in opts.Format without caching.
func Render(ctx context.Context, l graph.Layout, opts Options) ([]byte, error) {
	var svgOpts []svg.Option
	if opts.Interactive {
		svgOpts = append(svgOpts, svg.WithInteraction())
	}

	switch opts.Format {
	case FormatJSON:
		return graph.MarshalLayout(l)
	case FormatSVG:
		return svg.Render(l, svgOpts...), nil
	case FormatDOT:
		return []byte(nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatGraphviz:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed}))
	case FormatPDF:
		return render.ToPDF(ctx, svg.Render(l))
	case FormatPNG:
		return render.ToPNG(ctx, svg.Render(l), DefaultPNGScale)
	default:
		return nil, ValidateFormat(opts.Format)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// set caches v as JSON. Cache failures are logged, never returned.
func (r *Runner) set(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Debug("cache encode failed", "type", keyType, "err", err)
		return
	}
	r.store(ctx, keyType, key, data, ttl)
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
