// Package pipeline runs the workflow view pipeline: resolve catalog
// metadata, build the graph model, compute the layout and render it.
//
// # Stages
//
//  1. Resolve: one batched catalog lookup per node kind ([catalog.Resolver])
//  2. Build: the graph model with metadata and selection ([graph.Build])
//  3. Layout: coordinates and edge routing ([layout.Engine])
//  4. Render: SVG, DOT, JSON, PDF or PNG
//
// A [Runner] executes stages with caching and is shared by the CLI and the
// API. A [Surface] is one interactive view: it tracks the active workflow,
// the selection and drill-down trail, and discards results of workflows
// that are no longer active.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Input{
//	    Session:    sess,
//	    Catalog:    st,
//	    WorkflowID: "w1",
//	}, pipeline.Options{Direction: "TB", Format: pipeline.FormatSVG})
//	svg := res.Artifact
package pipeline

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultStrategy is the layout strategy used when none is given.
	DefaultStrategy = graph.StrategyLayered

	// DefaultDirection is the layout direction used when none is given.
	DefaultDirection = string(layout.LR)

	// DefaultPNGScale renders PNG at double resolution.
	DefaultPNGScale = 2.0
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatSVG      = "svg"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz" // SVG drawn by Graphviz from the DOT source
	FormatPDF      = "pdf"
	FormatPNG      = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:     true,
	FormatSVG:      true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatPDF:      true,
	FormatPNG:      true,
}

// ValidateFormat checks that a format is supported. The empty format means
// no rendering.
func ValidateFormat(format string) error {
	if format == "" || ValidFormats[format] {
		return nil
	}
	names := slices.Sorted(maps.Keys(ValidFormats))
	return errors.New(errors.ErrCodeMalformedInput, "invalid format %q (must be one of: %s)", format, strings.Join(names, ", "))
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	Strategy  string `json:"strategy,omitempty"`
	Direction string `json:"direction,omitempty"`
	// Selected is the node to mark as selected, if any.
	Selected string `json:"selected,omitempty"`
	// Format selects the rendered artifact; empty renders nothing.
	Format string `json:"format,omitempty"`
	// Detailed adds ranks and attributes to DOT labels.
	Detailed bool `json:"detailed,omitempty"`
	// Interactive adds hover highlighting to SVG output.
	Interactive bool `json:"interactive,omitempty"`
	// Refresh bypasses cached workflow lists and resolutions.
	Refresh bool `json:"refresh,omitempty"`

	Layout layout.Options `json:"-"`
	Logger *log.Logger    `json:"-"`

	direction layout.Direction
}

// ValidateAndSetDefaults normalizes the strategy and direction and checks
// the format. Errors are MALFORMED_INPUT.
func (o *Options) ValidateAndSetDefaults() error {
	strategy, err := layout.ParseStrategy(o.Strategy)
	if err != nil {
		return err
	}
	dir, err := layout.ParseDirection(o.Direction)
	if err != nil {
		return err
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	o.Strategy = strategy
	o.direction = dir
	o.Direction = string(dir)
	return nil
}

// LayoutKeyOpts returns the cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	params, _ := json.Marshal(o.Layout)
	return cache.LayoutKeyOpts{
		Strategy:  o.Strategy,
		Direction: o.Direction,
		Selected:  o.Selected,
		Params:    cache.Hash(params),
	}
}

// ArtifactKeyOpts returns the cache key options for a rendered format.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	format := o.Format
	if o.Detailed {
		format += "+detailed"
	}
	if o.Interactive {
		format += "+interactive"
	}
	return cache.ArtifactKeyOpts{Format: format}
}

// =============================================================================
// Input and Result
// =============================================================================

// Input names the workflow to show and where its data comes from.
type Input struct {
	// Session provides the connection and the cached workflow list.
	Session *session.Session
	// Catalog serves metadata lookups.
	Catalog catalog.Catalog
	// WorkflowID selects the workflow from the session's list.
	WorkflowID workflow.ID
}

// Result holds the outputs of a pipeline run.
type Result struct {
	Workflow *workflow.Workflow
	Lookup   *catalog.Lookup
	Model    *graph.Model
	Layout   graph.Layout

	// ModelHash is the content hash of the model.
	ModelHash string

	// Artifact is the rendered output when a format was requested.
	Artifact []byte

	// ResolveErr is set when metadata resolution failed. The model is still
	// built, without metadata.
	ResolveErr error

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Nodes        int
	Edges        int
	DroppedEdges int
	Records      int
	ResolveTime  time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	ResolveHit bool
	LayoutHit  bool
	RenderHit  bool
}

// connOf returns the cache identity of a session's database.
func connOf(s *session.Session) cache.Conn {
	if s == nil {
		return cache.Conn{}
	}
	return cache.Conn{URI: s.MongoURI, Database: s.DBName}
}

func refKeys(refs []workflow.NodeRef) []cache.RefKey {
	keys := make([]cache.RefKey, len(refs))
	for i, r := range refs {
		keys[i] = cache.RefKey{ID: r.ReferenceID.String(), Kind: string(r.Kind)}
	}
	return keys
}

func notFound(id workflow.ID) error {
	return errors.New(errors.ErrCodeNotFound, "workflow %s not found", id)
}
