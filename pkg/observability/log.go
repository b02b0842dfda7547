package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level, except failures,
// which are logged as warnings.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

func (h *LogHooks) OnResolveStart(_ context.Context, workflowID string, refs int) {
	h.logger.Debug("resolve start", "workflow", workflowID, "refs", refs)
}

func (h *LogHooks) OnResolveComplete(_ context.Context, workflowID string, records int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("resolve failed", "workflow", workflowID, "err", err, "took", d)
		return
	}
	h.logger.Debug("resolve done", "workflow", workflowID, "records", records, "took", d)
}

func (h *LogHooks) OnBuildComplete(_ context.Context, workflowID string, nodes, edges, dropped int) {
	h.logger.Debug("model built", "workflow", workflowID, "nodes", nodes, "edges", edges, "dropped", dropped)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, strategy string, nodes int) {
	h.logger.Debug("layout start", "strategy", strategy, "nodes", nodes)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, strategy string, d time.Duration) {
	h.logger.Debug("layout done", "strategy", strategy, "took", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render start", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("render done", "format", format, "took", d)
}

func (h *LogHooks) OnStale(_ context.Context, workflowID, activeID string) {
	h.logger.Debug("discarded stale result", "workflow", workflowID, "active", activeID)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
