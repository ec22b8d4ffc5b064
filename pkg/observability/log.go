package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// LogHooks reports every event at debug level on a logger. It implements
// GridHooks, FetchHooks and CacheHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnGroupShown(_ context.Context, group string, views int, d time.Duration) {
	h.logger.Debug("group shown", "group", group, "views", views, "took", d)
}

func (h *LogHooks) OnLayout(_ context.Context, tiles, width, height int) {
	h.logger.Debug("layout", "tiles", tiles, "width", width, "height", height)
}

func (h *LogHooks) OnRender(_ context.Context, view, kind string, d time.Duration) {
	h.logger.Debug("render", "view", view, "kind", kind, "took", d)
}

func (h *LogHooks) OnFetchStart(_ context.Context, imageID, view string) {
	h.logger.Debug("fetch", "image", imageID, "view", view)
}

func (h *LogHooks) OnFetchComplete(_ context.Context, imageID, view string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "image", imageID, "view", view, "err", err)
		return
	}
	h.logger.Debug("fetched", "image", imageID, "view", view,
		"size", humanize.Bytes(uint64(size)), "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "size", humanize.Bytes(uint64(size)))
}

var (
	_ GridHooks  = (*LogHooks)(nil)
	_ FetchHooks = (*LogHooks)(nil)
	_ CacheHooks = (*LogHooks)(nil)
)
