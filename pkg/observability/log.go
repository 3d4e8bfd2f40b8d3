package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger. The CLI installs it when --verbose is set.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Install registers h for all hook categories.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnReadStart(_ context.Context, size int) {
	h.Logger.Debug("read start", "bytes", size)
}

func (h *LogHooks) OnReadComplete(_ context.Context, forms int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("read failed", "duration", d, "err", err)
		return
	}
	h.Logger.Debug("read complete", "forms", forms, "duration", d)
}

func (h *LogHooks) OnFormatStart(_ context.Context, forms, width int) {
	h.Logger.Debug("format start", "forms", forms, "width", width)
}

func (h *LogHooks) OnFormatComplete(_ context.Context, lines, overlong int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("format failed", "duration", d, "err", err)
		return
	}
	h.Logger.Debug("format complete", "lines", lines, "overlong", overlong, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path, requestID string) {
	h.Logger.Debug("request", "method", method, "path", path, "request_id", requestID)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, path string, err error) {
	h.Logger.Error("request failed", "method", method, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
