package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Records carry a "15:04:05.00" clock so
// that cache and pipeline timings can be read off a verbose run.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// formatTally counts what a format run did over its sources and
// logs the totals once at the end.
type formatTally struct {
	logger  *log.Logger
	start   time.Time
	sources int
	changed int
	cached  int
}

func newFormatTally(l *log.Logger) *formatTally {
	return &formatTally{logger: l, start: time.Now()}
}

// add records one formatted source.
func (t *formatTally) add(changed, cacheHit bool) {
	t.sources++
	if changed {
		t.changed++
	}
	if cacheHit {
		t.cached++
	}
}

// finish logs the totals under msg.
func (t *formatTally) finish(msg string) {
	t.logger.Info(msg,
		"sources", t.sources,
		"changed", t.changed,
		"cached", t.cached,
		"elapsed", time.Since(t.start).Round(time.Millisecond))
}

type loggerKey struct{}

// withLogger attaches the CLI logger to a command context.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when a command runs without one.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
