package obs

import (
	"context"

	"goa.design/clue/log"
)

// ClueLogger implements Logger by delegating to goa.design/clue/log. Callers
// are responsible for installing a log context (log.Context) upstream, e.g.
// in cmd/evalservice/main.go.
type ClueLogger struct{}

// NewClueLogger constructs a Logger backed by clue's structured logger.
func NewClueLogger() Logger { return ClueLogger{} }

// Debug emits a debug-level structured log entry.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, fields(msg, keyvals)...)
}

// Info emits an info-level structured log entry.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, fields(msg, keyvals)...)
}

// Warn emits a warning-level structured log entry.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	log.Warn(ctx, fields(msg, keyvals)...)
}

// Error emits an error-level structured log entry.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	log.Error(ctx, fields(msg, keyvals)...)
}

// fields converts a "msg" plus a flat key/value slice into clue Fielders.
// Odd trailing keys (missing a value) are logged with a "<missing>" value
// rather than dropped, so a caller mistake is visible instead of silently
// losing a field.
func fields(msg string, keyvals []any) []log.Fielder {
	out := make([]log.Fielder, 0, len(keyvals)/2+1)
	out = append(out, log.KV{K: "msg", V: msg})
	for i := 0; i < len(keyvals); i += 2 {
		key, _ := keyvals[i].(string)
		if key == "" {
			key = "field"
		}
		var val any = "<missing>"
		if i+1 < len(keyvals) {
			val = keyvals[i+1]
		}
		out = append(out, log.KV{K: key, V: val})
	}
	return out
}
