package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new JSON logger.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details.
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs one scored table.
func (l *Logger) ScoringLogger(rows, treatments int, duration time.Duration, cacheHit bool) {
	l.Info("Scoring Completed",
		"rows", rows,
		"treatment_groups", treatments,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// RenderLogger logs a chart rendering pass.
func (l *Logger) RenderLogger(chartCount int, duration time.Duration) {
	l.Info("Charts Rendered",
		"charts", chartCount,
		"duration_ms", duration.Milliseconds(),
	)
}

// ExportLogger logs a built artifact.
func (l *Logger) ExportLogger(kind string, sizeBytes int, duration time.Duration) {
	l.Info("Export Built",
		"kind", kind,
		"size_bytes", sizeBytes,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context.
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// CacheLogger logs cache operations.
func (l *Logger) CacheLogger(operation, keyHash string, hit bool, itemCount int) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key_hash", keyHash,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SystemLogger logs system-level events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
