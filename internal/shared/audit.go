package shared

import (
	"context"
	"log/slog"
)

// AuditLogger writes one structured line per persisted change.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger}
}

// Record logs the event.
func (l *AuditLogger) Record(ctx context.Context, event ChangeEvent) {
	if l == nil {
		return
	}
	l.logger.InfoContext(ctx, "collection changed",
		slog.String("event_id", event.ID.String()),
		slog.String("collection", event.Collection),
		slog.String("op", string(event.Op)),
		slog.Int64("entity_id", event.EntityID),
		slog.Time("at", event.At),
	)
}

// Listener adapts Record to the Listener signature.
func (l *AuditLogger) Listener() Listener {
	return l.Record
}
