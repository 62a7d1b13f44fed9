package logging

import (
	"context"
	"log/slog"

	"rostersync/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRecordID is the standardized structured logging key for roster record identifiers.
	FieldRecordID = "record_id"
	// FieldEntityID is the standardized structured logging key for directory entity identifiers.
	FieldEntityID = "entity_id"
	// FieldTaskID is the standardized structured logging key for reconciliation task correlation ids.
	FieldTaskID = "task_id"
	// FieldOperation is the standardized structured logging key for the operation in progress.
	FieldOperation = "operation"
	// FieldTag is the standardized structured logging key for a directory tag identifier.
	FieldTag = "tag"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RecordIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldRecordID, id))
	}
	if id, ok := services.EntityIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEntityID, id))
	}
	if id, ok := services.TaskIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTaskID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
