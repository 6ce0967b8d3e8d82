package service

import (
	"context"
	"time"

	"github.com/jjenkins/evcms/internal/model"
	"go.uber.org/zap"
)

// Auditor records handled requests. Record must not block the request for
// long and never fails it
type Auditor interface {
	Record(ctx context.Context, e model.AuditEvent)
}

// NopAuditor discards every event
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, model.AuditEvent) {}

// LogAuditor writes events to a zap logger
type LogAuditor struct {
	logger *zap.Logger
}

// NewLogAuditor creates a new LogAuditor
func NewLogAuditor(logger *zap.Logger) *LogAuditor {
	return &LogAuditor{logger: logger}
}

func (a *LogAuditor) Record(_ context.Context, e model.AuditEvent) {
	fields := []zap.Field{
		zap.String("request_id", e.RequestID),
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.String("action", e.Action),
		zap.Int("status", e.Status),
		zap.Int64("duration_ms", e.DurationMS),
		zap.Bool("cached", e.Cached),
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}

	switch {
	case e.Status >= 500:
		a.logger.Error("cms request", fields...)
	case e.Status >= 400:
		a.logger.Warn("cms request", fields...)
	case e.Target != "":
		a.logger.Info("cms request", fields...)
	default:
		a.logger.Debug("cms request", fields...)
	}
}

// AuditInserter persists an audit event
type AuditInserter interface {
	Insert(ctx context.Context, e *model.AuditEvent) error
}

// DBAuditor stores events through an AuditInserter. Failures are logged and
// dropped
type DBAuditor struct {
	store   AuditInserter
	logger  *zap.Logger
	timeout time.Duration
}

// NewDBAuditor creates a new DBAuditor
func NewDBAuditor(store AuditInserter, logger *zap.Logger) *DBAuditor {
	return &DBAuditor{store: store, logger: logger, timeout: 2 * time.Second}
}

func (a *DBAuditor) Record(ctx context.Context, e model.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.store.Insert(ctx, &e); err != nil {
		a.logger.Warn("failed to store audit event",
			zap.String("request_id", e.RequestID),
			zap.Error(err),
		)
	}
}

// MultiAuditor fans an event out to several auditors in order
type MultiAuditor []Auditor

func (m MultiAuditor) Record(ctx context.Context, e model.AuditEvent) {
	for _, a := range m {
		a.Record(ctx, e)
	}
}
