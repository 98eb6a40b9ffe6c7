package services

import (
	"context"
	"fmt"
	"time"

	"canvango_backend/internal/dto"
	"canvango_backend/internal/logger"
	"canvango_backend/internal/metrics"
	"canvango_backend/internal/models"
)

// EventStore is the durable security-event storage.
type EventStore interface {
	Create(ctx context.Context, event *models.SecurityEvent) error
	AlreadyProcessed(ctx context.Context, reference string) (bool, error)
	List(ctx context.Context, q dto.SecurityEventQuery) ([]models.SecurityEvent, int64, error)
}

// Alerter is the critical-event side channel (email in production).
type Alerter interface {
	Send(subject, body string) error
}

// AuditService records security events and fans critical ones out to the
// alert channel.
type AuditService struct {
	store   EventStore
	alerter Alerter
}

func NewAuditService(store EventStore, alerter Alerter) *AuditService {
	return &AuditService{store: store, alerter: alerter}
}

// Log persists an event best-effort. A storage failure never aborts the
// caller's request; it falls back to the process log so the signal is not
// lost entirely. Critical events additionally trigger an alert,
// asynchronously so alert-channel latency stays off the response path.
func (s *AuditService) Log(ctx context.Context, event *models.SecurityEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	metrics.SecurityEventsRecorded.WithLabelValues(string(event.Severity)).Inc()

	if err := s.store.Create(ctx, event); err != nil {
		logger.CtxWithError(ctx, "failed to persist security event", err,
			"event_type", event.EventType,
			"severity", event.Severity,
			"source_ip", event.SourceIP,
		)
	}

	if event.Severity == models.SeverityCritical {
		go s.alert(event)
	}
}

// AlreadyProcessed checks the idempotency ledger for the reference.
func (s *AuditService) AlreadyProcessed(ctx context.Context, reference string) (bool, error) {
	return s.store.AlreadyProcessed(ctx, reference)
}

// List exposes the audit trail to the admin surface.
func (s *AuditService) List(ctx context.Context, q dto.SecurityEventQuery) ([]models.SecurityEvent, int64, error) {
	return s.store.List(ctx, q)
}

func (s *AuditService) alert(event *models.SecurityEvent) {
	if s.alerter == nil {
		return
	}

	subject := fmt.Sprintf("[CRITICAL] %s", event.EventType)
	body := fmt.Sprintf(
		"<p>Critical security event recorded.</p><ul><li>Type: %s</li><li>Endpoint: %s</li><li>Source IP: %s</li><li>At: %s</li></ul>",
		event.EventType, event.Endpoint, event.SourceIP, event.CreatedAt.Format("2006-01-02 15:04:05 MST"),
	)

	if err := s.alerter.Send(subject, body); err != nil {
		logger.Error("failed to send critical alert", "error", err, "event_type", event.EventType)
		return
	}
	metrics.AlertsSent.Inc()
}
