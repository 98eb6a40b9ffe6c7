package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"canvango_backend/internal/dto"
	"canvango_backend/internal/models"
)

type memoryEventStore struct {
	mu        sync.Mutex
	events    []*models.SecurityEvent
	createErr error
}

func (s *memoryEventStore) Create(_ context.Context, event *models.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *memoryEventStore) AlreadyProcessed(_ context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.DedupRef != nil && *e.DedupRef == reference {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryEventStore) List(_ context.Context, q dto.SecurityEventQuery) ([]models.SecurityEvent, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SecurityEvent
	for _, e := range s.events {
		if q.Severity != "" && string(e.Severity) != q.Severity {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

type channelAlerter struct {
	sent chan string
	err  error
}

func (a *channelAlerter) Send(subject, _ string) error {
	if a.err != nil {
		return a.err
	}
	a.sent <- subject
	return nil
}

func TestAuditLogPersistsAndTimestamps(t *testing.T) {
	store := &memoryEventStore{}
	svc := NewAuditService(store, nil)

	svc.Log(context.Background(), &models.SecurityEvent{
		EventType: models.EventCallbackReceived,
		Severity:  models.SeverityLow,
		SourceIP:  "103.117.57.10",
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.events) != 1 {
		t.Fatalf("stored %d events, want 1", len(store.events))
	}
	if store.events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt must be stamped when the caller left it zero")
	}
}

func TestAuditLogSurvivesStoreFailure(t *testing.T) {
	store := &memoryEventStore{createErr: errors.New("disk full")}
	svc := NewAuditService(store, nil)

	// Must not panic or block; the fallback is the process log.
	svc.Log(context.Background(), &models.SecurityEvent{
		EventType: models.EventSignatureInvalid,
		Severity:  models.SeverityHigh,
	})
}

func TestAuditCriticalEventTriggersAlert(t *testing.T) {
	store := &memoryEventStore{}
	alerter := &channelAlerter{sent: make(chan string, 1)}
	svc := NewAuditService(store, alerter)

	svc.Log(context.Background(), &models.SecurityEvent{
		EventType: models.EventSignatureInvalid,
		Severity:  models.SeverityCritical,
		SourceIP:  "8.8.8.8",
		Endpoint:  "/api/tripay-callback",
	})

	select {
	case subject := <-alerter.sent:
		if !strings.Contains(subject, models.EventSignatureInvalid) {
			t.Errorf("alert subject %q must name the event type", subject)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("critical event did not produce an alert")
	}
}

func TestAuditNonCriticalEventsDoNotAlert(t *testing.T) {
	store := &memoryEventStore{}
	alerter := &channelAlerter{sent: make(chan string, 1)}
	svc := NewAuditService(store, alerter)

	for _, sev := range []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh} {
		svc.Log(context.Background(), &models.SecurityEvent{
			EventType: models.EventRateLimited,
			Severity:  sev,
		})
	}

	select {
	case subject := <-alerter.sent:
		t.Errorf("unexpected alert %q for a non-critical event", subject)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAuditAlreadyProcessedConsultsLedger(t *testing.T) {
	store := &memoryEventStore{}
	svc := NewAuditService(store, nil)

	ref := "T123456"
	store.Create(context.Background(), &models.SecurityEvent{
		EventType: models.EventCallbackReceived,
		Severity:  models.SeverityLow,
		DedupRef:  &ref,
	})

	done, err := svc.AlreadyProcessed(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("a reference in the ledger must read as processed")
	}

	done, err = svc.AlreadyProcessed(context.Background(), "T-unseen")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("an unseen reference must not read as processed")
	}
}
