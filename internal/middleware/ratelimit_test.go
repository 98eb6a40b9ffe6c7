package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"canvango_backend/internal/models"
	"canvango_backend/internal/ratelimit"
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []*models.SecurityEvent
}

func (a *recordingAuditor) Log(_ context.Context, event *models.SecurityEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAuditor) AlreadyProcessed(context.Context, string) (bool, error) {
	return false, nil
}

func (a *recordingAuditor) hasEvent(eventType string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

type countingStore struct {
	mu       sync.Mutex
	counts   map[string]int
	resetAt  time.Time
	failWith error
}

func (s *countingStore) Increment(_ context.Context, key string, limit int, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, time.Time{}, s.failWith
	}
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	if s.resetAt.IsZero() {
		s.resetAt = time.Now().Add(window)
	}
	if s.counts[key] <= limit {
		s.counts[key]++
	}
	return s.counts[key], s.resetAt, nil
}

func rateLimitedRouter(limiter *ratelimit.Limiter, audit *recordingAuditor, limit int, enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/cb", RateLimitMiddleware(limiter, audit, limit, 60, enabled), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func doPost(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/cb", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddlewareBlocksPastLimit(t *testing.T) {
	audit := &recordingAuditor{}
	router := rateLimitedRouter(ratelimit.NewLimiter(&countingStore{}), audit, 2, true)

	for i := 1; i <= 2; i++ {
		w := doPost(router, "103.117.57.10:1000")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
		if w.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("request %d: X-RateLimit-Limit = %q", i, w.Header().Get("X-RateLimit-Limit"))
		}
	}

	w := doPost(router, "103.117.57.10:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 response must carry Retry-After")
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", w.Header().Get("X-RateLimit-Remaining"))
	}
	if !audit.hasEvent(models.EventRateLimited) {
		t.Error("blocked request must be audited")
	}
}

func TestRateLimitMiddlewareKeysBySenderIP(t *testing.T) {
	audit := &recordingAuditor{}
	router := rateLimitedRouter(ratelimit.NewLimiter(&countingStore{}), audit, 1, true)

	if w := doPost(router, "103.117.57.10:1000"); w.Code != http.StatusOK {
		t.Fatalf("first sender: status = %d", w.Code)
	}
	if w := doPost(router, "103.117.57.10:2000"); w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP, new port: status = %d, want 429", w.Code)
	}
	if w := doPost(router, "103.171.27.5:1000"); w.Code != http.StatusOK {
		t.Errorf("different IP: status = %d, want its own window", w.Code)
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	audit := &recordingAuditor{}
	router := rateLimitedRouter(ratelimit.NewLimiter(&countingStore{}), audit, 1, false)

	for i := 0; i < 5; i++ {
		if w := doPost(router, "103.117.57.10:1000"); w.Code != http.StatusOK {
			t.Fatalf("disabled limiter blocked request %d", i)
		}
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	audit := &recordingAuditor{}
	store := &countingStore{failWith: errors.New("connection refused")}
	router := rateLimitedRouter(ratelimit.NewLimiter(store), audit, 1, true)

	for i := 0; i < 3; i++ {
		if w := doPost(router, "103.117.57.10:1000"); w.Code != http.StatusOK {
			t.Fatalf("store failure must not block request %d, got %d", i, w.Code)
		}
	}
	if !audit.hasEvent(models.EventRateLimitDegraded) {
		t.Error("store failure must be recorded as a degradation event")
	}
}
