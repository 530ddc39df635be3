package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.Rollbacks == nil || r.SnapshotsCaptured == nil || r.Mutations == nil {
		t.Error("protocol metrics not initialised")
	}
	if r.RequestsTotal == nil || r.RequestDuration == nil || r.RateLimited == nil {
		t.Error("request metrics not initialised")
	}
}

func TestGlobal(t *testing.T) {
	if Global() != Global() {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	body := scrape(t, Handler())

	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestProtocolMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordMutation("user", "create")
	r.RecordMutation("user", "update")
	r.RecordMutation("user", "update")
	r.IncSnapshotCaptured("user")
	r.RecordRollback("user", RollbackRestored)
	r.RecordRollback("user", RollbackNoop)
	r.RecordRollback("user", RollbackNoop)

	body := scrape(t, r.Handler())

	want := []string{
		`snapback_mutations_total{kind="user",op="create"} 1`,
		`snapback_mutations_total{kind="user",op="update"} 2`,
		`snapback_snapshots_captured_total{kind="user"} 1`,
		`snapback_rollbacks_total{kind="user",result="restored"} 1`,
		`snapback_rollbacks_total{kind="user",result="noop"} 2`,
	}
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("expected %s", w)
		}
	}
}

func TestRequestMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordRequest("GET", "/users", "200")
	r.RecordRequest("POST", "/users", "201")
	r.ObserveRequestDuration("GET", "/users", 0.005)
	r.IncRateLimited()

	body := scrape(t, r.Handler())

	if !strings.Contains(body, `snapback_requests_total{method="GET",route="/users",status="200"} 1`) {
		t.Error("expected snapback_requests_total for GET /users 200")
	}
	if !strings.Contains(body, "snapback_request_duration_seconds_count") {
		t.Error("expected snapback_request_duration_seconds_count")
	}
	if !strings.Contains(body, "snapback_rate_limited_total 1") {
		t.Error("expected snapback_rate_limited_total 1")
	}
}

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCollector(func(context.Context) (StoreStats, error) {
		return StoreStats{Entities: 3, PendingSnapshots: 2}, nil
	}))

	body := scrape(t, r.Handler())

	if !strings.Contains(body, "snapback_store_entities 3") {
		t.Error("expected snapback_store_entities 3")
	}
	if !strings.Contains(body, "snapback_store_pending_snapshots 2") {
		t.Error("expected snapback_store_pending_snapshots 2")
	}
}

func TestCollector_Error(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCollector(func(context.Context) (StoreStats, error) {
		return StoreStats{}, errors.New("store closed")
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	// promhttp reports collection errors as a 500 by default.
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordMutation("user", "update")
				r.IncSnapshotCaptured("user")
				r.RecordRequest("PUT", "/users/{email}", "200")
				r.ObserveRequestDuration("PUT", "/users/{email}", 0.001)
			}
		}()
	}
	wg.Wait()

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `snapback_snapshots_captured_total{kind="user"} 1000`) {
		t.Error("expected snapback_snapshots_captured_total 1000")
	}
}
