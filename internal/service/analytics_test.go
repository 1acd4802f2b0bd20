package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
)

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	batches [][]models.AnalyticsEvent

	countByRange int64
	clientErrors int64
	serverErrors int64
	avgDuration  float64
	queryErr     error
}

func (r *fakeAnalyticsRepo) CreateBatch(_ context.Context, events []models.AnalyticsEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := make([]models.AnalyticsEvent, len(events))
	copy(batch, events)
	r.batches = append(r.batches, batch)
	return nil
}

func (r *fakeAnalyticsRepo) CountByTimeRange(context.Context, time.Time, time.Time) (int64, error) {
	return r.countByRange, r.queryErr
}

func (r *fakeAnalyticsRepo) CountByStatusCodeRange(_ context.Context, minStatusCode, _ int, _, _ time.Time) (int64, error) {
	if minStatusCode >= 500 {
		return r.serverErrors, nil
	}
	return r.clientErrors, nil
}

func (r *fakeAnalyticsRepo) GetAverageDuration(context.Context, time.Time, time.Time) (float64, error) {
	return r.avgDuration, nil
}

func (r *fakeAnalyticsRepo) GetTopEndpoints(context.Context, time.Time, time.Time, int) ([]map[string]interface{}, error) {
	return []map[string]interface{}{{"endpoint": "/api/v1/locations", "count": int64(5)}}, nil
}

func (r *fakeAnalyticsRepo) GetHourlyCounts(context.Context, time.Time, time.Time) ([]map[string]interface{}, error) {
	return []map[string]interface{}{
		{"hour": time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), "count": int64(7), "avg_duration": 12.5},
	}, nil
}

func (r *fakeAnalyticsRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 42, nil
}

func (r *fakeAnalyticsRepo) totalEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, batch := range r.batches {
		total += len(batch)
	}
	return total
}

func (r *fakeAnalyticsRepo) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func sampleEvent(endpoint string) models.AnalyticsEvent {
	return models.AnalyticsEvent{
		ClientID:   "client_abc",
		EventType:  "api_request",
		Method:     "GET",
		Endpoint:   endpoint,
		StatusCode: 200,
		DurationMs: 12,
	}
}

func TestAnalyticsService_FlushesFullBatches(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	// Long flush interval so only batch size can trigger the insert.
	service := NewAnalyticsService(repo, 100, 3, time.Hour)
	service.Start()

	for i := 0; i < 3; i++ {
		service.Record(sampleEvent("/api/v1/events"))
	}

	deadline := time.Now().Add(2 * time.Second)
	for repo.batchCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	service.Stop()

	if repo.batchCount() != 1 {
		t.Fatalf("expected one flushed batch, got %d", repo.batchCount())
	}
	if repo.totalEvents() != 3 {
		t.Fatalf("expected 3 events flushed, got %d", repo.totalEvents())
	}
}

func TestAnalyticsService_StopDrainsBuffer(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	service := NewAnalyticsService(repo, 100, 50, time.Hour)
	service.Start()

	for i := 0; i < 7; i++ {
		service.Record(sampleEvent("/api/v1/locations"))
	}
	service.Stop()

	if repo.totalEvents() != 7 {
		t.Fatalf("expected all 7 queued events flushed on stop, got %d", repo.totalEvents())
	}
}

func TestAnalyticsService_RecordStampsTimestamp(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	service := NewAnalyticsService(repo, 10, 50, time.Hour)
	service.Start()

	service.Record(sampleEvent("/health"))
	service.Stop()

	if repo.totalEvents() != 1 {
		t.Fatalf("expected 1 event, got %d", repo.totalEvents())
	}
	if repo.batches[0][0].Timestamp.IsZero() {
		t.Fatal("expected Record to stamp a timestamp on the event")
	}
}

func TestAnalyticsService_RecordDoesNotBlockWhenFull(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	// Worker never started, so the buffer fills and stays full.
	service := NewAnalyticsService(repo, 2, 50, time.Hour)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			service.Record(sampleEvent("/api/v1/events"))
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
}

func TestAnalyticsService_GetSummary(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		countByRange: 200,
		clientErrors: 20,
		serverErrors: 10,
		avgDuration:  34.5,
	}
	service := NewAnalyticsService(repo, 10, 10, time.Hour)

	from := time.Now().Add(-24 * time.Hour)
	summary, err := service.GetSummary(context.Background(), from, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalRequests != 200 {
		t.Fatalf("expected 200 total requests, got %d", summary.TotalRequests)
	}
	if summary.ErrorRate != 15 {
		t.Fatalf("expected 15%% error rate, got %v", summary.ErrorRate)
	}
	if summary.SuccessRate != 85 {
		t.Fatalf("expected 85%% success rate, got %v", summary.SuccessRate)
	}
	if summary.ServerErrorRate != 5 {
		t.Fatalf("expected 5%% server error rate, got %v", summary.ServerErrorRate)
	}
	if summary.AvgDurationMs != 34.5 {
		t.Fatalf("expected avg duration 34.5, got %v", summary.AvgDurationMs)
	}
	if len(summary.TopEndpoints) != 1 {
		t.Fatalf("expected one top endpoint, got %d", len(summary.TopEndpoints))
	}
}

func TestAnalyticsService_GetSummaryEmptyRange(t *testing.T) {
	repo := &fakeAnalyticsRepo{countByRange: 0}
	service := NewAnalyticsService(repo, 10, 10, time.Hour)

	summary, err := service.GetSummary(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalRequests != 0 || summary.ErrorRate != 0 {
		t.Fatalf("expected zeroed summary for an empty range, got %+v", summary)
	}
}

func TestAnalyticsService_GetSummaryPropagatesQueryError(t *testing.T) {
	repo := &fakeAnalyticsRepo{queryErr: errors.New("db down")}
	service := NewAnalyticsService(repo, 10, 10, time.Hour)

	if _, err := service.GetSummary(context.Background(), time.Now().Add(-time.Hour), time.Now()); err == nil {
		t.Fatal("expected query error to propagate")
	}
}

func TestAnalyticsService_GetTimeSeries(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	service := NewAnalyticsService(repo, 10, 10, time.Hour)

	points, err := service.GetTimeSeries(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected one point, got %d", len(points))
	}
	if points[0].Count != 7 || points[0].AvgDurationMs != 12.5 {
		t.Fatalf("unexpected point: %+v", points[0])
	}
}
