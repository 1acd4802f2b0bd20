package service

import (
	"context"
	"log"
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
)

// eventWriter is the slice of the analytics repository the recorder needs.
type eventWriter interface {
	CreateBatch(ctx context.Context, events []models.AnalyticsEvent) error
}

type analyticsQueries interface {
	eventWriter
	CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error)
	CountByStatusCodeRange(ctx context.Context, minStatusCode, maxStatusCode int, from, to time.Time) (int64, error)
	GetAverageDuration(ctx context.Context, from, to time.Time) (float64, error)
	GetTopEndpoints(ctx context.Context, from, to time.Time, limit int) ([]map[string]interface{}, error)
	GetHourlyCounts(ctx context.Context, from, to time.Time) ([]map[string]interface{}, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// AnalyticsService records API interactions asynchronously and serves
// dashboard summaries. Recording is fire-and-forget: a full buffer drops the
// event rather than blocking the request that produced it.
type AnalyticsService struct {
	repo analyticsQueries

	events        chan models.AnalyticsEvent
	batchSize     int
	flushInterval time.Duration
	done          chan struct{}
	stopped       chan struct{}
}

func NewAnalyticsService(repo analyticsQueries, bufferSize, batchSize int, flushInterval time.Duration) *AnalyticsService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	return &AnalyticsService{
		repo:          repo,
		events:        make(chan models.AnalyticsEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Start launches the background worker that batches inserts.
func (s *AnalyticsService) Start() {
	go s.run()
}

// Stop drains the buffer, flushes the final batch and waits for the worker.
func (s *AnalyticsService) Stop() {
	close(s.done)
	<-s.stopped
}

// Record queues an event for insertion without blocking the caller.
func (s *AnalyticsService) Record(event models.AnalyticsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case s.events <- event:
	default:
		// Buffer full, drop rather than block the request path.
		log.Printf("analytics: event buffer full, dropping %s %s", event.Method, event.Endpoint)
	}
}

func (s *AnalyticsService) run() {
	defer close(s.stopped)

	batch := make([]models.AnalyticsEvent, 0, s.batchSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.repo.CreateBatch(context.Background(), batch); err != nil {
			log.Printf("analytics: failed to insert %d events: %v", len(batch), err)
		}
		batch = make([]models.AnalyticsEvent, 0, s.batchSize)
	}

	for {
		select {
		case event := <-s.events:
			batch = append(batch, event)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			// Drain whatever is still queued before the final flush.
			for {
				select {
				case event := <-s.events:
					batch = append(batch, event)
					if len(batch) >= s.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Holds analytics summary data
type AnalyticsSummary struct {
	TotalRequests   int64                    `json:"total_requests"`
	AvgDurationMs   float64                  `json:"avg_duration_ms"`
	ErrorRate       float64                  `json:"error_rate"`
	SuccessRate     float64                  `json:"success_rate"`
	ClientErrorRate float64                  `json:"client_error_rate"`
	ServerErrorRate float64                  `json:"server_error_rate"`
	TopEndpoints    []map[string]interface{} `json:"top_endpoints"`
}

// Holds time-series analytics data
type TimeSeriesPoint struct {
	Hour          time.Time `json:"hour"`
	Count         int64     `json:"count"`
	AvgDurationMs float64   `json:"avg_duration_ms"`
}

// Retrieves analytics summary for a time range
func (s *AnalyticsService) GetSummary(ctx context.Context, from, to time.Time) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{}

	totalRequests, err := s.repo.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalRequests = totalRequests

	if totalRequests == 0 {
		return summary, nil
	}

	avgDuration, err := s.repo.GetAverageDuration(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.AvgDurationMs = avgDuration

	clientErrors, err := s.repo.CountByStatusCodeRange(ctx, 400, 499, from, to)
	if err != nil {
		return nil, err
	}

	serverErrors, err := s.repo.CountByStatusCodeRange(ctx, 500, 599, from, to)
	if err != nil {
		return nil, err
	}

	totalErrors := clientErrors + serverErrors
	summary.ErrorRate = (float64(totalErrors) / float64(totalRequests)) * 100
	summary.SuccessRate = 100 - summary.ErrorRate
	summary.ClientErrorRate = (float64(clientErrors) / float64(totalRequests)) * 100
	summary.ServerErrorRate = (float64(serverErrors) / float64(totalRequests)) * 100

	topEndpoints, err := s.repo.GetTopEndpoints(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}
	summary.TopEndpoints = topEndpoints

	return summary, nil
}

// Retrieves hourly time-series data
func (s *AnalyticsService) GetTimeSeries(ctx context.Context, from, to time.Time) ([]TimeSeriesPoint, error) {
	hourly, err := s.repo.GetHourlyCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	points := make([]TimeSeriesPoint, 0, len(hourly))
	for _, row := range hourly {
		points = append(points, TimeSeriesPoint{
			Hour:          row["hour"].(time.Time),
			Count:         row["count"].(int64),
			AvgDurationMs: row["avg_duration"].(float64),
		})
	}

	return points, nil
}

// Deletes events older than the retention period
func (s *AnalyticsService) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutOffDate := time.Now().AddDate(0, 0, -retentionDays)
	return s.repo.DeleteOlderThan(ctx, cutOffDate)
}
