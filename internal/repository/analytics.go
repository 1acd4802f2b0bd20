package repository

import (
	"context"
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/storage"
)

type AnalyticsRepository struct {
	db *storage.Postgres
}

func NewAnalyticsRepository(db *storage.Postgres) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Inserts a single analytics event
func (r *AnalyticsRepository) Create(ctx context.Context, event *models.AnalyticsEvent) error {
	return r.db.DB.WithContext(ctx).Create(event).Error
}

// Inserts multiple analytics events (for batch insertion)
func (r *AnalyticsRepository) CreateBatch(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&events).Error
}

// Counts events in a time range
func (r *AnalyticsRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

// Count events by status code range (e.g., 4xx, 5xx)
func (r *AnalyticsRepository) CountByStatusCodeRange(ctx context.Context, minStatusCode, maxStatusCode int, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Where("status_code BETWEEN ? AND ? AND timestamp BETWEEN ? AND ?", minStatusCode, maxStatusCode, from, to).
		Count(&count).Error

	return count, err
}

// Calculates average request duration
func (r *AnalyticsRepository) GetAverageDuration(ctx context.Context, from, to time.Time) (float64, error) {
	var avg float64

	err := r.db.DB.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Select("COALESCE(AVG(duration_ms), 0)").
		Scan(&avg).Error

	return avg, err
}

// Returns most frequently accessed endpoints
func (r *AnalyticsRepository) GetTopEndpoints(ctx context.Context, from, to time.Time, limit int) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	rows, err := r.db.DB.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Select("endpoint, COUNT(*) as count").
		Where("timestamp BETWEEN ? AND ?", from, to).
		Group("endpoint").
		Order("count DESC").
		Limit(limit).
		Rows()

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var endpoint string
		var count int64

		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, err
		}

		results = append(results, map[string]interface{}{
			"endpoint": endpoint,
			"count":    count,
		})
	}

	return results, nil
}

// Returns the event count grouped by hour
func (r *AnalyticsRepository) GetHourlyCounts(ctx context.Context, from, to time.Time) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	rows, err := r.db.DB.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Select("DATE_TRUNC('hour', timestamp) as hour, COUNT(*) as count, AVG(duration_ms) as avg_duration").
		Where("timestamp BETWEEN ? AND ?", from, to).
		Group("hour").
		Order("hour ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var hour time.Time
		var count int64
		var avgDuration float64
		if err := rows.Scan(&hour, &count, &avgDuration); err != nil {
			return nil, err
		}
		results = append(results, map[string]interface{}{
			"hour":         hour,
			"count":        count,
			"avg_duration": avgDuration,
		})
	}

	return results, nil
}

// Deletes events older than the specified time
func (r *AnalyticsRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&models.AnalyticsEvent{})

	return result.RowsAffected, result.Error
}
