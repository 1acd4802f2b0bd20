package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/weather"
)

// WeatherCache is the key-value cache in front of the weather provider.
type WeatherCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// WeatherProvider supplies conditions and forecasts for coordinates.
type WeatherProvider interface {
	Current(ctx context.Context, latitude, longitude float64) (*weather.Conditions, error)
	DailyForecast(ctx context.Context, latitude, longitude float64, days int) (*weather.Forecast, error)
}

// WeatherService is a cache-aside layer over the provider. Each response
// category gets its own expiration; cache failures degrade to a provider
// call, never to an error.
type WeatherService struct {
	cache       WeatherCache
	provider    WeatherProvider
	currentTTL  time.Duration
	forecastTTL time.Duration
}

func NewWeatherService(cache WeatherCache, provider WeatherProvider, currentTTL, forecastTTL time.Duration) *WeatherService {
	if currentTTL <= 0 {
		currentTTL = 10 * time.Minute
	}
	if forecastTTL <= 0 {
		forecastTTL = time.Hour
	}

	return &WeatherService{
		cache:       cache,
		provider:    provider,
		currentTTL:  currentTTL,
		forecastTTL: forecastTTL,
	}
}

func (s *WeatherService) CurrentFor(ctx context.Context, location *models.Location) (*weather.Conditions, error) {
	cacheKey := fmt.Sprintf("weather:current:%.4f:%.4f", location.Latitude, location.Longitude)

	// Check cache first
	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var conditions weather.Conditions
		if err := json.Unmarshal([]byte(cached), &conditions); err == nil {
			return &conditions, nil
		}
	}

	// Cache miss - hit the provider
	conditions, err := s.provider.Current(ctx, location.Latitude, location.Longitude)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(conditions); err == nil {
		s.cache.Set(ctx, cacheKey, string(payload), s.currentTTL)
	}

	return conditions, nil
}

func (s *WeatherService) ForecastFor(ctx context.Context, location *models.Location, days int) (*weather.Forecast, error) {
	if days <= 0 || days > 16 {
		days = 7
	}

	cacheKey := fmt.Sprintf("weather:forecast:%.4f:%.4f:%d", location.Latitude, location.Longitude, days)

	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var forecast weather.Forecast
		if err := json.Unmarshal([]byte(cached), &forecast); err == nil {
			return &forecast, nil
		}
	}

	forecast, err := s.provider.DailyForecast(ctx, location.Latitude, location.Longitude, days)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(forecast); err == nil {
		s.cache.Set(ctx, cacheKey, string(payload), s.forecastTTL)
	}

	return forecast, nil
}
