package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

type Conditions struct {
	Temperature   float64   `json:"temperature"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	Humidity      int       `json:"humidity"`
	WeatherCode   int       `json:"weather_code"`
	ObservedAt    time.Time `json:"observed_at"`
}

type ForecastDay struct {
	Date            string  `json:"date"`
	TempMin         float64 `json:"temp_min"`
	TempMax         float64 `json:"temp_max"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	WeatherCode     int     `json:"weather_code"`
}

type Forecast struct {
	Days []ForecastDay `json:"days"`
}

// Client talks to an Open-Meteo style forecast API. Outbound calls go
// through a token-bucket limiter and a circuit breaker so a slow or downed
// provider cannot pile up requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *Breaker
}

func NewClient(baseURL string, requestsPerSecond float64, burst int) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		breaker: NewBreaker(5, 30*time.Second),
	}
}

// BreakerState exposes the breaker for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

type currentResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Humidity      int     `json:"relative_humidity_2m"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
}

type forecastResponse struct {
	Daily struct {
		Time          []string  `json:"time"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
		WeatherCode   []int     `json:"weather_code"`
	} `json:"daily"`
}

func (c *Client) Current(ctx context.Context, latitude, longitude float64) (*Conditions, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", longitude))
	params.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,weather_code")

	var payload currentResponse
	if err := c.get(ctx, "/v1/forecast", params, &payload); err != nil {
		return nil, err
	}

	observedAt, _ := time.Parse("2006-01-02T15:04", payload.Current.Time)

	return &Conditions{
		Temperature:   payload.Current.Temperature,
		WindSpeed:     payload.Current.WindSpeed,
		WindDirection: payload.Current.WindDirection,
		Humidity:      payload.Current.Humidity,
		WeatherCode:   payload.Current.WeatherCode,
		ObservedAt:    observedAt,
	}, nil
}

func (c *Client) DailyForecast(ctx context.Context, latitude, longitude float64, days int) (*Forecast, error) {
	if days <= 0 || days > 16 {
		days = 7
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", longitude))
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	params.Set("forecast_days", fmt.Sprintf("%d", days))

	var payload forecastResponse
	if err := c.get(ctx, "/v1/forecast", params, &payload); err != nil {
		return nil, err
	}

	forecast := &Forecast{Days: make([]ForecastDay, 0, len(payload.Daily.Time))}
	for i, date := range payload.Daily.Time {
		day := ForecastDay{Date: date}
		if i < len(payload.Daily.TempMin) {
			day.TempMin = payload.Daily.TempMin[i]
		}
		if i < len(payload.Daily.TempMax) {
			day.TempMax = payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.Precipitation) {
			day.PrecipitationMM = payload.Daily.Precipitation[i]
		}
		if i < len(payload.Daily.WeatherCode) {
			day.WeatherCode = payload.Daily.WeatherCode[i]
		}
		forecast.Days = append(forecast.Days, day)
	}

	return forecast, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("weather request budget exhausted: %w", err)
	}

	return c.breaker.Call(func() error {
		endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("weather provider request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("weather provider returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode weather response: %w", err)
		}
		return nil
	})
}
