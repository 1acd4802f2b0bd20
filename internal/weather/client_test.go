package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("latitude") == "" {
			t.Fatal("expected latitude query parameter")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current": {
				"time": "2025-06-01T12:00",
				"temperature_2m": 21.4,
				"relative_humidity_2m": 63,
				"wind_speed_10m": 12.5,
				"wind_direction_10m": 180,
				"weather_code": 2
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 100, 10)

	conditions, err := client.Current(context.Background(), 52.52, 13.405)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conditions.Temperature != 21.4 {
		t.Fatalf("expected temperature 21.4, got %v", conditions.Temperature)
	}
	if conditions.Humidity != 63 {
		t.Fatalf("expected humidity 63, got %v", conditions.Humidity)
	}
	if conditions.WeatherCode != 2 {
		t.Fatalf("expected weather code 2, got %v", conditions.WeatherCode)
	}
}

func TestClient_DailyForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("forecast_days"); got != "3" {
			t.Fatalf("expected forecast_days=3, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"daily": {
				"time": ["2025-06-01", "2025-06-02", "2025-06-03"],
				"temperature_2m_max": [22.1, 19.8, 24.0],
				"temperature_2m_min": [12.3, 11.0, 13.7],
				"precipitation_sum": [0, 4.2, 0.1],
				"weather_code": [1, 61, 2]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 100, 10)

	forecast, err := client.DailyForecast(context.Background(), 52.52, 13.405, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(forecast.Days) != 3 {
		t.Fatalf("expected 3 forecast days, got %d", len(forecast.Days))
	}
	if forecast.Days[1].PrecipitationMM != 4.2 {
		t.Fatalf("expected 4.2mm on day 2, got %v", forecast.Days[1].PrecipitationMM)
	}
	if forecast.Days[2].WeatherCode != 2 {
		t.Fatalf("expected weather code 2 on day 3, got %v", forecast.Days[2].WeatherCode)
	}
}

func TestClient_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 100, 10)

	if _, err := client.Current(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
