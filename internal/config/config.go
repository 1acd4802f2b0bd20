package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateGate  RateGateConfig
	Weather   WeatherConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the connection string expected by the postgres driver.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret   string
	ExpiryHours int
}

// RateGateConfig carries the request-gating policy knobs. The window length
// (60s) and the suspicious-log TTL (24h) are fixed by the gate itself.
type RateGateConfig struct {
	GeneralPerMinute    int
	DashboardPerMinute  int
	APIPerMinute        int
	SearchPerMinute     int
	BlockMinutes        int
	SuspiciousThreshold int
}

type WeatherConfig struct {
	BaseURL            string
	RequestsPerSecond  float64
	Burst              int
	CurrentTTLMinutes  int
	ForecastTTLMinutes int
}

type AnalyticsConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

func Load() (*Config, error) {
	pgPort, err := getEnvInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, err
	}

	redisPort, err := getEnvInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	jwtExpiry, err := getEnvInt("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, err
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	gate, err := loadRateGate()
	if err != nil {
		return nil, err
	}

	weather, err := loadWeather()
	if err != nil {
		return nil, err
	}

	analytics, err := loadAnalytics()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     pgPort,
			User:     getEnv("POSTGRES_USER", "weatherhub"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "weatherhub"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:   jwtSecret,
			ExpiryHours: jwtExpiry,
		},
		RateGate:  gate,
		Weather:   weather,
		Analytics: analytics,
	}, nil
}

func loadRateGate() (RateGateConfig, error) {
	general, err := getEnvInt("RATE_LIMIT_GENERAL", 60)
	if err != nil {
		return RateGateConfig{}, err
	}
	dashboard, err := getEnvInt("RATE_LIMIT_DASHBOARD", 30)
	if err != nil {
		return RateGateConfig{}, err
	}
	api, err := getEnvInt("RATE_LIMIT_API", 100)
	if err != nil {
		return RateGateConfig{}, err
	}
	search, err := getEnvInt("RATE_LIMIT_SEARCH", 20)
	if err != nil {
		return RateGateConfig{}, err
	}
	blockMinutes, err := getEnvInt("BLOCK_DURATION_MINUTES", 30)
	if err != nil {
		return RateGateConfig{}, err
	}
	threshold, err := getEnvInt("SUSPICIOUS_THRESHOLD", 10)
	if err != nil {
		return RateGateConfig{}, err
	}

	return RateGateConfig{
		GeneralPerMinute:    general,
		DashboardPerMinute:  dashboard,
		APIPerMinute:        api,
		SearchPerMinute:     search,
		BlockMinutes:        blockMinutes,
		SuspiciousThreshold: threshold,
	}, nil
}

func loadWeather() (WeatherConfig, error) {
	rps, err := getEnvFloat("WEATHER_REQUESTS_PER_SECOND", 5)
	if err != nil {
		return WeatherConfig{}, err
	}
	burst, err := getEnvInt("WEATHER_BURST", 10)
	if err != nil {
		return WeatherConfig{}, err
	}
	currentTTL, err := getEnvInt("WEATHER_CURRENT_TTL_MINUTES", 10)
	if err != nil {
		return WeatherConfig{}, err
	}
	forecastTTL, err := getEnvInt("WEATHER_FORECAST_TTL_MINUTES", 60)
	if err != nil {
		return WeatherConfig{}, err
	}

	return WeatherConfig{
		BaseURL:            getEnv("WEATHER_API_URL", "https://api.open-meteo.com"),
		RequestsPerSecond:  rps,
		Burst:              burst,
		CurrentTTLMinutes:  currentTTL,
		ForecastTTLMinutes: forecastTTL,
	}, nil
}

func loadAnalytics() (AnalyticsConfig, error) {
	bufferSize, err := getEnvInt("ANALYTICS_BUFFER_SIZE", 1000)
	if err != nil {
		return AnalyticsConfig{}, err
	}
	batchSize, err := getEnvInt("ANALYTICS_BATCH_SIZE", 100)
	if err != nil {
		return AnalyticsConfig{}, err
	}
	flushSeconds, err := getEnvInt("ANALYTICS_FLUSH_SECONDS", 5)
	if err != nil {
		return AnalyticsConfig{}, err
	}

	return AnalyticsConfig{
		BufferSize:    bufferSize,
		BatchSize:     batchSize,
		FlushInterval: time.Duration(flushSeconds) * time.Second,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
