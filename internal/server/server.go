package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/atmoslabs/weatherhub/internal/config"
	"github.com/atmoslabs/weatherhub/internal/handler"
	"github.com/atmoslabs/weatherhub/internal/middleware"
	"github.com/atmoslabs/weatherhub/internal/repository"
	"github.com/atmoslabs/weatherhub/internal/security"
	"github.com/atmoslabs/weatherhub/internal/service"
	"github.com/atmoslabs/weatherhub/internal/storage"
	"github.com/atmoslabs/weatherhub/internal/weather"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router     *gin.Engine
	config     *config.Config
	redis      *storage.RedisClient
	postgres   *storage.Postgres
	gate       *security.RateGate
	analytics  *service.AnalyticsService
	weatherAPI *weather.Client
	httpServer *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	gate := security.NewRateGate(redis, security.Config{
		GeneralPerMinute:    cfg.RateGate.GeneralPerMinute,
		DashboardPerMinute:  cfg.RateGate.DashboardPerMinute,
		APIPerMinute:        cfg.RateGate.APIPerMinute,
		SearchPerMinute:     cfg.RateGate.SearchPerMinute,
		BlockDuration:       time.Duration(cfg.RateGate.BlockMinutes) * time.Minute,
		SuspiciousThreshold: cfg.RateGate.SuspiciousThreshold,
	})

	userRepo := repository.NewUserRepository(postgres)
	locationRepo := repository.NewLocationRepository(postgres)
	eventRepo := repository.NewEventRepository(postgres)
	analyticsRepo := repository.NewAnalyticsRepository(postgres)

	weatherAPI := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.RequestsPerSecond, cfg.Weather.Burst)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.ExpiryHours)
	locationService := service.NewLocationService(locationRepo)
	eventService := service.NewEventService(eventRepo, locationService)
	weatherService := service.NewWeatherService(redis, weatherAPI,
		time.Duration(cfg.Weather.CurrentTTLMinutes)*time.Minute,
		time.Duration(cfg.Weather.ForecastTTLMinutes)*time.Minute,
	)
	analyticsService := service.NewAnalyticsService(analyticsRepo,
		cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)

	s := &Server{
		router:     router,
		config:     cfg,
		redis:      redis,
		postgres:   postgres,
		gate:       gate,
		analytics:  analyticsService,
		weatherAPI: weatherAPI,
	}

	authHandler := handler.NewAuthHandler(authService)
	locationHandler := handler.NewLocationHandler(locationService)
	eventHandler := handler.NewEventHandler(eventService)
	weatherHandler := handler.NewWeatherHandler(locationService, weatherService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	securityHandler := handler.NewSecurityHandler(gate)

	s.setupMiddleware(analyticsService)
	s.setupRoutes(authService, authHandler, locationHandler, eventHandler,
		weatherHandler, analyticsHandler, securityHandler)

	return s
}

func (s *Server) setupMiddleware(analytics *service.AnalyticsService) {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestGuard())
	s.router.Use(middleware.Analytics(analytics))
}

func (s *Server) setupRoutes(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	locationHandler *handler.LocationHandler,
	eventHandler *handler.EventHandler,
	weatherHandler *handler.WeatherHandler,
	analyticsHandler *handler.AnalyticsHandler,
	securityHandler *handler.SecurityHandler,
) {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(s.gate, middleware.CategoryGeneral))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(authService))
	{
		general := authed.Group("")
		general.Use(middleware.RateLimit(s.gate, middleware.CategoryGeneral))
		{
			general.GET("/me", authHandler.Me)

			general.POST("/locations", locationHandler.Create)
			general.GET("/locations", locationHandler.List)
			general.GET("/locations/:id", locationHandler.Get)
			general.PATCH("/locations/:id", locationHandler.Update)
			general.DELETE("/locations/:id", locationHandler.Delete)

			general.POST("/events", eventHandler.Create)
			general.GET("/events", eventHandler.List)
			general.GET("/events/upcoming", eventHandler.Upcoming)
			general.GET("/events/:id", eventHandler.Get)
			general.PATCH("/events/:id", eventHandler.Update)
			general.DELETE("/events/:id", eventHandler.Delete)
		}

		search := authed.Group("")
		search.Use(middleware.RateLimit(s.gate, middleware.CategorySearch))
		{
			search.GET("/events/search", eventHandler.Search)
		}

		weatherRoutes := authed.Group("")
		weatherRoutes.Use(middleware.RateLimit(s.gate, middleware.CategoryAPI))
		{
			weatherRoutes.GET("/locations/:id/weather/current", weatherHandler.Current)
			weatherRoutes.GET("/locations/:id/weather/forecast", weatherHandler.Forecast)
		}

		dashboards := authed.Group("/analytics")
		dashboards.Use(middleware.RequireAnalytics())
		dashboards.Use(middleware.RateLimit(s.gate, middleware.CategoryDashboard))
		{
			dashboards.GET("/summary", analyticsHandler.GetSummary)
			dashboards.GET("/timeseries", analyticsHandler.GetTimeSeries)
		}
	}

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAuth(authService))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/security/metrics", securityHandler.GetMetrics)
		admin.POST("/security/blocks", securityHandler.BlockClient)
		admin.GET("/security/blocks/:clientID", securityHandler.GetBlockStatus)
		admin.DELETE("/security/blocks/:clientID", securityHandler.UnblockClient)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true

	if err := s.redis.Ping(c.Request.Context()); err != nil {
		redisHealthy = false
		log.Printf("Redis health check failed: %v", err)
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	statusCode := http.StatusOK

	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "weatherhub",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":            redisHealthy,
			"database":         dbHealthy,
			"weather_provider": s.weatherAPI.BreakerState(),
		},
	})
}

func (s *Server) Run(addr string) error {
	s.analytics.Start()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting WeatherHub API on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	// Flush whatever analytics are still buffered.
	s.analytics.Stop()

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
