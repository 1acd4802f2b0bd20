package handler

import (
	"net/http"

	"github.com/atmoslabs/weatherhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WeatherHandler struct {
	locations *service.LocationService
	weather   *service.WeatherService
}

func NewWeatherHandler(locations *service.LocationService, weather *service.WeatherService) *WeatherHandler {
	return &WeatherHandler{
		locations: locations,
		weather:   weather,
	}
}

// Handles GET /api/v1/locations/:id/weather/current
func (h *WeatherHandler) Current(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
		return
	}

	ctx := c.Request.Context()
	location, err := h.locations.Get(ctx, userID, id)
	if err != nil {
		serviceError(c, err)
		return
	}

	conditions, err := h.weather.CurrentFor(ctx, location)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather data unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location":   location.Name,
		"conditions": conditions,
	})
}

// Handles GET /api/v1/locations/:id/weather/forecast
func (h *WeatherHandler) Forecast(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
		return
	}

	days := queryInt(c, "days", 7)

	ctx := c.Request.Context()
	location, err := h.locations.Get(ctx, userID, id)
	if err != nil {
		serviceError(c, err)
		return
	}

	forecast, err := h.weather.ForecastFor(ctx, location, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather data unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location": location.Name,
		"forecast": forecast,
	})
}
