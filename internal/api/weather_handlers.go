package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/middleware"
)

type recommendBody struct {
	Weather  *domain.CurrentWeather `json:"weather"`
	Forecast *domain.Forecast       `json:"forecast"`
}

func (s *Server) handleWeatherAdvice(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		fail(c, domain.NewValidationError("lat", "lat and lon query parameters are required", nil))
		return
	}

	advice, err := s.services.Advisory.ForLocation(c.Request.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			err = middleware.WithMessage(err, "Error fetching weather data")
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, advice)
}

// handleRecommend applies the advisory rules to weather the client already
// fetched
func (s *Server) handleRecommend(c *gin.Context) {
	var body recommendBody
	if !bindJSON(c, &body) {
		return
	}
	if body.Weather == nil {
		fail(c, domain.NewValidationError("weather", "Weather data is required", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": s.services.Advisory.Recommend(body.Weather, body.Forecast),
	})
}
