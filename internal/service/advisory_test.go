package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihealth-server/internal/domain"
)

func weather(main string, temp, tempMin, wind float64, humidity int) *domain.CurrentWeather {
	return &domain.CurrentWeather{
		Temperature: temp,
		TempMin:     &tempMin,
		WindSpeed:   wind,
		Humidity:    humidity,
		Weather:     []domain.WeatherCondition{{Main: main}},
	}
}

func forecastOf(mains ...string) *domain.Forecast {
	day := domain.ForecastDay{Date: "2026-05-01"}
	for _, m := range mains {
		day.Slots = append(day.Slots, domain.ForecastSlot{Weather: []domain.WeatherCondition{{Main: m}}})
	}
	return &domain.Forecast{Days: []domain.ForecastDay{day}}
}

func TestAdvisoryService_Recommend(t *testing.T) {
	svc := NewAdvisoryService(testLogger(), nil)

	tests := []struct {
		name     string
		weather  *domain.CurrentWeather
		forecast *domain.Forecast
		check    func(t *testing.T, r *domain.FarmingRecommendations)
	}{
		{
			name:     "rain now",
			weather:  weather("Rain", 20, 15, 3, 90),
			forecast: forecastOf("Clear"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.Watering.Advice, "Skip watering")
				assert.Contains(t, r.Spraying.Advice, "rain will wash away")
				assert.Contains(t, r.Harvesting.Advice, "Delay harvesting")
				assert.Contains(t, r.Planting.Advice, "too wet")
				assert.Equal(t, SoilWet, r.SoilCondition.Moisture)
			},
		},
		{
			name:     "rain forecast",
			weather:  weather("Clouds", 20, 15, 3, 50),
			forecast: forecastOf("Clouds", "Drizzle"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.Watering.Advice, "rain is expected")
				assert.Contains(t, r.Harvesting.Advice, "before rain arrives")
				assert.Equal(t, SoilDry, r.SoilCondition.Moisture)
			},
		},
		{
			name:     "windy",
			weather:  weather("Clear", 20, 15, 12, 50),
			forecast: forecastOf("Clear"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.Spraying.Advice, "high winds")
			},
		},
		{
			name:     "cold",
			weather:  weather("Clear", 8, 5, 3, 50),
			forecast: forecastOf("Clear"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.Planting.Advice, "Too cold for planting")
			},
		},
		{
			name:     "extreme heat",
			weather:  weather("Clear", 38, 28, 3, 20),
			forecast: forecastOf("Clear"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.General.Advice, "Extreme heat alert")
				assert.Contains(t, r.Watering.Advice, "minimize evaporation")
				assert.Contains(t, r.Planting.Advice, "heat stress")
			},
		},
		{
			name:     "frost",
			weather:  weather("Clear", 12, 1, 3, 50),
			forecast: forecastOf("Clear"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.General.Advice, "Frost risk")
			},
		},
		{
			name: "missing minimum temperature",
			weather: func() *domain.CurrentWeather {
				w := weather("Clear", 22, 0, 3, 50)
				w.TempMin = nil
				return w
			}(),
			forecast: forecastOf("Clear"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.General.Advice, "Normal weather conditions")
			},
		},
		{
			name:     "storm forecast",
			weather:  weather("Clouds", 22, 18, 3, 75),
			forecast: forecastOf("Thunderstorm"),
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.General.Advice, "Storms expected")
				assert.Equal(t, SoilMoist, r.SoilCondition.Moisture)
			},
		},
		{
			name:     "normal without forecast",
			weather:  weather("Clear", 22, 18, 3, 50),
			forecast: nil,
			check: func(t *testing.T, r *domain.FarmingRecommendations) {
				assert.Contains(t, r.Watering.Advice, "Good conditions for regular watering")
				assert.Contains(t, r.Spraying.Advice, "Good conditions for spraying")
				assert.Contains(t, r.Planting.Advice, "Good conditions for planting")
				assert.Contains(t, r.Harvesting.Advice, "Good conditions for harvesting")
				assert.Contains(t, r.General.Advice, "Normal weather conditions")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, svc.Recommend(tt.weather, tt.forecast))
		})
	}
}

type stubWeather struct {
	current  *domain.CurrentWeather
	forecast *domain.Forecast
	err      error
}

func (s *stubWeather) CurrentWeather(context.Context, float64, float64) (*domain.CurrentWeather, error) {
	return s.current, s.err
}

func (s *stubWeather) Forecast(context.Context, float64, float64) (*domain.Forecast, error) {
	return s.forecast, s.err
}

func TestAdvisoryService_ForLocation(t *testing.T) {
	provider := &stubWeather{current: weather("Rain", 20, 15, 3, 80), forecast: forecastOf("Rain")}
	svc := NewAdvisoryService(testLogger(), provider)
	ctx := context.Background()

	advice, err := svc.ForLocation(ctx, -1.29, 36.82)
	require.NoError(t, err)
	assert.Same(t, provider.current, advice.Weather)
	assert.Contains(t, advice.Recommendations.Watering.Advice, "Skip watering")

	_, err = svc.ForLocation(ctx, 120, 0)
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))

	provider.err = domain.ErrUpstream
	_, err = svc.ForLocation(ctx, 0, 0)
	assert.True(t, errors.Is(err, domain.ErrUpstream))

	disabled := NewAdvisoryService(testLogger(), nil)
	assert.False(t, disabled.Enabled())
	_, err = disabled.ForLocation(ctx, 0, 0)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}
