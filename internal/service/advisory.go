package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// Advisory thresholds, Celsius and provider wind units
const (
	hotTemperature     = 30.0
	extremeTemperature = 35.0
	coldTemperature    = 10.0
	frostTemperature   = 2.0
	windySpeed         = 10.0
	humidSoilPercent   = 70
)

// Soil moisture estimates
const (
	SoilWet   = "wet"
	SoilMoist = "moist"
	SoilDry   = "dry"
)

// Advice is the response of a weather advisory request
type Advice struct {
	Weather         *domain.CurrentWeather         `json:"weather,omitempty"`
	Forecast        *domain.Forecast               `json:"forecast,omitempty"`
	Recommendations *domain.FarmingRecommendations `json:"recommendations"`
}

// AdvisoryService turns weather into farming recommendations
type AdvisoryService struct {
	logger   *logrus.Logger
	provider domain.WeatherProvider
}

// NewAdvisoryService creates an advisory service. provider may be nil, in
// which case only Recommend is usable.
func NewAdvisoryService(logger *logrus.Logger, provider domain.WeatherProvider) *AdvisoryService {
	return &AdvisoryService{logger: logger, provider: provider}
}

// Enabled reports whether live weather lookups are available
func (s *AdvisoryService) Enabled() bool {
	return s.provider != nil
}

// ForLocation fetches weather for a coordinate and derives advice from it
func (s *AdvisoryService) ForLocation(ctx context.Context, lat, lon float64) (*Advice, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("weather provider not configured: %w", domain.ErrUpstream)
	}
	if lat < -90 || lat > 90 {
		return nil, domain.NewValidationError("lat", "Latitude must be between -90 and 90", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, domain.NewValidationError("lon", "Longitude must be between -180 and 180", lon)
	}

	current, err := s.provider.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	forecast, err := s.provider.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	return &Advice{
		Weather:         current,
		Forecast:        forecast,
		Recommendations: s.Recommend(current, forecast),
	}, nil
}

// Recommend applies the advisory rules to current weather and the first
// forecast day. forecast may be nil.
func (s *AdvisoryService) Recommend(weather *domain.CurrentWeather, forecast *domain.Forecast) *domain.FarmingRecommendations {
	raining := isRaining(mainCondition(weather))
	rainSoon := rainExpected(forecast)
	soil := estimateSoil(weather)

	return &domain.FarmingRecommendations{
		Watering:      watering(weather, raining, rainSoon),
		Spraying:      spraying(weather, raining, rainSoon),
		Planting:      planting(weather, soil),
		Harvesting:    harvesting(raining, rainSoon),
		General:       general(weather, forecast),
		SoilCondition: soilCondition(soil),
	}
}

func watering(w *domain.CurrentWeather, raining, rainSoon bool) domain.Recommendation {
	switch {
	case raining:
		return domain.Recommendation{
			Advice: "Skip watering today as it is currently raining.",
			Reason: "current rain",
		}
	case rainSoon:
		return domain.Recommendation{
			Advice: "Consider skipping watering as rain is expected in the next 24 hours.",
			Reason: "rain forecast",
		}
	case w.Temperature > hotTemperature:
		return domain.Recommendation{
			Advice: "Water early in the morning or late in the evening to minimize evaporation due to high temperatures.",
			Reason: fmt.Sprintf("temperature above %.0f°C", hotTemperature),
		}
	default:
		return domain.Recommendation{
			Advice: "Good conditions for regular watering. Water deeply and infrequently to encourage deep root growth.",
			Reason: "no rain and moderate temperature",
		}
	}
}

func spraying(w *domain.CurrentWeather, raining, rainSoon bool) domain.Recommendation {
	switch {
	case w.WindSpeed > windySpeed:
		return domain.Recommendation{
			Advice: "Avoid spraying due to high winds which can cause drift.",
			Reason: fmt.Sprintf("wind speed above %.0f", windySpeed),
		}
	case raining || rainSoon:
		return domain.Recommendation{
			Advice: "Avoid spraying as rain will wash away chemicals.",
			Reason: "rain now or forecast",
		}
	default:
		return domain.Recommendation{
			Advice: "Good conditions for spraying. Apply in early morning when winds are calm.",
			Reason: "calm and dry",
		}
	}
}

func planting(w *domain.CurrentWeather, soil string) domain.Recommendation {
	switch {
	case w.Temperature < coldTemperature:
		return domain.Recommendation{
			Advice: "Too cold for planting most crops. Consider using cold frames or waiting for warmer weather.",
			Reason: fmt.Sprintf("temperature below %.0f°C", coldTemperature),
		}
	case w.Temperature > hotTemperature:
		return domain.Recommendation{
			Advice: "Plant in the evening to avoid heat stress. Provide shade for sensitive seedlings.",
			Reason: fmt.Sprintf("temperature above %.0f°C", hotTemperature),
		}
	case soil == SoilWet:
		return domain.Recommendation{
			Advice: "Soil may be too wet for planting. Wait until soil dries out to avoid compaction.",
			Reason: "wet soil",
		}
	default:
		return domain.Recommendation{
			Advice: "Good conditions for planting. Ensure proper seed depth and spacing.",
			Reason: "moderate temperature and workable soil",
		}
	}
}

func harvesting(raining, rainSoon bool) domain.Recommendation {
	switch {
	case raining:
		return domain.Recommendation{
			Advice: "Delay harvesting until conditions are dry to prevent crop damage and disease.",
			Reason: "current rain",
		}
	case rainSoon:
		return domain.Recommendation{
			Advice: "Consider harvesting soon before rain arrives. Prioritize mature crops that could be damaged by moisture.",
			Reason: "rain forecast",
		}
	default:
		return domain.Recommendation{
			Advice: "Good conditions for harvesting. Harvest in the morning when temperatures are cooler.",
			Reason: "dry conditions",
		}
	}
}

func general(w *domain.CurrentWeather, forecast *domain.Forecast) domain.Recommendation {
	switch {
	case w.Temperature > extremeTemperature:
		return domain.Recommendation{
			Advice: "Extreme heat alert! Provide extra water for plants and shade for sensitive crops.",
			Reason: fmt.Sprintf("temperature above %.0f°C", extremeTemperature),
		}
	case w.TempMin != nil && *w.TempMin < frostTemperature:
		return domain.Recommendation{
			Advice: "Frost risk! Protect sensitive plants with covers or bring potted plants indoors.",
			Reason: fmt.Sprintf("minimum temperature below %.0f°C", frostTemperature),
		}
	case stormExpected(forecast):
		return domain.Recommendation{
			Advice: "Storms expected! Secure any loose items and provide support for tall plants.",
			Reason: "thunderstorm forecast",
		}
	default:
		return domain.Recommendation{
			Advice: "Normal weather conditions. Continue regular agricultural activities.",
			Reason: "no extreme conditions",
		}
	}
}

func soilCondition(moisture string) domain.SoilCondition {
	advice := map[string]string{
		SoilWet:   "Avoid working the soil until it drains.",
		SoilMoist: "Soil moisture is adequate for most field work.",
		SoilDry:   "Soil is dry. Irrigate before planting.",
	}[moisture]
	return domain.SoilCondition{Moisture: moisture, Advice: advice}
}

func estimateSoil(w *domain.CurrentWeather) string {
	switch main := mainCondition(w); {
	case main == "Rain" || main == "Thunderstorm":
		return SoilWet
	case w.Humidity > humidSoilPercent:
		return SoilMoist
	default:
		return SoilDry
	}
}

func mainCondition(w *domain.CurrentWeather) string {
	if w == nil || len(w.Weather) == 0 {
		return ""
	}
	return w.Weather[0].Main
}

func isRaining(main string) bool {
	return main == "Rain" || main == "Thunderstorm" || main == "Drizzle"
}

func firstDay(forecast *domain.Forecast) []domain.ForecastSlot {
	if forecast == nil || len(forecast.Days) == 0 {
		return nil
	}
	return forecast.Days[0].Slots
}

func rainExpected(forecast *domain.Forecast) bool {
	for _, slot := range firstDay(forecast) {
		if len(slot.Weather) > 0 && isRaining(slot.Weather[0].Main) {
			return true
		}
	}
	return false
}

func stormExpected(forecast *domain.Forecast) bool {
	for _, slot := range firstDay(forecast) {
		if len(slot.Weather) > 0 && slot.Weather[0].Main == "Thunderstorm" {
			return true
		}
	}
	return false
}
