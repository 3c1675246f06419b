package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/agrihealth-server/internal/domain"
)

const (
	openWeatherUserAgent = "AgriHealth-Server"
	openWeatherIconURL   = "https://openweathermap.org/img/wn/%s@2x.png"
	forecastDateLayout   = "2006-01-02"
)

// OpenWeatherClient fetches current weather and the 5 day / 3 hour forecast
// from the OpenWeather API in metric units.
type OpenWeatherClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewOpenWeatherClient creates a new OpenWeather API client
func NewOpenWeatherClient(config domain.WeatherConfig, logger *logrus.Logger) *OpenWeatherClient {
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &OpenWeatherClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(limit, 1),
		breaker:   newBreaker("OpenWeather", logger),
		logger:    logger,
	}
}

// openWeatherCondition is one entry of the "weather" array
type openWeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type openWeatherMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type openWeatherWind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

type openWeatherClouds struct {
	All int `json:"all"`
}

// OpenWeatherCurrentResponse represents the JSON response of /weather
type OpenWeatherCurrentResponse struct {
	Name    string                 `json:"name"`
	Dt      int64                  `json:"dt"`
	Weather []openWeatherCondition `json:"weather"`
	Main    openWeatherMain        `json:"main"`
	Wind    openWeatherWind        `json:"wind"`
	Clouds  openWeatherClouds      `json:"clouds"`
	Sys     struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

// OpenWeatherForecastResponse represents the JSON response of /forecast
type OpenWeatherForecastResponse struct {
	List []struct {
		Dt      int64                  `json:"dt"`
		Main    openWeatherMain        `json:"main"`
		Weather []openWeatherCondition `json:"weather"`
		Wind    openWeatherWind        `json:"wind"`
		Clouds  openWeatherClouds      `json:"clouds"`
		Pop     float64                `json:"pop"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

// CurrentWeather implements domain.WeatherProvider
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, lat, lon float64) (*domain.CurrentWeather, error) {
	var raw OpenWeatherCurrentResponse
	if err := c.fetch(ctx, "/weather", lat, lon, &raw); err != nil {
		return nil, err
	}

	return &domain.CurrentWeather{
		Location:    raw.Name,
		Country:     raw.Sys.Country,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		TempMin:     &raw.Main.TempMin,
		TempMax:     raw.Main.TempMax,
		Humidity:    raw.Main.Humidity,
		Pressure:    raw.Main.Pressure,
		WindSpeed:   raw.Wind.Speed,
		WindDeg:     raw.Wind.Deg,
		Clouds:      raw.Clouds.All,
		Weather:     convertConditions(raw.Weather),
		Sunrise:     time.Unix(raw.Sys.Sunrise, 0).UTC(),
		Sunset:      time.Unix(raw.Sys.Sunset, 0).UTC(),
		Timestamp:   time.Unix(raw.Dt, 0).UTC(),
	}, nil
}

// Forecast implements domain.WeatherProvider. Slots are grouped by UTC date
// in the order the API returns them.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
	var raw OpenWeatherForecastResponse
	if err := c.fetch(ctx, "/forecast", lat, lon, &raw); err != nil {
		return nil, err
	}

	forecast := &domain.Forecast{
		Location: raw.City.Name,
		Country:  raw.City.Country,
		Days:     []domain.ForecastDay{},
	}

	index := make(map[string]int)
	for _, item := range raw.List {
		at := time.Unix(item.Dt, 0).UTC()
		date := at.Format(forecastDateLayout)

		i, ok := index[date]
		if !ok {
			i = len(forecast.Days)
			index[date] = i
			forecast.Days = append(forecast.Days, domain.ForecastDay{Date: date})
		}

		forecast.Days[i].Slots = append(forecast.Days[i].Slots, domain.ForecastSlot{
			Time:        at,
			Temperature: item.Main.Temp,
			FeelsLike:   item.Main.FeelsLike,
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			Humidity:    item.Main.Humidity,
			Weather:     convertConditions(item.Weather),
			WindSpeed:   item.Wind.Speed,
			WindDeg:     item.Wind.Deg,
			Clouds:      item.Clouds.All,
			RainChance:  item.Pop,
		})
	}

	return forecast, nil
}

// fetch performs one rate limited call through the circuit breaker and
// decodes the body into out. Every failure wraps domain.ErrUpstream.
func (c *OpenWeatherClient) fetch(ctx context.Context, path string, lat, lon float64, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("OpenWeather API key not configured: %w", domain.ErrUpstream)
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w: %w", domain.ErrUpstream, err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, requestURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("OpenWeather temporarily unavailable: %w: %w", domain.ErrUpstream, err)
		}
		if errors.Is(err, domain.ErrUpstream) {
			return err
		}
		return fmt.Errorf("OpenWeather request failed: %w: %w", domain.ErrUpstream, err)
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("failed to parse OpenWeather response: %w: %w", domain.ErrUpstream, err)
	}
	return nil
}

func (c *OpenWeatherClient) do(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", openWeatherUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenWeather returned status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}
	return body, nil
}

func convertConditions(in []openWeatherCondition) []domain.WeatherCondition {
	out := make([]domain.WeatherCondition, 0, len(in))
	for _, w := range in {
		icon := w.Icon
		if icon != "" {
			icon = fmt.Sprintf(openWeatherIconURL, icon)
		}
		out = append(out, domain.WeatherCondition{
			Main:        w.Main,
			Description: w.Description,
			Icon:        icon,
		})
	}
	return out
}
