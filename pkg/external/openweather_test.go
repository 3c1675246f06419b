package external

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihealth-server/internal/domain"
)

const (
	testWeatherURL  = `=~^https://api\.openweathermap\.org/data/2\.5/weather`
	testForecastURL = `=~^https://api\.openweathermap\.org/data/2\.5/forecast`
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(t *testing.T) *OpenWeatherClient {
	t.Helper()
	client := NewOpenWeatherClient(domain.WeatherConfig{
		Enabled: true,
		BaseURL: "https://api.openweathermap.org/data/2.5/",
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, testLogger())

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func currentWeatherResponse() string {
	return `{
  "coord": { "lon": 36.8219, "lat": -1.2921 },
  "weather": [{ "id": 500, "main": "Rain", "description": "light rain", "icon": "10d" }],
  "main": { "temp": 21.4, "feels_like": 21.1, "temp_min": 19.8, "temp_max": 22.9, "pressure": 1016, "humidity": 78 },
  "wind": { "speed": 3.6, "deg": 120 },
  "clouds": { "all": 75 },
  "dt": 1736769600,
  "sys": { "country": "KE", "sunrise": 1736740000, "sunset": 1736784000 },
  "name": "Nairobi"
}`
}

func forecastResponse() string {
	return `{
  "list": [
    { "dt": 1736769600, "main": { "temp": 22.0, "feels_like": 21.5, "temp_min": 21.0, "temp_max": 22.5, "humidity": 70 },
      "weather": [{ "main": "Clouds", "description": "broken clouds", "icon": "04d" }],
      "wind": { "speed": 3.0, "deg": 100 }, "clouds": { "all": 60 }, "pop": 0.1 },
    { "dt": 1736780400, "main": { "temp": 20.0, "feels_like": 19.8, "temp_min": 19.5, "temp_max": 20.4, "humidity": 80 },
      "weather": [{ "main": "Rain", "description": "moderate rain", "icon": "10d" }],
      "wind": { "speed": 4.2, "deg": 110 }, "clouds": { "all": 90 }, "pop": 0.8 },
    { "dt": 1736823600, "main": { "temp": 15.0, "feels_like": 14.6, "temp_min": 14.8, "temp_max": 15.2, "humidity": 88 },
      "weather": [{ "main": "Clear", "description": "clear sky", "icon": "01n" }],
      "wind": { "speed": 1.2, "deg": 90 }, "clouds": { "all": 5 }, "pop": 0 }
  ],
  "city": { "name": "Nairobi", "country": "KE" }
}`
}

func TestOpenWeatherClient_CurrentWeather(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder("GET", testWeatherURL, func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		assert.Equal(t, "test-key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "-1.2921", q.Get("lat"))
		assert.Equal(t, "36.8219", q.Get("lon"))
		return httpmock.NewStringResponse(http.StatusOK, currentWeatherResponse()), nil
	})

	weather, err := client.CurrentWeather(context.Background(), -1.2921, 36.8219)
	require.NoError(t, err)

	assert.Equal(t, "Nairobi", weather.Location)
	assert.Equal(t, "KE", weather.Country)
	assert.InDelta(t, 21.4, weather.Temperature, 0.001)
	require.NotNil(t, weather.TempMin)
	assert.InDelta(t, 19.8, *weather.TempMin, 0.001)
	assert.Equal(t, 78, weather.Humidity)
	assert.InDelta(t, 3.6, weather.WindSpeed, 0.001)
	assert.Equal(t, 120, weather.WindDeg)
	require.Len(t, weather.Weather, 1)
	assert.Equal(t, "Rain", weather.Weather[0].Main)
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", weather.Weather[0].Icon)
	assert.Equal(t, time.Unix(1736769600, 0).UTC(), weather.Timestamp)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestOpenWeatherClient_ForecastGroupsByDate(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder("GET", testForecastURL,
		httpmock.NewStringResponder(http.StatusOK, forecastResponse()))

	forecast, err := client.Forecast(context.Background(), -1.2921, 36.8219)
	require.NoError(t, err)

	assert.Equal(t, "Nairobi", forecast.Location)
	require.Len(t, forecast.Days, 2)
	assert.Equal(t, "2025-01-13", forecast.Days[0].Date)
	assert.Len(t, forecast.Days[0].Slots, 2)
	assert.Equal(t, "2025-01-14", forecast.Days[1].Date)
	assert.Len(t, forecast.Days[1].Slots, 1)

	rainy := forecast.Days[0].Slots[1]
	assert.Equal(t, "Rain", rainy.Weather[0].Main)
	assert.InDelta(t, 0.8, rainy.RainChance, 0.001)
}

func TestOpenWeatherClient_HTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"cod": 401, "message": "Invalid API key"}`},
		{"not_found", http.StatusNotFound, `{"cod": "404", "message": "city not found"}`},
		{"internal_server_error", http.StatusInternalServerError, `{}`},
		{"invalid_json", http.StatusOK, `{invalid json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t)
			httpmock.RegisterResponder("GET", testWeatherURL,
				httpmock.NewStringResponder(tt.statusCode, tt.body))

			weather, err := client.CurrentWeather(context.Background(), 10, 10)
			require.Error(t, err)
			assert.Nil(t, weather)
			assert.ErrorIs(t, err, domain.ErrUpstream)
		})
	}
}

func TestOpenWeatherClient_NoAPIKey(t *testing.T) {
	client := NewOpenWeatherClient(domain.WeatherConfig{BaseURL: "https://api.openweathermap.org/data/2.5"}, testLogger())

	_, err := client.Forecast(context.Background(), 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "API key not configured")
}

func TestOpenWeatherClient_CircuitBreakerFailsFast(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder("GET", testWeatherURL,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{}`))

	for i := 0; i < breakerMinRequests; i++ {
		_, err := client.CurrentWeather(context.Background(), 1, 1)
		require.Error(t, err)
	}
	require.Equal(t, breakerMinRequests, httpmock.GetTotalCallCount())

	_, err := client.CurrentWeather(context.Background(), 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, breakerMinRequests, httpmock.GetTotalCallCount(), "open breaker must not reach the API")
}
