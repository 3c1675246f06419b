package domain

import "time"

// WeatherCondition is one entry of the provider's condition list
type WeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentWeather is the formatted current observation for a location
type CurrentWeather struct {
	Location    string             `json:"location"`
	Country     string             `json:"country"`
	Temperature float64            `json:"temperature"`
	FeelsLike   float64            `json:"feels_like"`
	TempMin     *float64           `json:"temp_min,omitempty"` // nil when the client payload omits it
	TempMax     float64            `json:"temp_max"`
	Humidity    int                `json:"humidity"`
	Pressure    int                `json:"pressure"`
	WindSpeed   float64            `json:"wind_speed"`
	WindDeg     int                `json:"wind_direction"`
	Clouds      int                `json:"clouds"`
	Weather     []WeatherCondition `json:"weather"`
	Sunrise     time.Time          `json:"sunrise"`
	Sunset      time.Time          `json:"sunset"`
	Timestamp   time.Time          `json:"timestamp"`
}

// ForecastSlot is a single three-hour forecast step
type ForecastSlot struct {
	Time        time.Time          `json:"time"`
	Temperature float64            `json:"temperature"`
	FeelsLike   float64            `json:"feels_like"`
	TempMin     float64            `json:"temp_min"`
	TempMax     float64            `json:"temp_max"`
	Humidity    int                `json:"humidity"`
	Weather     []WeatherCondition `json:"weather"`
	WindSpeed   float64            `json:"wind_speed"`
	WindDeg     int                `json:"wind_direction"`
	Clouds      int                `json:"clouds"`
	RainChance  float64            `json:"rain_chance"`
}

// ForecastDay groups the slots of one calendar day
type ForecastDay struct {
	Date  string         `json:"date"`
	Slots []ForecastSlot `json:"forecasts"`
}

// Forecast is the multi-day forecast for a location
type Forecast struct {
	Location string        `json:"location"`
	Country  string        `json:"country"`
	Days     []ForecastDay `json:"days"`
}

// Recommendation is one piece of agricultural advice
type Recommendation struct {
	Advice string `json:"advice"`
	Reason string `json:"reason"`
}

// SoilCondition is the rough soil state derived from weather
type SoilCondition struct {
	Moisture string `json:"moisture"`
	Advice   string `json:"advice"`
}

// FarmingRecommendations is the advisory output for one location
type FarmingRecommendations struct {
	Watering      Recommendation `json:"watering"`
	Spraying      Recommendation `json:"spraying"`
	Planting      Recommendation `json:"planting"`
	Harvesting    Recommendation `json:"harvesting"`
	General       Recommendation `json:"general"`
	SoilCondition SoilCondition  `json:"soilCondition"`
}
