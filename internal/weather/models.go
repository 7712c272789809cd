package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
	ConditionWind    Condition = "wind"
)

// Units selects the temperature scale handed to the UI.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Symbol returns the display suffix for a temperature in these units.
func (u Units) Symbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// Location represents a logical place for which we track weather.
// City/Country must be provided; Lat/Lon are optional.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// WeatherSnapshot is the normalized, aggregated weather view at a point in time.
type WeatherSnapshot struct {
	Location      Location  `json:"location"`
	Timestamp     time.Time `json:"timestamp"` // always UTC
	Temperature   float64   `json:"temperatureC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeed"`
	Pressure      float64   `json:"pressureHpa"`
	PrecipMM      float64   `json:"precipMm"`
	Condition     Condition `json:"condition"`
	ConditionText string    `json:"conditionText"`

	// Providers contributing to this snapshot.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}

// Info is what the weather client hands to the UI: one snapshot already
// rounded and converted to the configured units.
type Info struct {
	City          string
	Temp          string
	TempUnits     string
	Condition     string
	ConditionCode Condition
	Timestamp     time.Time
}

// Icon is the rendered condition image. Name is a freedesktop icon name,
// Glyph a single-character fallback for text surfaces.
type Icon struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}
