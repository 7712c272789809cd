package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/quickspace/internal/weather"
)

// Geocoder resolves a location to coordinates.
type Geocoder func(loc weather.Location) (lat, lon float64, err error)

// GoogleGeocoder resolves city/country through the Google geocoding API.
func GoogleGeocoder(apiKey string) Geocoder {
	geocoder.ApiKey = apiKey
	return func(loc weather.Location) (float64, float64, error) {
		res, err := geocoder.Geocoding(geocoder.Address{
			City:    loc.City,
			Country: loc.Country,
		})
		if err != nil {
			return 0, 0, err
		}
		return res.Latitude, res.Longitude, nil
	}
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs coordinates; locations without them are geocoded once and cached.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	req     *requester
	geocode Geocoder

	mu     sync.Mutex
	coords map[string][2]float64
}

// NewOpenMeteoProvider creates the provider. geocode may be nil, in which case
// only locations with explicit coordinates are served.
func NewOpenMeteoProvider(client *http.Client, geocode Geocoder) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		req:     newRequester("openmeteo", client, DefaultBackoff),
		geocode: geocode,
		coords:  make(map[string][2]float64),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	lat, lon, err := p.resolve(loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("current_weather", "true")

	resp, err := p.req.get(ctx, p.baseURL, values)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			Time        string  `json:"time"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	// Open-Meteo reports "2006-01-02T15:04" in GMT without a zone.
	ts, err := time.Parse("2006-01-02T15:04", payload.CurrentWeather.Time)
	if err != nil {
		ts = time.Now()
	}

	// windspeed is km/h.
	windMS := payload.CurrentWeather.WindSpeed / 3.6
	cond, text := mapOpenMeteoCondition(payload.CurrentWeather.WeatherCode)
	if cond == weather.ConditionClear && windMS >= windyThresholdMS {
		cond, text = weather.ConditionWind, "Windy"
	}

	return weather.ProviderReading{
		ProviderName:  p.name,
		Timestamp:     ts.UTC(),
		TemperatureC:  payload.CurrentWeather.Temperature,
		WindSpeedMS:   windMS,
		Condition:     cond,
		ConditionText: text,
	}, nil
}

func (p *OpenMeteoProvider) resolve(loc weather.Location) (float64, float64, error) {
	if loc.Lat != nil && loc.Lon != nil {
		return *loc.Lat, *loc.Lon, nil
	}
	if p.geocode == nil {
		return 0, 0, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.coords[loc.Key()]; ok {
		return c[0], c[1], nil
	}
	lat, lon, err := p.geocode(loc)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s: %w", loc.Key(), err)
	}
	p.coords[loc.Key()] = [2]float64{lat, lon}
	return lat, lon, nil
}

// mapOpenMeteoCondition maps WMO weather codes.
func mapOpenMeteoCondition(code int) (weather.Condition, string) {
	switch {
	case code == 0:
		return weather.ConditionClear, "Clear sky"
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy, "Clouds"
	case code == 45 || code == 48:
		return weather.ConditionMist, "Mist"
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain, "Rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow, "Snow"
	case code >= 95:
		return weather.ConditionStorm, "Thunderstorm"
	default:
		return weather.ConditionUnknown, ""
	}
}
