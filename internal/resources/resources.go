// Package resources looks up the localized UI strings bundled with the binary.
package resources

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// String IDs.
const (
	WeatherClouds = "quick_event_weather_clouds"
	WeatherRain   = "quick_event_weather_rain"
	WeatherClear  = "quick_event_weather_clear"
	WeatherStorm  = "quick_event_weather_storm"
	WeatherSnow   = "quick_event_weather_snow"
	WeatherWind   = "quick_event_weather_wind"
	WeatherMist   = "quick_event_weather_mist"

	NowPlaying        = "quick_event_now_playing"
	GreetingMorning   = "quick_event_greeting_morning"
	GreetingAfternoon = "quick_event_greeting_afternoon"
	GreetingEvening   = "quick_event_greeting_evening"
	GreetingNight     = "quick_event_greeting_night"
)

//go:embed locales/*.json
var locales embed.FS

// Strings resolves string IDs for one locale.
type Strings struct {
	localizer *i18n.Localizer
}

// Load builds Strings for lang ("de", "en-GB", ...), falling back to English.
func Load(lang string) (*Strings, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return &Strings{localizer: i18n.NewLocalizer(bundle, lang, language.English.String())}, nil
}

// String returns the text for id, or id itself when it is unknown.
func (s *Strings) String(id string) string {
	msg, err := s.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil || msg == "" {
		return id
	}
	return msg
}
