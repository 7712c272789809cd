package config

import "sync/atomic"

// Preferences are the display toggles of the surface. They can be swapped
// at runtime when the configuration is reloaded.
type Preferences struct {
	weather    atomic.Bool
	showCity   atomic.Bool
	showText   atomic.Bool
	nowPlaying atomic.Bool
}

// NewPreferences returns Preferences initialised from cfg.
func NewPreferences(cfg *AppConfig) *Preferences {
	p := &Preferences{}
	p.Apply(cfg)
	return p
}

// Apply copies the toggles from cfg.
func (p *Preferences) Apply(cfg *AppConfig) {
	p.weather.Store(cfg.QuickspaceWeather)
	p.showCity.Store(cfg.ShowCity)
	p.showText.Store(cfg.ShowWeatherText)
	p.nowPlaying.Store(cfg.NowPlaying)
}

func (p *Preferences) WeatherEnabled() bool    { return p.weather.Load() }
func (p *Preferences) ShowCity() bool          { return p.showCity.Load() }
func (p *Preferences) ShowWeatherText() bool   { return p.showText.Load() }
func (p *Preferences) NowPlayingEnabled() bool { return p.nowPlaying.Load() }
