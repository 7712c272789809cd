package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"
)

// ErrorReason tells observers why a refresh did not produce new data.
type ErrorReason int

const (
	ErrorNetwork ErrorReason = iota
	ErrorLocation
	ErrorDisabled
)

func (r ErrorReason) String() string {
	switch r {
	case ErrorNetwork:
		return "network"
	case ErrorLocation:
		return "location"
	case ErrorDisabled:
		return "disabled"
	default:
		return "reason(" + strconv.Itoa(int(r)) + ")"
	}
}

var (
	// ErrDisabled is returned by QueryWeather while the client is disabled.
	ErrDisabled = errors.New("weather client disabled")
	// ErrNoLocation is returned when no location is configured.
	ErrNoLocation = errors.New("weather location not configured")
)

// Observer is notified about weather data changes.
type Observer interface {
	WeatherUpdated()
	WeatherError(reason ErrorReason)
	UpdateSettings()
}

// Fetcher is the part of Service the client drives.
type Fetcher interface {
	FetchAndStore(ctx context.Context, loc Location) error
	GetLatest(loc Location) (WeatherSnapshot, error)
}

// Client exposes the latest weather for one location. Refresh pulls from the
// providers into the store; QueryWeather only reads what is already stored.
type Client struct {
	fetcher  Fetcher
	location Location
	logger   *slog.Logger

	mu        sync.RWMutex
	enabled   bool
	units     Units
	info      *Info
	observers []Observer
}

// NewClient creates an enabled Client for loc.
func NewClient(fetcher Fetcher, loc Location, units Units, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher:  fetcher,
		location: loc,
		units:    units,
		enabled:  true,
		logger:   logger,
	}
}

// Enabled reports whether the weather service is switched on.
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled switches the service. Disabling drops cached info and tells
// observers with ErrorDisabled.
func (c *Client) SetEnabled(enabled bool) {
	c.mu.Lock()
	changed := c.enabled != enabled
	c.enabled = enabled
	if !enabled {
		c.info = nil
	}
	c.mu.Unlock()

	if changed && !enabled {
		c.notifyError(ErrorDisabled)
	}
}

// SetUnits changes the temperature scale used by the next QueryWeather.
func (c *Client) SetUnits(u Units) {
	c.mu.Lock()
	c.units = u
	c.mu.Unlock()
}

// AddObserver registers o. Adding the same observer twice is a no-op.
func (c *Client) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Contains(c.observers, o) {
		return
	}
	c.observers = append(c.observers, o)
}

// RemoveObserver unregisters o.
func (c *Client) RemoveObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = slices.DeleteFunc(c.observers, func(x Observer) bool { return x == o })
}

// QueryWeather loads the latest stored snapshot into Info.
func (c *Client) QueryWeather(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.Enabled() {
		return ErrDisabled
	}
	snap, err := c.fetcher.GetLatest(c.location)
	if err != nil {
		return fmt.Errorf("query weather for %s: %w", c.location.Key(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = newInfo(snap, c.location, c.units)
	return nil
}

// WeatherInfo returns the info loaded by the last QueryWeather, or nil.
func (c *Client) WeatherInfo() *Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.info == nil {
		return nil
	}
	info := *c.info
	return &info
}

// ConditionIcon renders the icon for a condition code.
func (c *Client) ConditionIcon(code Condition) Icon {
	return IconFor(code)
}

// Refresh fetches fresh data from the providers and tells observers.
func (c *Client) Refresh(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if c.location.City == "" {
		c.logger.Warn("weather refresh skipped", "err", ErrNoLocation)
		c.notifyError(ErrorLocation)
		return
	}
	if err := c.fetcher.FetchAndStore(ctx, c.location); err != nil {
		c.logger.Warn("weather refresh failed", "location", c.location.Key(), "err", err)
		c.notifyError(ErrorNetwork)
		return
	}
	for _, o := range c.snapshotObservers() {
		o.WeatherUpdated()
	}
}

// NotifySettingsChanged forwards a settings change to observers.
func (c *Client) NotifySettingsChanged() {
	for _, o := range c.snapshotObservers() {
		o.UpdateSettings()
	}
}

// Close drops every observer and the cached info.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = nil
	c.info = nil
}

func (c *Client) notifyError(reason ErrorReason) {
	for _, o := range c.snapshotObservers() {
		o.WeatherError(reason)
	}
}

func (c *Client) snapshotObservers() []Observer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.observers)
}

func newInfo(snap WeatherSnapshot, loc Location, units Units) *Info {
	temp := snap.Temperature
	if units == UnitsImperial {
		temp = temp*9/5 + 32
	}
	city := snap.Location.City
	if city == "" {
		city = loc.City
	}
	return &Info{
		City:          city,
		Temp:          strconv.Itoa(int(math.Round(temp))),
		TempUnits:     units.Symbol(),
		Condition:     snap.ConditionText,
		ConditionCode: snap.Condition,
		Timestamp:     snap.Timestamp,
	}
}

// IconFor maps a condition to its icon.
func IconFor(code Condition) Icon {
	switch code {
	case ConditionClear:
		return Icon{Name: "weather-clear", Glyph: "☀"}
	case ConditionCloudy:
		return Icon{Name: "weather-overcast", Glyph: "☁"}
	case ConditionRain:
		return Icon{Name: "weather-showers", Glyph: "🌧"}
	case ConditionSnow:
		return Icon{Name: "weather-snow", Glyph: "❄"}
	case ConditionStorm:
		return Icon{Name: "weather-storm", Glyph: "⛈"}
	case ConditionMist:
		return Icon{Name: "weather-fog", Glyph: "🌫"}
	case ConditionWind:
		return Icon{Name: "weather-windy", Glyph: "🌬"}
	default:
		return Icon{Name: "weather-severe-alert", Glyph: "?"}
	}
}
