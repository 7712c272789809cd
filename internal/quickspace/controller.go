// Package quickspace feeds the quickspace surface: it keeps the current
// weather line and now-playing state and tells listeners when either changes.
package quickspace

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/i474232898/quickspace/internal/media"
	"github.com/i474232898/quickspace/internal/quickevents"
	"github.com/i474232898/quickspace/internal/weather"
)

// Listener is told that data changed and should be read again. A Listener
// that also implements io.Closer is closed when it is removed.
type Listener interface {
	OnDataUpdated()
}

// Settings are read on every use so that changes apply immediately.
type Settings interface {
	WeatherEnabled() bool
	ShowCity() bool
	ShowWeatherText() bool
	NowPlayingEnabled() bool
}

// WeatherClient is the weather source the controller observes.
type WeatherClient interface {
	QueryWeather(ctx context.Context) error
	WeatherInfo() *weather.Info
	ConditionIcon(code weather.Condition) weather.Icon
	Enabled() bool
	AddObserver(o weather.Observer)
	RemoveObserver(o weather.Observer)
}

// Options configure a Controller. Only Settings is required.
type Options struct {
	Weather  WeatherClient
	Sessions media.SessionManager
	Events   *quickevents.Controller
	Strings  quickevents.StringLookup
	Settings Settings
	Logger   *slog.Logger
}

const workerQueue = 8

// Controller aggregates weather and now-playing state for the quickspace
// surface and notifies its listeners when either changes.
type Controller struct {
	sessions media.SessionManager
	events   *quickevents.Controller
	strings  quickevents.StringLookup
	settings Settings
	logger   *slog.Logger

	loop     *looper
	callback *mediaCallback

	mu        sync.Mutex
	listeners []Listener
	weather   WeatherClient
	info      *weather.Info
	icon      *weather.Icon
	worker    *worker
	session   media.Controller
	metadata  *media.Metadata
	resumed   bool
	destroyed bool
}

// New creates a paused Controller. A nil Strings resolves IDs to themselves.
func New(opts Options) *Controller {
	if opts.Strings == nil {
		opts.Strings = quickevents.IDLookup{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = media.NoSessions{}
	}
	if opts.Events == nil {
		opts.Events = quickevents.New(opts.Strings)
	}
	c := &Controller{
		sessions: opts.Sessions,
		events:   opts.Events,
		strings:  opts.Strings,
		settings: opts.Settings,
		logger:   opts.Logger,
		loop:     newLooper(),
		weather:  opts.Weather,
		worker:   newWorker(workerQueue),
	}
	c.callback = &mediaCallback{c: c}
	return c
}

// AddListener registers l, starts observing weather when enabled and
// schedules an immediate OnDataUpdated for l.
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()

	c.addWeatherProvider()
	c.loop.post(l.OnDataUpdated)
}

// RemoveListener drops l. Weather is no longer observed once the last
// listener is gone and the controller is not resumed.
func (c *Controller) RemoveListener(l Listener) {
	c.mu.Lock()
	i := slices.Index(c.listeners, l)
	if i >= 0 {
		c.listeners = slices.Delete(c.listeners, i, i+1)
	}
	idle := len(c.listeners) == 0 && !c.resumed
	w := c.weather
	c.mu.Unlock()

	if idle && w != nil {
		w.RemoveObserver(c)
	}
	if i < 0 {
		return
	}
	if closer, ok := l.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.logger.Debug("listener close failed", "err", err)
		}
	}
}

// NotifyListeners posts a single OnDataUpdated round to every listener.
func (c *Controller) NotifyListeners() {
	c.loop.post(c.dispatchListeners)
}

func (c *Controller) dispatchListeners() {
	c.mu.Lock()
	ls := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, l := range ls {
		l.OnDataUpdated()
	}
}

// OnResume starts work again after OnPause. Weather is observed and
// refreshed while resumed, with or without listeners.
func (c *Controller) OnResume() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.resumed = true
	c.maybeInitWorker()
	c.mu.Unlock()

	c.events.OnResume()
	c.addWeatherProvider()
	c.loop.post(c.updateMediaController)
	c.NotifyListeners()
}

// OnPause removes every listener, stops media callbacks, drops pending
// dispatches and shuts the worker down.
func (c *Controller) OnPause() {
	c.mu.Lock()
	c.resumed = false
	c.mu.Unlock()
	c.cancelListeners()
}

// OnDestroy pauses and releases everything. The controller cannot be reused.
func (c *Controller) OnDestroy() {
	c.mu.Lock()
	c.resumed = false
	c.destroyed = true
	c.mu.Unlock()

	c.cancelListeners()

	c.mu.Lock()
	c.weather = nil
	c.info = nil
	c.icon = nil
	c.metadata = nil
	c.worker = nil
	c.mu.Unlock()

	c.loop.close()
}

func (c *Controller) cancelListeners() {
	c.events.OnPause()

	c.mu.Lock()
	ls := slices.Clone(c.listeners)
	w := c.weather
	c.mu.Unlock()
	for _, l := range ls {
		c.RemoveListener(l)
	}
	if w != nil {
		w.RemoveObserver(c)
	}

	c.unregisterMediaController()
	c.loop.removeAll()

	c.mu.Lock()
	if c.worker != nil && !c.worker.isShutdown() {
		c.worker.shutdownNow()
	}
	c.mu.Unlock()
}

// maybeInitWorker replaces a shut down worker. Callers hold c.mu.
func (c *Controller) maybeInitWorker() {
	if c.worker == nil || c.worker.isShutdown() {
		c.worker = newWorker(workerQueue)
	}
}

// IsQuickEvent reports whether the events controller has an event up.
func (c *Controller) IsQuickEvent() bool {
	return c.events.IsQuickEvent()
}

// EventController returns the quick-events controller fed by media updates.
func (c *Controller) EventController() *quickevents.Controller {
	return c.events
}

// IsWeatherAvailable reports whether a weather client is attached and enabled.
func (c *Controller) IsWeatherAvailable() bool {
	w := c.weatherClient()
	return w != nil && w.Enabled()
}

// WeatherIcon returns the icon of the last refreshed condition.
func (c *Controller) WeatherIcon() (weather.Icon, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.icon == nil {
		return weather.Icon{}, false
	}
	return *c.icon, true
}

// WeatherTemp returns the one-line weather text, or false when no weather
// has been loaded.
func (c *Controller) WeatherTemp() (string, bool) {
	c.mu.Lock()
	info := c.info
	c.mu.Unlock()
	if info == nil {
		return "", false
	}
	return formatWeather(info, c.settings.ShowCity(), c.settings.ShowWeatherText(), c.strings), true
}

// WeatherObservedAt returns when the displayed weather was measured.
func (c *Controller) WeatherObservedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info == nil || c.info.Timestamp.IsZero() {
		return time.Time{}, false
	}
	return c.info.Timestamp, true
}

// RefreshMedia rescans media sessions. Ignored unless resumed.
func (c *Controller) RefreshMedia() {
	c.mu.Lock()
	resumed := c.resumed
	c.mu.Unlock()
	if resumed {
		c.loop.post(c.updateMediaController)
	}
}

// WeatherUpdated implements weather.Observer.
func (c *Controller) WeatherUpdated() {
	c.queryAndUpdateWeather()
}

// WeatherError implements weather.Observer. Only ErrorDisabled clears the
// cached weather; everything else is left for the next refresh.
func (c *Controller) WeatherError(reason weather.ErrorReason) {
	c.logger.Debug("weather error", "reason", reason)
	if reason != weather.ErrorDisabled {
		return
	}
	c.mu.Lock()
	c.info = nil
	c.mu.Unlock()
	c.NotifyListeners()
}

// UpdateSettings implements weather.Observer.
func (c *Controller) UpdateSettings() {
	c.logger.Info("weather settings changed")
	c.queryAndUpdateWeather()
}

func (c *Controller) weatherClient() WeatherClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weather
}

func (c *Controller) addWeatherProvider() {
	if !c.settings.WeatherEnabled() {
		return
	}
	w := c.weatherClient()
	if w == nil {
		return
	}
	w.AddObserver(c)
	c.queryAndUpdateWeather()
}

func (c *Controller) queryAndUpdateWeather() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.maybeInitWorker()
	w := c.worker
	c.mu.Unlock()

	if !w.execute(func(ctx context.Context) { c.refreshWeather(ctx, w) }) {
		c.logger.Debug("weather refresh not scheduled")
	}
}

// refreshWeather runs on worker w. Failures are dropped.
func (c *Controller) refreshWeather(ctx context.Context, w *worker) {
	client := c.weatherClient()
	if client == nil {
		return
	}
	if err := client.QueryWeather(ctx); err != nil {
		c.logger.Debug("weather query failed", "err", err)
		return
	}
	info := client.WeatherInfo()
	var icon *weather.Icon
	if info != nil {
		i := client.ConditionIcon(info.ConditionCode)
		icon = &i
	}

	c.loop.post(func() {
		c.mu.Lock()
		if c.destroyed || c.worker != w || w.isShutdown() {
			c.mu.Unlock()
			return
		}
		c.info = info
		if icon != nil {
			c.icon = icon
		}
		c.mu.Unlock()
		c.dispatchListeners()
	})
}

// active reports whether media work may run: resumed and not destroyed.
func (c *Controller) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumed && !c.destroyed
}

// updateMediaController runs on the looper.
func (c *Controller) updateMediaController() {
	if !c.active() {
		return
	}
	if !c.settings.NowPlayingEnabled() {
		c.unregisterMediaController()
		return
	}
	c.registerMediaController()

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	var meta *media.Metadata
	if session != nil {
		meta = session.Metadata()
	}

	c.mu.Lock()
	if !c.resumed || c.destroyed {
		c.mu.Unlock()
		return
	}
	if session != nil {
		c.metadata = meta
	}
	meta = c.metadata
	c.mu.Unlock()

	playing := media.StateOf(session) == media.StatePlaying
	var title, artist string
	if playing && meta != nil {
		title, artist = meta.Title, meta.Artist
	}
	c.events.SetMediaInfo(title, artist, playing)
	c.events.UpdateQuickEvents()
	c.NotifyListeners()
}

func (c *Controller) registerMediaController() {
	local := media.SelectActiveLocal(c.sessions.ActiveSessions())
	if local == nil {
		return
	}

	// Checked and registered under c.mu: a concurrent OnPause either stops
	// the registration or unregisters it.
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resumed || c.destroyed {
		return
	}
	if c.session != nil && media.SameSession(c.session, local) {
		return
	}
	if c.session != nil {
		c.session.UnregisterCallback(c.callback)
	}
	c.session = local
	local.RegisterCallback(c.callback)
}

func (c *Controller) unregisterMediaController() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.UnregisterCallback(c.callback)
		c.session = nil
	}
}

// mediaCallback funnels session changes onto the looper.
type mediaCallback struct {
	c *Controller
}

func (m *mediaCallback) OnPlaybackStateChanged(*media.PlaybackState) {
	m.c.loop.post(m.c.updateMediaController)
}

func (m *mediaCallback) OnMetadataChanged(*media.Metadata) {
	m.c.loop.post(m.c.updateMediaController)
}
