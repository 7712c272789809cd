// Package quickevents decides what the quickspace surface headlines: the
// track that is playing right now, or a greeting for the time of day.
package quickevents

import (
	"sync"
	"time"

	"github.com/i474232898/quickspace/internal/resources"
)

// Kind of event on display.
type Kind string

const (
	KindGreeting   Kind = "greeting"
	KindNowPlaying Kind = "now_playing"
)

// Event is what the surface shows.
type Event struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}

// StringLookup resolves UI string IDs.
type StringLookup interface {
	String(id string) string
}

// IDLookup resolves every ID to itself.
type IDLookup struct{}

func (IDLookup) String(id string) string { return id }

type mediaInfo struct {
	title   string
	artist  string
	playing bool
}

// Controller aggregates the inputs and holds the current event.
type Controller struct {
	strings StringLookup
	now     func() time.Time

	mu     sync.RWMutex
	paused bool
	media  mediaInfo
	event  Event
	quick  bool
}

// New creates a Controller with a greeting already computed. A nil strings
// falls back to IDLookup.
func New(strings StringLookup) *Controller {
	if strings == nil {
		strings = IDLookup{}
	}
	c := &Controller{strings: strings, now: time.Now}
	c.UpdateQuickEvents()
	return c
}

// SetClock replaces the time source. Used in tests.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// SetMediaInfo records the now-playing state; it takes effect on the next
// UpdateQuickEvents.
func (c *Controller) SetMediaInfo(title, artist string, playing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.media = mediaInfo{title: title, artist: artist, playing: playing}
}

// UpdateQuickEvents recomputes the event. It is ignored while paused.
func (c *Controller) UpdateQuickEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}

	if c.media.playing && c.media.title != "" {
		c.event = Event{
			Kind:  KindNowPlaying,
			Title: c.media.title,
			Text:  c.nowPlayingText(),
		}
		c.quick = true
		return
	}

	c.event = Event{Kind: KindGreeting, Title: c.strings.String(greetingFor(c.now()))}
	c.quick = false
}

func (c *Controller) nowPlayingText() string {
	label := c.strings.String(resources.NowPlaying)
	if c.media.artist == "" {
		return label
	}
	return label + " · " + c.media.artist
}

// IsQuickEvent reports whether a now-playing event is on display.
func (c *Controller) IsQuickEvent() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quick
}

// Event returns the current event.
func (c *Controller) Event() Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.event
}

// OnResume re-enables updates and refreshes the event.
func (c *Controller) OnResume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	c.UpdateQuickEvents()
}

// OnPause freezes the current event.
func (c *Controller) OnPause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func greetingFor(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return resources.GreetingMorning
	case h >= 12 && h < 17:
		return resources.GreetingAfternoon
	case h >= 17 && h < 22:
		return resources.GreetingEvening
	default:
		return resources.GreetingNight
	}
}
