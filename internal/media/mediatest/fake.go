// Package mediatest provides in-memory media sessions for tests.
package mediatest

import (
	"slices"
	"sync"

	"github.com/i474232898/quickspace/internal/media"
)

// Session is a scriptable media.Controller.
type Session struct {
	Package string
	ID      string

	mu        sync.Mutex
	info      *media.PlaybackInfo
	state     *media.PlaybackState
	meta      *media.Metadata
	callbacks []media.Callback
}

// NewSession returns a session of the given type in state, with metadata.
func NewSession(pkg string, typ media.PlaybackType, state media.State, title, artist string) *Session {
	return &Session{
		Package: pkg,
		ID:      pkg,
		info:    &media.PlaybackInfo{Type: typ},
		state:   &media.PlaybackState{State: state},
		meta:    &media.Metadata{Title: title, Artist: artist},
	}
}

func (s *Session) PackageName() string { return s.Package }

func (s *Session) PlaybackInfo() *media.PlaybackInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *Session) PlaybackState() *media.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Metadata() *media.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *Session) RegisterCallback(cb media.Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

func (s *Session) UnregisterCallback(cb media.Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = slices.DeleteFunc(s.callbacks, func(x media.Callback) bool { return x == cb })
}

func (s *Session) ControlsSameSession(other media.Controller) bool {
	o, ok := other.(*Session)
	return ok && o.ID == s.ID
}

// SetInfo replaces the playback info; nil simulates an unreported value.
func (s *Session) SetInfo(info *media.PlaybackInfo) {
	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
}

// Callbacks returns the number of registered callbacks.
func (s *Session) Callbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

// SetState changes the state and fires OnPlaybackStateChanged.
func (s *Session) SetState(state media.State) {
	s.mu.Lock()
	s.state = &media.PlaybackState{State: state}
	ps := s.state
	cbs := slices.Clone(s.callbacks)
	s.mu.Unlock()
	for _, cb := range cbs {
		cb.OnPlaybackStateChanged(ps)
	}
}

// SetMetadata changes the metadata and fires OnMetadataChanged.
func (s *Session) SetMetadata(title, artist string) {
	s.mu.Lock()
	s.meta = &media.Metadata{Title: title, Artist: artist}
	meta := s.meta
	cbs := slices.Clone(s.callbacks)
	s.mu.Unlock()
	for _, cb := range cbs {
		cb.OnMetadataChanged(meta)
	}
}

// Manager is a media.SessionManager over a mutable list of sessions.
type Manager struct {
	mu       sync.Mutex
	sessions []media.Controller
}

func NewManager(sessions ...media.Controller) *Manager {
	return &Manager{sessions: sessions}
}

func (m *Manager) ActiveSessions() []media.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sessions)
}

// Set replaces the active sessions.
func (m *Manager) Set(sessions ...media.Controller) {
	m.mu.Lock()
	m.sessions = sessions
	m.mu.Unlock()
}
