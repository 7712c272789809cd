// Package mpris reads media sessions from MPRIS players on the D-Bus
// session bus.
package mpris

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/i474232898/quickspace/internal/media"
)

const (
	busPrefix         = "org.mpris.MediaPlayer2."
	playerPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootIface         = "org.mpris.MediaPlayer2"
	playerIface       = "org.mpris.MediaPlayer2.Player"
	propertiesIface   = "org.freedesktop.DBus.Properties"
	propertiesChanged = propertiesIface + ".PropertiesChanged"
)

// DefaultRemotePatterns match players that mirror playback happening on
// another device. KDE Connect exposes a phone's players this way.
var DefaultRemotePatterns = []string{"kdeconnect"}

// Manager implements media.SessionManager over MPRIS.
type Manager struct {
	conn           *dbus.Conn
	remotePatterns []string
	logger         *slog.Logger

	mu        sync.Mutex
	callbacks map[string][]media.Callback // keyed by unique owner name

	signals   chan *dbus.Signal
	done      chan struct{}
	closeOnce sync.Once
}

// Connect opens the session bus and starts dispatching PropertiesChanged
// signals. remotePatterns are matched case-insensitively against bus names.
func Connect(remotePatterns []string, logger *slog.Logger) (*Manager, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	m, err := newManager(conn, remotePatterns, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

func newManager(conn *dbus.Conn, remotePatterns []string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		conn:           conn,
		remotePatterns: remotePatterns,
		logger:         logger,
		callbacks:      make(map[string][]media.Callback),
		signals:        make(chan *dbus.Signal, 16),
		done:           make(chan struct{}),
	}
	if err := conn.AddMatchSignal(m.matchOptions()...); err != nil {
		return nil, fmt.Errorf("add match: %w", err)
	}
	conn.Signal(m.signals)
	go m.dispatch()
	return m, nil
}

func (m *Manager) matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(playerPath),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	}
}

// ActiveSessions lists every MPRIS player currently on the bus.
func (m *Manager) ActiveSessions() []media.Controller {
	var names []string
	if err := m.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		m.logger.Debug("list bus names failed", "err", err)
		return nil
	}

	var sessions []media.Controller
	for _, name := range names {
		if !strings.HasPrefix(name, busPrefix) {
			continue
		}
		var owner string
		if err := m.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner); err != nil {
			continue
		}
		obj := m.conn.Object(name, playerPath)
		sessions = append(sessions, &session{
			m:       m,
			busName: name,
			owner:   owner,
			obj:     obj,
			pkg:     packageName(name, identity(obj)),
			remote:  isRemote(name, m.remotePatterns),
		})
	}
	return sessions
}

// Close stops signal dispatch and closes the bus connection.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		m.conn.RemoveSignal(m.signals)
		_ = m.conn.RemoveMatchSignal(m.matchOptions()...)
		err = m.conn.Close()
	})
	return err
}

func (m *Manager) register(owner string, cb media.Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.callbacks[owner], cb) {
		return
	}
	m.callbacks[owner] = append(m.callbacks[owner], cb)
}

func (m *Manager) unregister(owner string, cb media.Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cbs := slices.DeleteFunc(m.callbacks[owner], func(x media.Callback) bool { return x == cb })
	if len(cbs) == 0 {
		delete(m.callbacks, owner)
		return
	}
	m.callbacks[owner] = cbs
}

func (m *Manager) callbacksFor(owner string) []media.Callback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.callbacks[owner])
}

func (m *Manager) dispatch() {
	for {
		select {
		case <-m.done:
			return
		case sig, ok := <-m.signals:
			if !ok {
				return
			}
			m.handleSignal(sig)
		}
	}
}

func (m *Manager) handleSignal(sig *dbus.Signal) {
	if sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return
	}
	iface, _ := sig.Body[0].(string)
	if iface != playerIface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	cbs := m.callbacksFor(sig.Sender)
	if len(cbs) == 0 {
		return
	}

	if v, ok := changed["PlaybackStatus"]; ok {
		status, _ := v.Value().(string)
		ps := &media.PlaybackState{State: stateFromStatus(status)}
		for _, cb := range cbs {
			cb.OnPlaybackStateChanged(ps)
		}
	}
	if v, ok := changed["Metadata"]; ok {
		raw, _ := v.Value().(map[string]dbus.Variant)
		meta := parseMetadata(raw)
		for _, cb := range cbs {
			cb.OnMetadataChanged(meta)
		}
	}
}

// session is one MPRIS player.
type session struct {
	m       *Manager
	busName string
	owner   string
	obj     dbus.BusObject
	pkg     string
	remote  bool
}

func (s *session) PackageName() string { return s.pkg }

func (s *session) PlaybackInfo() *media.PlaybackInfo {
	if s.remote {
		return &media.PlaybackInfo{Type: media.PlaybackRemote}
	}
	return &media.PlaybackInfo{Type: media.PlaybackLocal}
}

func (s *session) PlaybackState() *media.PlaybackState {
	v, err := s.obj.GetProperty(playerIface + ".PlaybackStatus")
	if err != nil {
		return nil
	}
	status, ok := v.Value().(string)
	if !ok {
		return nil
	}
	return &media.PlaybackState{State: stateFromStatus(status)}
}

func (s *session) Metadata() *media.Metadata {
	v, err := s.obj.GetProperty(playerIface + ".Metadata")
	if err != nil {
		return nil
	}
	raw, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return nil
	}
	return parseMetadata(raw)
}

func (s *session) RegisterCallback(cb media.Callback)   { s.m.register(s.owner, cb) }
func (s *session) UnregisterCallback(cb media.Callback) { s.m.unregister(s.owner, cb) }

func (s *session) ControlsSameSession(other media.Controller) bool {
	o, ok := other.(*session)
	return ok && o.owner == s.owner && o.busName == s.busName
}

func identity(obj dbus.BusObject) string {
	v, err := obj.GetProperty(rootIface + ".Identity")
	if err != nil {
		return ""
	}
	id, _ := v.Value().(string)
	return id
}

// packageName prefers the player's Identity so that a local player and its
// remote mirror ("Spotify" on both) share a package.
func packageName(busName, identity string) string {
	if identity != "" {
		return strings.ToLower(identity)
	}
	name := strings.TrimPrefix(busName, busPrefix)
	// Drop ".instance1234" suffixes.
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func isRemote(busName string, patterns []string) bool {
	lower := strings.ToLower(busName)
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func stateFromStatus(status string) media.State {
	switch status {
	case "Playing":
		return media.StatePlaying
	case "Paused":
		return media.StatePaused
	case "Stopped":
		return media.StateStopped
	default:
		return media.StateNone
	}
}

func parseMetadata(raw map[string]dbus.Variant) *media.Metadata {
	if raw == nil {
		return nil
	}
	meta := &media.Metadata{}
	if v, ok := raw["xesam:title"]; ok {
		meta.Title, _ = v.Value().(string)
	}
	if v, ok := raw["xesam:album"]; ok {
		meta.Album, _ = v.Value().(string)
	}
	if v, ok := raw["xesam:artist"]; ok {
		switch a := v.Value().(type) {
		case []string:
			meta.Artist = strings.Join(a, ", ")
		case string:
			meta.Artist = a
		}
	}
	if v, ok := raw["mpris:length"]; ok {
		switch l := v.Value().(type) {
		case int64:
			meta.Length = time.Duration(l) * time.Microsecond
		case uint64:
			meta.Length = time.Duration(l) * time.Microsecond
		case int32:
			meta.Length = time.Duration(l) * time.Microsecond
		}
	}
	return meta
}
