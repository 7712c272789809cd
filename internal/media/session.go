// Package media models active playback sessions and picks the one a
// now-playing surface should follow.
package media

import "time"

// PlaybackType tells where a session renders audio.
type PlaybackType int

const (
	PlaybackLocal PlaybackType = iota + 1
	PlaybackRemote
)

// State is the playback state of a session.
type State int

const (
	StateNone State = iota
	StateStopped
	StatePaused
	StatePlaying
	StateBuffering
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateBuffering:
		return "buffering"
	case StateError:
		return "error"
	default:
		return "none"
	}
}

type PlaybackInfo struct {
	Type PlaybackType
}

type PlaybackState struct {
	State State
}

// Metadata is the subset of track metadata the UI shows.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Length time.Duration
}

// Callback receives changes of a registered session.
type Callback interface {
	OnPlaybackStateChanged(state *PlaybackState)
	OnMetadataChanged(meta *Metadata)
}

// Controller is a handle on one active session. PlaybackInfo, PlaybackState
// and Metadata may return nil when the session does not report them.
type Controller interface {
	PackageName() string
	PlaybackInfo() *PlaybackInfo
	PlaybackState() *PlaybackState
	Metadata() *Metadata
	RegisterCallback(cb Callback)
	UnregisterCallback(cb Callback)
	ControlsSameSession(other Controller) bool
}

// SessionManager enumerates the currently active sessions.
type SessionManager interface {
	ActiveSessions() []Controller
}

// NoSessions is a SessionManager that never reports a session.
type NoSessions struct{}

func (NoSessions) ActiveSessions() []Controller { return nil }

// StateOf returns the playback state of c, StateNone for nil or unreported.
func StateOf(c Controller) State {
	if c == nil {
		return StateNone
	}
	if ps := c.PlaybackState(); ps != nil {
		return ps.State
	}
	return StateNone
}
