package store

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/i474232898/quickspace/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// MemoryStore keeps a bounded, time-ordered history of snapshots per
// location. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]weather.WeatherSnapshot

	maxHistory int           // <= 0 means unlimited
	maxAge     time.Duration // <= 0 means unlimited
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.WeatherSnapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
// The newest snapshot is always kept, however old it is.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], snapshot)

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		first := slices.IndexFunc(history, func(w weather.WeatherSnapshot) bool {
			return !w.Timestamp.Before(cutoff)
		})
		if first < 0 {
			first = len(history) - 1
		}
		history = history[first:]
	}

	s.data[key] = history
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if len(history) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.WeatherSnapshot
	for _, snap := range s.data[loc.Key()] {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
