package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/quickspace/internal/weather"
)

var paris = weather.Location{City: "Paris", Country: "FR"}

func snapAt(ts time.Time, temp float64) weather.WeatherSnapshot {
	return weather.WeatherSnapshot{Location: paris, Timestamp: ts, Temperature: temp}
}

func TestGetLatestEmpty(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)
	if _, err := s.GetLatest(paris); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSnapshotRetainsByCount(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(2, 0)

	for i := 0; i < 3; i++ {
		s.SaveSnapshot(paris, snapAt(now.Add(time.Duration(i)*time.Minute), float64(i)))
	}

	all, err := s.GetRange(paris, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(all))
	}
	if all[0].Temperature != 1 || all[1].Temperature != 2 {
		t.Fatalf("expected the two newest snapshots, got %+v", all)
	}
}

func TestSaveSnapshotRetainsByAge(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveSnapshot(paris, snapAt(now.Add(-3*time.Hour), 1))
	s.SaveSnapshot(paris, snapAt(now.Add(-10*time.Minute), 2))

	all, err := s.GetRange(paris, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].Temperature != 2 {
		t.Fatalf("expected only the fresh snapshot, got %+v", all)
	}
}

func TestSaveSnapshotKeepsNewestEvenIfStale(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveSnapshot(paris, snapAt(now.Add(-5*time.Hour), 7))

	latest, err := s.GetLatest(paris)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Temperature != 7 {
		t.Fatalf("expected temperature 7, got %v", latest.Temperature)
	}
}

func TestGetRangeOutsideWindow(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, 0)
	s.SaveSnapshot(paris, snapAt(now, 1))

	if _, err := s.GetRange(paris, now.Add(time.Minute), now.Add(time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
