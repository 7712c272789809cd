package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/quickspace/internal/weather"
)

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestOpenWeatherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Paris,FR" {
			t.Errorf("unexpected q %q", got)
		}
		w.Write([]byte(`{"dt":1760000000,"main":{"temp":18.5,"humidity":60,"pressure":1012},"wind":{"speed":3},"weather":[{"main":"Clouds"}]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "key")
	p.baseURL = srv.URL
	p.req.backoff = fastBackoff

	r, err := p.Fetch(context.Background(), weather.Location{City: "Paris", Country: "FR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Condition != weather.ConditionCloudy || r.ConditionText != "Clouds" || r.TemperatureC != 18.5 {
		t.Fatalf("unexpected reading %+v", r)
	}
}

func TestOpenWeatherRequiresKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")
	if _, err := p.Fetch(context.Background(), weather.Location{City: "Paris"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"current":{"temp_c":5,"condition":{"text":"Light snow"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "key")
	p.baseURL = srv.URL
	p.req.backoff = fastBackoff

	r, err := p.Fetch(context.Background(), weather.Location{City: "Oslo", Country: "NO"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if r.Condition != weather.ConditionSnow {
		t.Fatalf("expected snow, got %s", r.Condition)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "key")
	p.baseURL = srv.URL
	p.req.backoff = fastBackoff

	_, err := p.Fetch(context.Background(), weather.Location{City: "Oslo"})
	if !errors.Is(err, errRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestOpenMeteoGeocodesOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_weather":{"temperature":9.1,"windspeed":7.2,"time":"2026-10-15T09:00","weathercode":45}}`))
	}))
	defer srv.Close()

	var lookups int
	p := NewOpenMeteoProvider(srv.Client(), func(weather.Location) (float64, float64, error) {
		lookups++
		return 52.52, 13.40, nil
	})
	p.baseURL = srv.URL
	p.req.backoff = fastBackoff

	loc := weather.Location{City: "Berlin", Country: "DE"}
	for i := 0; i < 2; i++ {
		r, err := p.Fetch(context.Background(), loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Condition != weather.ConditionMist {
			t.Fatalf("expected mist, got %s", r.Condition)
		}
	}
	if lookups != 1 {
		t.Fatalf("expected 1 geocode lookup, got %d", lookups)
	}
}

func TestOpenMeteoWithoutCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, nil)
	if _, err := p.Fetch(context.Background(), weather.Location{City: "Berlin"}); err == nil {
		t.Fatal("expected error without coordinates")
	}
}

func TestMapWeatherAPICondition(t *testing.T) {
	tests := map[string]weather.Condition{
		"Patchy light rain with thunder": weather.ConditionStorm,
		"Moderate rain":                  weather.ConditionRain,
		"Partly cloudy":                  weather.ConditionCloudy,
		"Sunny":                          weather.ConditionClear,
		"Freezing fog":                   weather.ConditionMist,
		"":                               weather.ConditionUnknown,
	}
	for text, want := range tests {
		if got := mapWeatherAPICondition(text); got != want {
			t.Errorf("%q: got %s, want %s", text, got, want)
		}
	}
}
