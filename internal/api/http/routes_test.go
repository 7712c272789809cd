package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/quickspace/internal/config"
	"github.com/i474232898/quickspace/internal/quickevents"
	"github.com/i474232898/quickspace/internal/quickspace"
	"github.com/i474232898/quickspace/internal/resources"
	"github.com/i474232898/quickspace/internal/store"
	"github.com/i474232898/quickspace/internal/weather"
)

var oslo = weather.Location{City: "Oslo", Country: "NO"}

type testEnv struct {
	app   *fiber.App
	qs    *quickspace.Controller
	store *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	strs, err := resources.Load("en")
	require.NoError(t, err)

	memStore := store.NewMemoryStore(10, time.Hour)
	svc := weather.NewService(memStore, nil, nil)
	client := weather.NewClient(svc, oslo, weather.UnitsMetric, nil)
	prefs := config.NewPreferences(&config.AppConfig{QuickspaceWeather: true, ShowWeatherText: true})

	qs := quickspace.New(quickspace.Options{
		Weather:  client,
		Events:   quickevents.New(strs),
		Strings:  strs,
		Settings: prefs,
	})
	t.Cleanup(qs.OnDestroy)

	app := fiber.New()
	RegisterRoutes(app, Deps{Quickspace: qs, Weather: svc})
	return &testEnv{app: app, qs: qs, store: memStore}
}

func (e *testEnv) getView(t *testing.T) quickspaceView {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/quickspace", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v quickspaceView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestQuickspaceViewBeforeWeatherLoaded(t *testing.T) {
	env := newTestEnv(t)

	v := env.getView(t)
	assert.True(t, v.Weather.Available)
	assert.Empty(t, v.Weather.Text)
	assert.Nil(t, v.Weather.Icon)
	assert.Equal(t, quickevents.KindGreeting, v.Event.Kind)
	assert.False(t, v.QuickEvent)
}

func TestQuickspaceViewAfterListenerAdded(t *testing.T) {
	env := newTestEnv(t)
	env.store.SaveSnapshot(oslo, weather.WeatherSnapshot{
		Location:      oslo,
		Timestamp:     time.Now().UTC(),
		Temperature:   21.4,
		Condition:     weather.ConditionClear,
		ConditionText: "Clear sky",
	})

	l := newStreamListener()
	env.qs.AddListener(l)

	require.Eventually(t, func() bool {
		return env.getView(t).Weather.Icon != nil
	}, 2*time.Second, 10*time.Millisecond)

	v := env.getView(t)
	assert.Equal(t, " 21°C · Sunny", v.Weather.Text)
	assert.Equal(t, weather.IconFor(weather.ConditionClear), *v.Weather.Icon)
	assert.Equal(t, "now", v.Weather.Updated)
}

func TestQuickspaceViewLoadsWeatherOnResume(t *testing.T) {
	env := newTestEnv(t)
	env.store.SaveSnapshot(oslo, weather.WeatherSnapshot{
		Location:      oslo,
		Timestamp:     time.Now().UTC(),
		Temperature:   4.6,
		Condition:     weather.ConditionRain,
		ConditionText: "Light rain",
	})

	resp, err := env.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/quickspace/resume", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Eventually(t, func() bool {
		return env.getView(t).Weather.Text != ""
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, " 5°C · Rainy", env.getView(t).Weather.Text)
}

func TestPauseClosesStreamListeners(t *testing.T) {
	env := newTestEnv(t)

	l := newStreamListener()
	env.qs.AddListener(l)

	select {
	case <-l.updates:
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not notified on add")
	}

	resp, err := env.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/quickspace/pause", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("pause did not close the stream listener")
	}

	resp, err = env.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/quickspace/resume", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStreamListenerCoalescesUpdates(t *testing.T) {
	l := newStreamListener()
	l.OnDataUpdated()
	l.OnDataUpdated()
	l.OnDataUpdated()

	assert.Len(t, l.updates, 1)
	assert.NotEmpty(t, l.id)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}

func TestWeatherHistory(t *testing.T) {
	env := newTestEnv(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.store.SaveSnapshot(oslo, weather.WeatherSnapshot{Location: oslo, Timestamp: ts, Temperature: 11})

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing city", "?country=NO&from=2024-05-01T00:00:00Z&to=2024-05-02T00:00:00Z", http.StatusBadRequest},
		{"missing range", "?city=Oslo&country=NO", http.StatusBadRequest},
		{"bad time", "?city=Oslo&country=NO&from=yesterday&to=2024-05-02T00:00:00Z", http.StatusBadRequest},
		{"to before from", "?city=Oslo&country=NO&from=2024-05-02T00:00:00Z&to=2024-05-01T00:00:00Z", http.StatusBadRequest},
		{"empty range", "?city=Oslo&country=NO&from=2024-06-01T00:00:00Z&to=2024-06-02T00:00:00Z", http.StatusNotFound},
		{"unix seconds", "?city=Oslo&country=NO&from=1714521600&to=1714608000", http.StatusOK},
		{"rfc3339", "?city=Oslo&country=NO&from=2024-05-01T00:00:00Z&to=2024-05-02T00:00:00Z", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/history"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status != http.StatusOK {
				return
			}
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var out struct {
				Snapshots []weather.WeatherSnapshot `json:"snapshots"`
			}
			require.NoError(t, json.Unmarshal(body, &out))
			require.Len(t, out.Snapshots, 1)
			assert.Equal(t, 11.0, out.Snapshots[0].Temperature)
		})
	}
}

func TestWeatherCurrent(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?city=Oslo&country=NO", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.store.SaveSnapshot(oslo, weather.WeatherSnapshot{Location: oslo, Timestamp: time.Now().UTC()})
	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?city=Oslo&country=NO", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
