package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/quickspace/internal/weather"
)

var validate = validator.New()

// envFile is looked up under the XDG config dirs after ./.env.
const envFile = "quickspace/quickspace.env"

type AppConfig struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level
	Port     string `validate:"required,numeric"`

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// Location shown on the surface.
	Location weather.Location
	Units    weather.Units `validate:"oneof=metric imperial"`
	Language string        `validate:"required"`

	// FetchInterval controls how often providers are polled.
	FetchInterval time.Duration `validate:"gt=0"`
	// MediaPollInterval controls media rescans; 0 disables polling.
	MediaPollInterval time.Duration `validate:"gte=0"`
	HTTPTimeout       time.Duration `validate:"gt=0"`

	// In-memory store retention.
	StoreMaxHistory int           `validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `validate:"gte=0"` // 0 = unlimited

	// WeatherServiceEnabled switches the weather client itself; the display
	// toggles below only affect what the surface shows.
	WeatherServiceEnabled bool
	QuickspaceWeather     bool
	ShowCity              bool
	ShowWeatherText       bool
	NowPlaying            bool

	// RemotePlayerPatterns mark MPRIS players that mirror another device.
	RemotePlayerPatterns []string
}

// Load reads configuration from the environment (and .env when present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	loadEnvFiles()
	cfg := &AppConfig{}
	var err error

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	if cfg.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.Location, err = loadLocation(); err != nil {
		return nil, err
	}
	cfg.Units = weather.Units(getenvDefault("WEATHER_UNITS", string(weather.UnitsMetric)))
	cfg.Language = getenvDefault("QUICKSPACE_LANGUAGE", "en")

	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.MediaPollInterval, err = getenvDuration("MEDIA_POLL_INTERVAL", "5s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.WeatherServiceEnabled = getenvBool("WEATHER_ENABLED", true)
	cfg.QuickspaceWeather = getenvBool("QUICKSPACE_WEATHER", true)
	cfg.ShowCity = getenvBool("QUICKSPACE_SHOW_CITY", false)
	cfg.ShowWeatherText = getenvBool("QUICKSPACE_SHOW_WEATHER_TEXT", true)
	cfg.NowPlaying = getenvBool("QUICKSPACE_NOW_PLAYING", true)

	cfg.RemotePlayerPatterns = splitList(getenvDefault("MEDIA_REMOTE_PLAYERS", "kdeconnect"))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles fills unset variables from ./.env, then from the user's
// config file. Variables already in the environment win.
func loadEnvFiles() {
	files := []string{".env"}
	if p, err := xdg.SearchConfigFile(envFile); err == nil {
		files = append(files, p)
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			slog.Debug("env file not loaded", "file", f, "err", err)
		}
	}
}

func loadLocation() (weather.Location, error) {
	loc := weather.Location{
		City:    strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY")),
		Country: strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY")),
	}
	latStr, lonStr := os.Getenv("WEATHER_LOCATION_LAT"), os.Getenv("WEATHER_LOCATION_LON")
	if latStr == "" && lonStr == "" {
		return loc, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return loc, fmt.Errorf("invalid WEATHER_LOCATION_LAT %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return loc, fmt.Errorf("invalid WEATHER_LOCATION_LON %q: %w", lonStr, err)
	}
	loc.Lat, loc.Lon = &lat, &lon
	return loc, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
