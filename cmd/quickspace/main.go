package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/quickspace/internal/api/http"
	"github.com/i474232898/quickspace/internal/config"
	"github.com/i474232898/quickspace/internal/logging"
	"github.com/i474232898/quickspace/internal/media"
	"github.com/i474232898/quickspace/internal/media/mpris"
	"github.com/i474232898/quickspace/internal/quickevents"
	"github.com/i474232898/quickspace/internal/quickspace"
	"github.com/i474232898/quickspace/internal/resources"
	"github.com/i474232898/quickspace/internal/scheduler"
	"github.com/i474232898/quickspace/internal/store"
	"github.com/i474232898/quickspace/internal/weather"
	"github.com/i474232898/quickspace/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Providers with resilience (backoff + circuit breaker).
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	// Open-Meteo is keyless but needs coordinates.
	switch {
	case cfg.GeocoderAPIKey != "":
		provs = append(provs, providers.NewOpenMeteoProvider(httpClient, providers.GoogleGeocoder(cfg.GeocoderAPIKey)))
	case cfg.Location.Lat != nil:
		provs = append(provs, providers.NewOpenMeteoProvider(httpClient, nil))
	}
	if len(provs) == 0 {
		log.Warn("no weather providers configured")
	}

	service := weather.NewService(memStore, provs, log.With("component", "weather"))
	client := weather.NewClient(service, cfg.Location, cfg.Units, log.With("component", "weather-client"))
	client.SetEnabled(cfg.WeatherServiceEnabled)

	var sessions media.SessionManager = media.NoSessions{}
	registry, err := mpris.Connect(cfg.RemotePlayerPatterns, log.With("component", "mpris"))
	if err != nil {
		log.Warn("media sessions unavailable", "err", err)
	} else {
		sessions = registry
		defer registry.Close()
	}

	strs, err := resources.Load(cfg.Language)
	if err != nil {
		log.Error("failed to load strings", "err", err)
		os.Exit(1)
	}

	prefs := config.NewPreferences(cfg)
	qs := quickspace.New(quickspace.Options{
		Weather:  client,
		Sessions: sessions,
		Events:   quickevents.New(strs),
		Strings:  strs,
		Settings: prefs,
		Logger:   log.With("component", "quickspace"),
	})
	qs.OnResume()
	defer qs.OnDestroy()

	sched := scheduler.New(client, cfg.FetchInterval, qs, cfg.MediaPollInterval, log.With("component", "scheduler"))
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()
	defer client.Close()

	app := fiber.New(fiber.Config{
		AppName:               "quickspace",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "quickspace",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Quickspace: qs,
		Weather:    service,
		Logger:     log.With("component", "http"),
	})

	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "err", err)
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

loop:
	for {
		select {
		case <-hup:
			reload(log, prefs, client)
		case <-ctx.Done():
			break loop
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
}

// reload re-reads the environment and applies the toggles that can change
// without a restart.
func reload(log *slog.Logger, prefs *config.Preferences, client *weather.Client) {
	cfg, err := config.Load()
	if err != nil {
		log.Error("config reload failed", "err", err)
		return
	}
	prefs.Apply(cfg)
	client.SetUnits(cfg.Units)
	client.SetEnabled(cfg.WeatherServiceEnabled)
	client.NotifySettingsChanged()
	log.Info("config reloaded")
}
