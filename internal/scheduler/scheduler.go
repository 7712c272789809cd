package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	defaultWeatherInterval = 15 * time.Minute
	refreshTimeout         = 30 * time.Second
)

// WeatherRefresher pulls fresh weather and notifies its observers.
type WeatherRefresher interface {
	Refresh(ctx context.Context)
}

// MediaRefresher rescans the active media sessions.
type MediaRefresher interface {
	RefreshMedia()
}

// Scheduler runs the periodic weather refresh and media rescan jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	weather   WeatherRefresher
	media     MediaRefresher
	logger    *slog.Logger

	weatherInterval time.Duration
	mediaInterval   time.Duration
}

// New creates a Scheduler. A zero mediaInterval disables the media job; a
// non-positive weatherInterval falls back to 15 minutes.
func New(weather WeatherRefresher, weatherInterval time.Duration, media MediaRefresher, mediaInterval time.Duration, logger *slog.Logger) *Scheduler {
	if weatherInterval <= 0 {
		weatherInterval = defaultWeatherInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler:       gocron.NewScheduler(time.UTC),
		weather:         weather,
		media:           media,
		logger:          logger,
		weatherInterval: weatherInterval,
		mediaInterval:   mediaInterval,
	}
}

// Start schedules the jobs and starts the underlying scheduler. The weather
// job runs once immediately.
func (s *Scheduler) Start() error {
	if s.weather != nil {
		_, err := s.scheduler.Every(s.weatherInterval).Do(func() {
			s.logger.Debug("running weather refresh job")
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			s.weather.Refresh(ctx)
		})
		if err != nil {
			return err
		}
	}

	if s.media != nil && s.mediaInterval > 0 {
		_, err := s.scheduler.Every(s.mediaInterval).WaitForSchedule().Do(s.media.RefreshMedia)
		if err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
