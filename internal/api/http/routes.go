package httpapi

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/quickspace/internal/quickevents"
	"github.com/i474232898/quickspace/internal/quickspace"
	"github.com/i474232898/quickspace/internal/store"
	"github.com/i474232898/quickspace/internal/weather"
)

var validate = validator.New()

// Deps are the services the routes read from.
type Deps struct {
	Quickspace *quickspace.Controller
	Weather    *weather.Service
	Logger     *slog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	qs := deps.Quickspace

	v1 := app.Group("/api/v1")

	v1.Get("/quickspace", func(c *fiber.Ctx) error {
		return c.JSON(buildView(qs))
	})

	v1.Get("/quickspace/stream", func(c *fiber.Ctx) error {
		return serveStream(c, qs, deps.Logger)
	})

	v1.Post("/quickspace/resume", func(c *fiber.Ctx) error {
		qs.OnResume()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/quickspace/pause", func(c *fiber.Ctx) error {
		qs.OnPause()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := deps.Weather.GetLatest(locReq.toLocation())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		snapshots, err := deps.Weather.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})
}

type weatherView struct {
	Available bool          `json:"available"`
	Text      string        `json:"text,omitempty"`
	Icon      *weather.Icon `json:"icon,omitempty"`
	Updated   string        `json:"updated,omitempty"`
}

type quickspaceView struct {
	Weather    weatherView       `json:"weather"`
	Event      quickevents.Event `json:"event"`
	QuickEvent bool              `json:"quickEvent"`
}

func buildView(qs *quickspace.Controller) quickspaceView {
	var v quickspaceView
	v.Weather.Available = qs.IsWeatherAvailable()
	if v.Weather.Available {
		if text, ok := qs.WeatherTemp(); ok {
			v.Weather.Text = text
		}
		if icon, ok := qs.WeatherIcon(); ok {
			v.Weather.Icon = &icon
		}
		if at, ok := qs.WeatherObservedAt(); ok {
			v.Weather.Updated = humanize.Time(at)
		}
	}
	v.Event = qs.EventController().Event()
	v.QuickEvent = qs.IsQuickEvent()
	return v
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City    string `validate:"required"`
	Country string `validate:"required"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{City: l.City, Country: l.Country}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{
		City:    c.Query("city"),
		Country: c.Query("country"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}
	if h.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if h.To, err = parseTime(toStr); err != nil {
		return err
	}
	return nil
}

// parseTime accepts RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
