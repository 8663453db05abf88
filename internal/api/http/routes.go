package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/noaa-tides/internal/noaa"
	"github.com/i474232898/noaa-tides/internal/store"
)

var validate = validator.New()

// manualRefreshTimeout bounds a refresh triggered over HTTP.
const manualRefreshTimeout = 30 * time.Second

// SensorService is what the handlers need from noaa.Service.
type SensorService interface {
	Sensors() []noaa.Snapshot
	Snapshot(id string) (noaa.Snapshot, error)
	History(id string, from, to time.Time) ([]noaa.Snapshot, error)
	Refresh(ctx context.Context, id string) (noaa.Snapshot, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service SensorService) {
	v1 := app.Group("/api/v1")

	v1.Get("/sensors", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"sensors": service.Sensors()})
	})

	v1.Get("/sensors/:id", func(c *fiber.Ctx) error {
		id, err := sensorID(c)
		if err != nil {
			return err
		}

		snapshot, err := service.Snapshot(id)
		if err != nil {
			return lookupError(err, "failed to read sensor")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/sensors/:id/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := service.History(req.ID, req.From, req.To)
		if err != nil {
			return lookupError(err, "failed to fetch sensor history")
		}

		return c.JSON(fiber.Map{
			"sensor_id": req.ID,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	// A refresh that fails upstream still answers 202; the snapshot carries last_error.
	v1.Post("/sensors/:id/refresh", func(c *fiber.Ctx) error {
		id, err := sensorID(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), manualRefreshTimeout)
		defer cancel()

		snapshot, err := service.Refresh(ctx, id)
		if errors.Is(err, noaa.ErrSensorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "unknown sensor")
		}
		return c.Status(fiber.StatusAccepted).JSON(snapshot)
	})
}

func lookupError(err error, fallback string) error {
	switch {
	case errors.Is(err, noaa.ErrSensorNotFound):
		return fiber.NewError(fiber.StatusNotFound, "unknown sensor")
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no snapshots for requested range")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

type sensorParam struct {
	ID string `validate:"required,uuid"`
}

func sensorID(c *fiber.Ctx) (string, error) {
	p := sensorParam{ID: c.Params("id")}
	if err := validate.Struct(p); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid sensor id")
	}
	return p.ID, nil
}

// historyQuery holds the parameters of the history endpoint.
type historyQuery struct {
	ID   string    `validate:"required,uuid"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.ID = c.Params("id")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
