package stats

import (
	"errors"
	"time"

	"backend-fitquest/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, agg *Aggregator, authMiddleware fiber.Handler) {
	r.Get("/daily", authMiddleware, func(c *fiber.Ctx) error {
		day, err := parseDay(c)
		if err != nil {
			return err
		}
		totals, err := agg.Daily(c.Context(), auth.UserID(c), day)
		if err != nil {
			return statsError(err)
		}
		return c.JSON(totals)
	})

	r.Get("/weekly", authMiddleware, func(c *fiber.Ctx) error {
		day, err := parseDay(c)
		if err != nil {
			return err
		}
		totals, err := agg.Weekly(c.Context(), auth.UserID(c), day)
		if err != nil {
			return statsError(err)
		}
		return c.JSON(totals)
	})
}

// parseDay reads ?date=YYYY-MM-DD, defaulting to today in ?tz (UTC when absent).
func parseDay(c *fiber.Ctx) (time.Time, error) {
	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid tz")
		}
		loc = l
	}
	raw := c.Query("date")
	if raw == "" {
		return time.Now().In(loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return day, nil
}

func statsError(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
