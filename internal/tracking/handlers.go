package tracking

import (
	"errors"
	"time"

	"backend-fitquest/internal/auth"
	"backend-fitquest/internal/location"

	"github.com/gofiber/fiber/v2"
)

type fixesRequest struct {
	location.Position
	Fixes []location.Position `json:"fixes"`
}

func RegisterRoutes(r fiber.Router, reg *Registry, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req StartRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.WorkoutType == "" {
			req.WorkoutType = "running"
		}
		if req.Timezone != "" {
			if _, err := time.LoadLocation(req.Timezone); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid timezone")
			}
		}
		st, err := reg.Start(c.Context(), auth.UserID(c), auth.Token(c), req)
		if err != nil {
			return runError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		st, err := reg.Get(auth.UserID(c), c.Params("id"))
		if err != nil {
			return runError(err)
		}
		return c.JSON(st)
	})

	r.Get("/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		points, err := reg.Points(auth.UserID(c), c.Params("id"))
		if err != nil {
			return runError(err)
		}
		return c.JSON(fiber.Map{"session_id": c.Params("id"), "points": points})
	})

	r.Post("/:id/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var req fixesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		fixes := req.Fixes
		if len(fixes) == 0 {
			if req.Position.Timestamp == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "fix or fixes required")
			}
			fixes = []location.Position{req.Position}
		}
		accepted, err := reg.PushFixes(auth.UserID(c), c.Params("id"), auth.Token(c), fixes)
		if err != nil {
			return runError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"received": len(fixes), "accepted": accepted})
	})

	r.Post("/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		st, err := reg.Pause(auth.UserID(c), c.Params("id"), auth.Token(c))
		if err != nil {
			return runError(err)
		}
		return c.JSON(st)
	})

	r.Post("/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		st, err := reg.Resume(auth.UserID(c), c.Params("id"), auth.Token(c))
		if err != nil {
			return runError(err)
		}
		return c.JSON(st)
	})

	r.Post("/:id/complete", authMiddleware, func(c *fiber.Ctx) error {
		st, err := reg.Complete(c.Context(), auth.UserID(c), c.Params("id"), auth.Token(c))
		if err != nil {
			return runError(err)
		}
		return c.JSON(st)
	})

	r.Post("/:id/reset", authMiddleware, func(c *fiber.Ctx) error {
		st, err := reg.Discard(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return runError(err)
		}
		return c.JSON(st)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := reg.Remove(auth.UserID(c), c.Params("id")); err != nil {
			return runError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func runError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrSubscription):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
