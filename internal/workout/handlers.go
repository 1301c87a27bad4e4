package workout

import (
	"errors"

	"backend-fitquest/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/complete", authMiddleware, func(c *fiber.Ctx) error {
		var req Payload
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, err := svc.Complete(c.Context(), auth.UserID(c), req)
		switch {
		case errors.Is(err, ErrInvalidPayload):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAlreadyCompleted):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(Ack{WorkoutID: w.ID, SessionID: w.SessionID, Status: "completed"})
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		workouts, err := svc.List(c.Context(), auth.UserID(c), c.QueryInt("limit", defaultListLimit))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(workouts)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		w, err := svc.Get(c.Context(), auth.UserID(c), c.Params("id"))
		if errors.Is(err, pgx.ErrNoRows) {
			return fiber.NewError(fiber.StatusNotFound, "workout not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(w)
	})
}
