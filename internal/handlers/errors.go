package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/society"
)

// statusFor maps an error kind to its HTTP status.
// An already-finalized event is a client mistake, so it is a 400 like any other bad input.
func statusFor(kind society.Kind) int {
	switch kind {
	case society.KindUnauthorized:
		return fiber.StatusUnauthorized
	case society.KindValidation, society.KindConflict:
		return fiber.StatusBadRequest
	case society.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError sends err as {"message": ..., "error": ...}. "error" carries the underlying
// cause and is only present when there is one.
func writeError(c *fiber.Ctx, err error) error {
	var e *society.Error
	if !errors.As(err, &e) {
		e = &society.Error{Kind: society.KindStoreFailure, Message: "Internal server error.", Err: err}
	}

	body := fiber.Map{"message": e.Message}
	if e.Err != nil {
		body["error"] = e.Err.Error()
	}
	return c.Status(statusFor(e.Kind)).JSON(body)
}

// ErrorHandler is the app-wide fiber.Config.ErrorHandler. Errors returned from middleware
// (AdminAuth's Unauthorized) and fiber's own errors (unknown route, bad method) get the
// same {"message": ...} body as handler errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return writeError(c, err)
}

// badBody is the response for a request body that isn't valid JSON.
func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body.",
		"error":   err.Error(),
	})
}
