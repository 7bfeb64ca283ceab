package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/config"
	"github.com/trentd187/golf-society/internal/middleware"
)

// CheckAuthRequest is the JSON body of POST /api/v1/auth/check.
type CheckAuthRequest struct {
	Password string `json:"password"`
}

// CheckAuth returns a handler for POST /api/v1/auth/check.
// A correct password gets a 200 with a session token the admin UI can send as
// "Authorization: Bearer <token>" instead of keeping the password around.
func CheckAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CheckAuthRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}

		if !middleware.CheckPassword(cfg, req.Password) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid password"})
		}

		token, expires, err := middleware.IssueToken(cfg, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to issue session.",
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message":   "Authentication successful",
			"token":     token,
			"expiresAt": expires.UTC().Format(time.RFC3339),
		})
	}
}
