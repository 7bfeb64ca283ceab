// Package handlers contains the HTTP route handler functions for the Golf Society API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling into the society service, and writing a response.
//
// Exported functions follow the "handler factory" pattern: they take their dependencies
// (the service, the config, the feed hub) and return a fiber.Handler, so nothing is
// reached through global variables.
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is implemented by the store's backing database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /health.
// It answers {"status":"ok"} when the server is up and, if db is non-nil, the database
// answers a ping within two seconds. Load balancers and container probes use it to decide
// whether to send traffic to this instance.
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
