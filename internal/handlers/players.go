package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/society"
)

// AddPlayer returns a handler for POST /api/v1/players.
// The body is {name, email, phone, leagueId, handicap}; name, leagueId and handicap are
// required. The new player starts with a single "Initial Handicap" history entry.
func AddPlayer(svc *society.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req society.NewPlayer
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}

		player, err := svc.AddPlayer(c.UserContext(), req)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "Player added successfully!",
			"player":  player,
		})
	}
}
