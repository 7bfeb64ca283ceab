package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/models"
	"github.com/trentd187/golf-society/internal/society"
)

// FinalizeRequest is the JSON body of POST /api/v1/events/finalize.
// AllEvents is the admin UI's full events list, including events created there but not
// saved yet; the finalized list replaces data/events.json.
type FinalizeRequest struct {
	EventID   string         `json:"eventId"`
	Scores    []models.Score `json:"scores"`
	AllEvents []models.Event `json:"allEvents"`
}

// UnfinalizeRequest is the JSON body of POST /api/v1/events/unfinalize.
type UnfinalizeRequest struct {
	EventID string `json:"eventId"`
}

// FinalizeEvent returns a handler for POST /api/v1/events/finalize.
// Requires the admin credential (middleware.AdminAuth on the route).
//
// Responses:
//   - 200 with the new revision and a summary of fees, fines, prize and handicaps
//   - 400 when eventId, scores or allEvents is missing, or the event is already finalized
//   - 404 when eventId isn't in allEvents
//   - 500 when reading or committing the documents failed; nothing was written
func FinalizeEvent(svc *society.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req FinalizeRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}

		res, err := svc.FinalizeEvent(c.UserContext(), req.EventID, req.Scores, req.AllEvents)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{
			"message":  "Event finalized successfully.",
			"revision": res.Revision,
			"outcome":  res.Outcome,
		})
	}
}

// UnfinalizeEvent returns a handler for POST /api/v1/events/unfinalize.
// It removes the event's ledger entries and handicap adjustments so scores can be
// corrected and the event finalized again.
func UnfinalizeEvent(svc *society.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UnfinalizeRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}

		res, err := svc.UnfinalizeEvent(c.UserContext(), req.EventID)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{
			"message":  "Event reverted successfully.",
			"revision": res.Revision,
			"outcome":  res.Outcome,
		})
	}
}
