package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/models"
)

// HistorySource lists the revisions of a branch, newest first.
type HistorySource interface {
	History(ctx context.Context, branch string, limit int) ([]models.Revision, error)
}

// RevisionResponse is one entry of GET /api/v1/history.
type RevisionResponse struct {
	ID        string  `json:"id"`
	Seq       int64   `json:"seq"`
	ParentID  *string `json:"parentId"`
	Message   string  `json:"message"`
	CreatedAt string  `json:"createdAt"` // RFC 3339
}

// GetHistory returns a handler for GET /api/v1/history?limit=N (default 50, max 500).
// It lists the commits made to the society's documents so an admin can see who-did-what
// in commit-message form ("chore: Finalize event - ...").
func GetHistory(src HistorySource, branch string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "limit must be between 1 and 500.",
			})
		}

		revs, err := src.History(c.UserContext(), branch, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to fetch history.",
				"error":   err.Error(),
			})
		}

		response := make([]RevisionResponse, 0, len(revs))
		for _, rev := range revs {
			var parent *string
			if rev.ParentID != nil {
				s := rev.ParentID.String()
				parent = &s
			}
			response = append(response, RevisionResponse{
				ID:        rev.ID.String(),
				Seq:       rev.Seq,
				ParentID:  parent,
				Message:   rev.Message,
				CreatedAt: rev.CreatedAt.UTC().Format(time.RFC3339),
			})
		}

		return c.JSON(response)
	}
}
