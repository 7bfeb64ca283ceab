package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/ledger"
	"github.com/trentd187/golf-society/internal/society"
)

// GetData returns a handler for GET /api/v1/data.
// It sends players, events and ledger as read at a single revision, plus that revision.
func GetData(svc *society.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := svc.Data(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(snap)
	}
}

// GetBalances returns a handler for GET /api/v1/ledger/balances.
// Balances are summed from the ledger at the current head; a negative balance is money
// the player owes the society.
func GetBalances(svc *society.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := svc.Data(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"revision": snap.Revision,
			"balances": ledger.Balances(snap.Ledger),
		})
	}
}
