package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-society/internal/config"
	"github.com/trentd187/golf-society/internal/feed"
	"github.com/trentd187/golf-society/internal/middleware"
	"github.com/trentd187/golf-society/internal/society"
)

// Deps are the collaborators the routes need. DB and History may be nil, in which case
// /health skips the database ping and /api/v1/history isn't mounted.
type Deps struct {
	Config  *config.Config
	Service *society.Service
	Hub     *feed.Hub
	DB      Pinger
	History HistorySource
}

// Register mounts every route on app.
//
//	GET  /health                      liveness and database ping
//	GET  /api/v1/data                 players, events and ledger at one revision
//	GET  /api/v1/ledger/balances      per-player balances
//	GET  /api/v1/history              commit log of the society's documents
//	GET  /api/v1/feed                 Server-Sent Events change feed
//	POST /api/v1/auth/check           password check, issues a session token
//	POST /api/v1/players              add a player (admin)
//	POST /api/v1/events/finalize      finalize an event (admin)
//	POST /api/v1/events/unfinalize    revert an event (admin)
func Register(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))

	api := app.Group("/api/v1")
	api.Get("/data", GetData(d.Service))
	api.Get("/ledger/balances", GetBalances(d.Service))
	if d.History != nil {
		api.Get("/history", GetHistory(d.History, d.Config.DataBranch))
	}
	api.Get("/feed", Feed(d.Hub))
	api.Post("/auth/check", CheckAuth(d.Config))

	// AdminAuth runs before each admin handler, so a rejected credential never reaches
	// the service or the store.
	admin := middleware.AdminAuth(d.Config)
	api.Post("/players", admin, AddPlayer(d.Service))
	api.Post("/events/finalize", admin, FinalizeEvent(d.Service))
	api.Post("/events/unfinalize", admin, UnfinalizeEvent(d.Service))
}
