package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-workbench/internal/api/http/handlers"
	"github.com/spec-kit/support-workbench/internal/auth"
	"github.com/spec-kit/support-workbench/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Agents         *handlers.AgentsHandler
	Workflows      *handlers.WorkflowHandler
	Search         *handlers.SearchHandler
	Sessions       *handlers.SessionsHandler
	TimeTrack      *handlers.TimeTrackHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/agents/login", cfg.Agents.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Get("/me", cfg.Agents.Me)
	authProtected.Post("/password/change", cfg.Agents.ChangePassword)
	authProtected.Post("/agents/register",
		auth.RequireRole(domain.AgentRoleAdmin), cfg.Agents.Register)

	workflows := app.Group("/workflows", cfg.AuthMiddleware.Handle)
	workflows.Post("/", cfg.Workflows.Create)
	workflows.Get("/:id", cfg.Workflows.Get)
	workflows.Get("/:id/history", cfg.Workflows.History)
	workflows.Post("/:id/verification/:field", cfg.Workflows.AttemptVerification)
	workflows.Delete("/:id/verification/:field", cfg.Workflows.ResetVerification)
	workflows.Post("/:id/override", cfg.Workflows.Override)
	workflows.Post("/:id/advance", cfg.Workflows.SelectPhase)
	workflows.Post("/:id/resolution/steps", cfg.Workflows.UpdateStep)
	workflows.Post("/:id/documentation", cfg.Workflows.SaveDocumentation)
	workflows.Post("/:id/escalate", cfg.Workflows.Escalate)
	workflows.Post("/:id/close", cfg.Workflows.Close)

	search := app.Group("/search", cfg.AuthMiddleware.Handle)
	search.Post("/", cfg.Search.Search)
	search.Post("/contextual", cfg.Search.Contextual)
	search.Post("/extract-context", cfg.Search.ExtractContext)
	search.Post("/suggest", cfg.Search.Suggest)
	search.Get("/history", cfg.Search.History)
	search.Delete("/history", cfg.Search.ClearHistory)
	search.Post("/events", cfg.Search.TrackEvent)

	sessions := app.Group("/sessions", cfg.AuthMiddleware.Handle)
	sessions.Get("/tabs", cfg.Sessions.ListTabs)
	sessions.Post("/tabs", cfg.Sessions.CreateTab)
	sessions.Post("/tabs/reorder", cfg.Sessions.ReorderTabs)
	sessions.Delete("/tabs/:tabId", cfg.Sessions.CloseTab)
	sessions.Post("/tabs/:tabId/activate", cfg.Sessions.ActivateTab)
	sessions.Post("/tabs/:tabId/duplicate", cfg.Sessions.DuplicateTab)
	sessions.Put("/tabs/:tabId/context", cfg.Sessions.SetTicketContext)
	sessions.Get("/export", cfg.Sessions.Export)
	sessions.Post("/import", cfg.Sessions.Import)
	sessions.Post("/save", cfg.Sessions.Save)
	sessions.Get("/saved", cfg.Sessions.ListSaved)
	sessions.Post("/saved/:name/load", cfg.Sessions.Load)

	timesessions := app.Group("/timesessions", cfg.AuthMiddleware.Handle)
	timesessions.Post("/", cfg.TimeTrack.Start)
	timesessions.Get("/ticket/:ticketId", cfg.TimeTrack.TicketSessions)
	timesessions.Get("/:id", cfg.TimeTrack.Get)
	timesessions.Get("/:id/report", cfg.TimeTrack.Report)
	timesessions.Post("/:id/phase", cfg.TimeTrack.ChangePhase)
	timesessions.Post("/:id/pause", cfg.TimeTrack.Pause)
	timesessions.Post("/:id/resume", cfg.TimeTrack.Resume)
	timesessions.Post("/:id/end", cfg.TimeTrack.End)
}
