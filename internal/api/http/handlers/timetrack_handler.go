package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-workbench/internal/api/dto"
	"github.com/spec-kit/support-workbench/internal/auth"
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/service"
)

// TimeTrackHandler exposes the time-session endpoints.
type TimeTrackHandler struct {
	timetrack *service.TimeTrackService
}

// NewTimeTrackHandler constructs handler.
func NewTimeTrackHandler(timetrackService *service.TimeTrackService) *TimeTrackHandler {
	return &TimeTrackHandler{timetrack: timetrackService}
}

// Start handles POST /timesessions.
func (h *TimeTrackHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	session, err := h.timetrack.StartSession(c.Context(), principal.Agent, req.TicketID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"session": session}})
}

// Get handles GET /timesessions/:id.
func (h *TimeTrackHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	session, err := h.timetrack.GetSession(c.Context(), principal.Agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"session": session}})
}

// ChangePhase handles POST /timesessions/:id/phase.
func (h *TimeTrackHandler) ChangePhase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.ChangePhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	session, err := h.timetrack.ChangePhase(c.Context(), principal.Agent, c.Params("id"),
		domain.WorkPhase(req.Phase), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"session": session}})
}

// Pause handles POST /timesessions/:id/pause.
func (h *TimeTrackHandler) Pause(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.PauseSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	session, err := h.timetrack.PauseSession(c.Context(), principal.Agent, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"session": session}})
}

// Resume handles POST /timesessions/:id/resume.
func (h *TimeTrackHandler) Resume(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	session, err := h.timetrack.ResumeSession(c.Context(), principal.Agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"session": session}})
}

// End handles POST /timesessions/:id/end.
func (h *TimeTrackHandler) End(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	session, report, err := h.timetrack.EndSession(c.Context(), principal.Agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session": session,
		"report":  dto.NewSessionReportResponse(report),
	}})
}

// Report handles GET /timesessions/:id/report.
func (h *TimeTrackHandler) Report(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	report, err := h.timetrack.SessionReport(c.Context(), principal.Agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"report": dto.NewSessionReportResponse(report)}})
}

// TicketSessions handles GET /timesessions/ticket/:ticketId.
func (h *TimeTrackHandler) TicketSessions(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return fiber.ErrUnauthorized
	}
	sessions, err := h.timetrack.TicketSessions(c.Context(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []domain.TimeSession{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sessions": sessions}})
}
