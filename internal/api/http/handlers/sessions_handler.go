package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-workbench/internal/api/dto"
	"github.com/spec-kit/support-workbench/internal/auth"
	"github.com/spec-kit/support-workbench/internal/service"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

// SessionsHandler exposes the research-tab and saved-session endpoints.
type SessionsHandler struct {
	sessions *service.SessionService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(sessionService *service.SessionService) *SessionsHandler {
	return &SessionsHandler{sessions: sessionService}
}

// ListTabs handles GET /sessions/tabs.
func (h *SessionsHandler) ListTabs(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: h.sessions.Tabs(principal.Agent.ID)}})
}

// CreateTab handles POST /sessions/tabs.
func (h *SessionsHandler) CreateTab(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.CreateTabRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	tab := h.sessions.CreateTab(principal.Agent.ID, req.Label)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"tab": tab}})
}

// CloseTab handles DELETE /sessions/tabs/:tabId.
func (h *SessionsHandler) CloseTab(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if err := h.sessions.CloseTab(principal.Agent.ID, c.Params("tabId")); err != nil {
		return apperrors.NewNotFound("research tab", fiber.Map{"tab_id": c.Params("tabId")})
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: h.sessions.Tabs(principal.Agent.ID)}})
}

// ActivateTab handles POST /sessions/tabs/:tabId/activate.
func (h *SessionsHandler) ActivateTab(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if err := h.sessions.ActivateTab(principal.Agent.ID, c.Params("tabId")); err != nil {
		return apperrors.NewNotFound("research tab", fiber.Map{"tab_id": c.Params("tabId")})
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: h.sessions.Tabs(principal.Agent.ID)}})
}

// DuplicateTab handles POST /sessions/tabs/:tabId/duplicate.
func (h *SessionsHandler) DuplicateTab(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	tab, err := h.sessions.DuplicateTab(principal.Agent.ID, c.Params("tabId"))
	if err != nil {
		return apperrors.NewNotFound("research tab", fiber.Map{"tab_id": c.Params("tabId")})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"tab": tab}})
}

// ReorderTabs handles POST /sessions/tabs/reorder.
func (h *SessionsHandler) ReorderTabs(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.ReorderTabsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.sessions.ReorderTabs(principal.Agent.ID, req.From, req.To); err != nil {
		return apperrors.NewValidationError("invalid tab positions", fiber.Map{"from": req.From, "to": req.To})
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: h.sessions.Tabs(principal.Agent.ID)}})
}

// SetTicketContext handles PUT /sessions/tabs/:tabId/context.
func (h *SessionsHandler) SetTicketContext(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.TicketContextRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.sessions.SetTicketContext(principal.Agent.ID, c.Params("tabId"), req.TicketContext); err != nil {
		return apperrors.NewNotFound("research tab", fiber.Map{"tab_id": c.Params("tabId")})
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: h.sessions.Tabs(principal.Agent.ID)}})
}

// Export handles GET /sessions/export.
func (h *SessionsHandler) Export(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	blob, err := h.sessions.ExportTabs(principal.Agent.ID)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(blob)
}

// Import handles POST /sessions/import.
func (h *SessionsHandler) Import(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if err := h.sessions.ImportTabs(principal.Agent.ID, c.Body()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: h.sessions.Tabs(principal.Agent.ID)}})
}

// Save handles POST /sessions/save.
func (h *SessionsHandler) Save(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.SaveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	saved, err := h.sessions.SaveSession(c.Context(), principal.Agent.ID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"session": saved}})
}

// ListSaved handles GET /sessions/saved.
func (h *SessionsHandler) ListSaved(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	sessions, err := h.sessions.ListSavedSessions(c.Context(), principal.Agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sessions": sessions}})
}

// Load handles POST /sessions/saved/:name/load.
func (h *SessionsHandler) Load(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	tabs, err := h.sessions.LoadSession(c.Context(), principal.Agent.ID, c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TabsResponse{Tabs: tabs}})
}
