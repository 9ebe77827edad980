package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-workbench/internal/api/dto"
	"github.com/spec-kit/support-workbench/internal/auth"
	"github.com/spec-kit/support-workbench/internal/service"
)

// SearchHandler exposes the federated knowledge-base search endpoints.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler constructs handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{search: searchService}
}

// Search handles POST /search.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	outcome, err := h.search.Search(c.Context(), principal.Agent.ID, req.TabID, req.Query, req.Filters)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSearchResponse(outcome)})
}

// Contextual handles POST /search/contextual.
func (h *SearchHandler) Contextual(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.ContextualSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	outcome, err := h.search.ContextualSearch(c.Context(), principal.Agent.ID, req.TabID, req.Query, req.Filters, req.TicketContext)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSearchResponse(outcome)})
}

// ExtractContext handles POST /search/extract-context.
func (h *SearchHandler) ExtractContext(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.ExtractContextRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	insights := h.search.ExtractContext(c.Context(), req.TicketContext)
	return c.JSON(fiber.Map{"data": fiber.Map{"insights": insights}})
}

// Suggest handles POST /search/suggest; the upstream fetch is debounced so
// rapid keystrokes cost a single request.
func (h *SearchHandler) Suggest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.SuggestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	suggestions := h.search.Suggest(principal.Agent.ID, req.Query)
	return c.JSON(fiber.Map{"data": fiber.Map{"suggestions": suggestions}})
}

// History handles GET /search/history.
func (h *SearchHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	records, err := h.search.History(c.Context(), principal.Agent.ID)
	if err != nil {
		return err
	}
	entries := make([]dto.QueryHistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, dto.QueryHistoryEntry{
			Query:       r.Query,
			ResultCount: r.ResultCount,
			SearchedAt:  r.SearchedAt,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"history": entries}})
}

// ClearHistory handles DELETE /search/history.
func (h *SearchHandler) ClearHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if err := h.search.ClearHistory(c.Context(), principal.Agent.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"cleared": true}})
}

// TrackEvent handles POST /search/events.
func (h *SearchHandler) TrackEvent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.TrackEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.EventType) == "" {
		return fiber.NewError(http.StatusBadRequest, "event_type required")
	}
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}
	req.Payload["agent_id"] = principal.Agent.ID
	h.search.TrackEvent(req.EventType, req.Payload)
	return c.SendStatus(http.StatusAccepted)
}
