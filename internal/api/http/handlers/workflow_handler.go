package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-workbench/internal/api/dto"
	"github.com/spec-kit/support-workbench/internal/auth"
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/service"
)

// WorkflowHandler exposes the verification-gated workflow endpoints.
type WorkflowHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflowService}
}

// Create handles POST /workflows.
func (h *WorkflowHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.CreateWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	steps := make([]service.StepInput, 0, len(req.Steps))
	for _, s := range req.Steps {
		steps = append(steps, service.StepInput{Title: s.Title, Required: s.Required})
	}
	view, err := h.workflows.CreateWorkflow(c.Context(), principal.Agent, req.TicketID, steps)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// Get handles GET /workflows/:id.
func (h *WorkflowHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	view, err := h.workflows.GetWorkflow(c.Context(), principal.Agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// AttemptVerification handles POST /workflows/:id/verification/:field.
func (h *WorkflowHandler) AttemptVerification(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.VerificationAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.AttemptVerification(c.Context(), principal.Agent, c.Params("id"),
		domain.VerificationFieldID(c.Params("field")),
		service.VerificationAttempt{Value: req.Value, Method: req.Method, Confirmed: req.Confirmed})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// ResetVerification handles DELETE /workflows/:id/verification/:field.
func (h *WorkflowHandler) ResetVerification(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	view, err := h.workflows.ResetVerificationField(c.Context(), principal.Agent, c.Params("id"),
		domain.VerificationFieldID(c.Params("field")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// Override handles POST /workflows/:id/override.
func (h *WorkflowHandler) Override(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.Override(c.Context(), principal.Agent, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// SelectPhase handles POST /workflows/:id/advance.
func (h *WorkflowHandler) SelectPhase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.SelectPhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.SelectPhase(c.Context(), principal.Agent, c.Params("id"), domain.WorkflowPhase(req.Phase))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// UpdateStep handles POST /workflows/:id/resolution/steps.
func (h *WorkflowHandler) UpdateStep(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.StepUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.UpdateResolutionStep(c.Context(), principal.Agent, c.Params("id"), service.StepUpdate{
		StepID: req.StepID,
		Status: domain.StepStatus(req.Status),
		Notes:  req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// SaveDocumentation handles POST /workflows/:id/documentation.
func (h *WorkflowHandler) SaveDocumentation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.DocumentationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.SaveDocumentation(c.Context(), principal.Agent, c.Params("id"), domain.Documentation{
		ProblemSummary:  req.ProblemSummary,
		RootCause:       req.RootCause,
		SolutionApplied: req.SolutionApplied,
		Preventive:      req.Preventive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// Escalate handles POST /workflows/:id/escalate.
func (h *WorkflowHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.EscalationFormRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.Escalate(c.Context(), principal.Agent, c.Params("id"), domain.EscalationRequest{
		Target:   req.Target,
		Reason:   req.Reason,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// Close handles POST /workflows/:id/close.
func (h *WorkflowHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req dto.CloseWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	view, err := h.workflows.Close(c.Context(), principal.Agent, c.Params("id"), service.CloseInput{
		FinalStatus:      req.FinalStatus,
		CustomerNotified: req.CustomerNotified,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(view)})
}

// History handles GET /workflows/:id/history.
func (h *WorkflowHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	entries, err := h.workflows.History(c.Context(), principal.Agent, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.WorkflowHistory{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"history": entries}})
}
