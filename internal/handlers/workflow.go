package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mverot/dealdesk/httpx"
	"github.com/mverot/dealdesk/internal/engine"
	"github.com/mverot/dealdesk/internal/middleware"
	"github.com/mverot/dealdesk/internal/models"
)

type WorkflowHandler struct {
	Workflows *engine.WorkflowService
}

func NewWorkflowHandler(workflows *engine.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{Workflows: workflows}
}

type actionRequest struct {
	Role models.Persona `json:"role"`
}

type resolveFunc func(ctx context.Context, quoteID string, role models.Persona, approver string) (models.QuoteStatus, error)

// actingRole prefers the server-resolved role claim over the body. A client
// can only pick its own role when no identity gateway sits in front.
func actingRole(r *http.Request, body actionRequest) models.Persona {
	if role, ok := middleware.RoleFrom(r.Context()); ok {
		return role
	}
	return models.Persona(strings.ToUpper(strings.TrimSpace(string(body.Role))))
}

// Approve: POST /quotes/{id}/approve
func (h *WorkflowHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Workflows.ApproveAsRole)
}

// Reject: POST /quotes/{id}/reject
func (h *WorkflowHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Workflows.RejectAsRole)
}

func (h *WorkflowHandler) resolve(w http.ResponseWriter, r *http.Request, act resolveFunc) {
	var body actionRequest
	// An empty body is fine when the role arrives via the actor header.
	if err := httpx.Decode(r, &body); err != nil && !errors.Is(err, io.EOF) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	role := actingRole(r, body)
	if !models.ValidPersona(role) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_error", map[string]string{"role": "unknown_value"})
		return
	}
	newStatus, err := act(r.Context(), r.PathValue("id"), role, middleware.ActorFrom(r.Context()))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "newStatus": newStatus})
}

type replaceRequest struct {
	Steps []engine.StepEdit `json:"steps"`
}

// Replace: PUT /quotes/{id}/workflow
func (h *WorkflowHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var body replaceRequest
	if err := httpx.Decode(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.Workflows.ReplaceSteps(r.Context(), r.PathValue("id"), body.Steps); err != nil {
		writeEngineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

// MarkSold: POST /quotes/{id}/sold
func (h *WorkflowHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflows.MarkSold(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "newStatus": models.QuoteSold})
}
