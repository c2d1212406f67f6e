package httpapi

import (
	"net/http"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/model"
	"github.com/vk/closegraph/internal/projector"
)

type templateResponse struct {
	model.Template
	DependencyIDs []int64 `json:"dependency_ids"`
	DependentIDs  []int64 `json:"dependent_ids"`
}

func (h *Handler) templateResponse(r *http.Request, t *model.Template) (*templateResponse, error) {
	pool := model.TemplatePool()
	deps, err := h.store.Dependencies(r.Context(), pool, t.ID)
	if err != nil {
		return nil, err
	}
	dependents, err := h.store.Dependents(r.Context(), pool, t.ID)
	if err != nil {
		return nil, err
	}
	return &templateResponse{Template: *t, DependencyIDs: deps, DependentIDs: dependents}, nil
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

type createTemplateRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	CloseType         string          `json:"close_type,omitempty"`
	Department        string          `json:"department,omitempty"`
	DefaultAssigneeID string          `json:"default_assignee_id,omitempty"`
	DaysOffset        int             `json:"days_offset"`
	SortOrder         int             `json:"sort_order"`
	EstimatedHours    *float64        `json:"estimated_hours,omitempty"`
	Position          *model.Position `json:"position,omitempty"`
	DependencyIDs     []int64         `json:"dependency_ids,omitempty"`
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	closeType := model.CloseType(req.CloseType)
	if req.CloseType == "" {
		closeType = model.CloseMonthly
	}
	if !closeType.Valid() {
		badRequest(w, "invalid close_type")
		return
	}

	tmpl := &model.Template{
		Name:              req.Name,
		Description:       req.Description,
		CloseType:         closeType,
		Department:        req.Department,
		DefaultAssigneeID: req.DefaultAssigneeID,
		DaysOffset:        req.DaysOffset,
		SortOrder:         req.SortOrder,
		EstimatedHours:    req.EstimatedHours,
		IsActive:          true,
		Position:          req.Position,
	}
	if _, err := h.store.CreateTemplate(r.Context(), tmpl); err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(req.DependencyIDs) > 0 {
		if _, err := h.editor.SetTemplateDependencies(r.Context(), tmpl.ID, req.DependencyIDs, actorID(r)); err != nil {
			_ = h.store.DeleteTemplate(r.Context(), tmpl.ID)
			h.writeError(w, r, err)
			return
		}
	}

	rec := audit.NewRecord("template", tmpl.ID, "created", "", tmpl.Name, actorID(r))
	if err := h.sink.Write(r.Context(), rec); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.templateResponse(r, tmpl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid template id")
		return
	}
	tmpl, err := h.store.Template(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.templateResponse(r, tmpl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateTemplateRequest struct {
	Name              *string         `json:"name,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Department        *string         `json:"department,omitempty"`
	DefaultAssigneeID *string         `json:"default_assignee_id,omitempty"`
	DaysOffset        *int            `json:"days_offset,omitempty"`
	SortOrder         *int            `json:"sort_order,omitempty"`
	EstimatedHours    *float64        `json:"estimated_hours,omitempty"`
	IsActive          *bool           `json:"is_active,omitempty"`
	Position          *model.Position `json:"position,omitempty"`
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid template id")
		return
	}
	var req updateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	tmpl, err := h.store.Template(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.Name != nil {
		tmpl.Name = *req.Name
	}
	if req.Description != nil {
		tmpl.Description = *req.Description
	}
	if req.Department != nil {
		tmpl.Department = *req.Department
	}
	if req.DefaultAssigneeID != nil {
		tmpl.DefaultAssigneeID = *req.DefaultAssigneeID
	}
	if req.DaysOffset != nil {
		tmpl.DaysOffset = *req.DaysOffset
	}
	if req.SortOrder != nil {
		tmpl.SortOrder = *req.SortOrder
	}
	if req.EstimatedHours != nil {
		tmpl.EstimatedHours = req.EstimatedHours
	}
	if req.Position != nil {
		tmpl.Position = req.Position
	}

	// Deactivation is the soft-delete path for templates still referenced
	// by historical tasks.
	if req.IsActive != nil && *req.IsActive != tmpl.IsActive {
		tmpl.IsActive = *req.IsActive
		action := "deactivated"
		if tmpl.IsActive {
			action = "activated"
		}
		rec := audit.NewRecord("template", tmpl.ID, action, "", "", actorID(r))
		if err := h.sink.Write(r.Context(), rec); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	if err := h.store.UpdateTemplate(r.Context(), tmpl); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.templateResponse(r, tmpl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) setTemplateDependencies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid template id")
		return
	}
	var req setDependenciesRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	ids, err := h.editor.SetTemplateDependencies(r.Context(), id, req.DependencyIDs, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setDependenciesResponse{DependencyIDs: ids})
}

func (h *Handler) templateWorkflow(w http.ResponseWriter, r *http.Request) {
	view, err := projector.TemplateView(r.Context(), h.store)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
