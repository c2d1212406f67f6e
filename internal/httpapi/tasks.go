package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/model"
)

// taskResponse is a task enriched with both edge directions, matching what
// the detail views need in one round trip.
type taskResponse struct {
	model.Task
	DependencyIDs []int64 `json:"dependency_ids"`
	DependentIDs  []int64 `json:"dependent_ids"`
}

func (h *Handler) taskResponse(r *http.Request, t *model.Task) (*taskResponse, error) {
	scope := model.PeriodScope(t.PeriodID)
	deps, err := h.store.Dependencies(r.Context(), scope, t.ID)
	if err != nil {
		return nil, err
	}
	dependents, err := h.store.Dependents(r.Context(), scope, t.ID)
	if err != nil {
		return nil, err
	}
	return &taskResponse{Task: *t, DependencyIDs: deps, DependentIDs: dependents}, nil
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	periodID, err := strconv.ParseInt(q.Get("period_id"), 10, 64)
	if err != nil {
		badRequest(w, "period_id query parameter is required")
		return
	}
	tasks, err := h.store.TasksInPeriod(r.Context(), periodID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := q.Get("status")
	if status != "" && !model.Status(status).Valid() {
		badRequest(w, "invalid status filter")
		return
	}
	assignee := q.Get("assignee_id")
	department := q.Get("department")

	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && string(t.Status) != status {
			continue
		}
		if assignee != "" && t.AssigneeID != assignee {
			continue
		}
		if department != "" && t.Department != department {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

type createTaskRequest struct {
	PeriodID       int64           `json:"period_id"`
	TemplateID     *int64          `json:"template_id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	AssigneeID     string          `json:"assignee_id,omitempty"`
	Department     string          `json:"department,omitempty"`
	EstimatedHours *float64        `json:"estimated_hours,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Position       *model.Position `json:"position,omitempty"`
	DependencyIDs  []int64         `json:"dependency_ids,omitempty"`
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	period, err := h.store.Period(r.Context(), req.PeriodID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// A missing due date is derived from the period anchor, shifted by the
	// template offset when the task comes from a template.
	due := req.DueDate
	if due == nil {
		offset := 0
		if req.TemplateID != nil {
			if tmpl, terr := h.store.Template(r.Context(), *req.TemplateID); terr == nil {
				offset = tmpl.DaysOffset
			}
		}
		derived := h.anchorPlusOffset(period, offset)
		due = &derived
	}

	task := &model.Task{
		PeriodID:       req.PeriodID,
		TemplateID:     req.TemplateID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         model.StatusNotStarted,
		AssigneeID:     req.AssigneeID,
		Department:     req.Department,
		EstimatedHours: req.EstimatedHours,
		DueDate:        due,
		Position:       req.Position,
	}
	if _, err := h.store.CreateTask(r.Context(), task); err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(req.DependencyIDs) > 0 {
		if _, err := h.editor.SetTaskDependencies(r.Context(), task.ID, req.DependencyIDs, actorID(r)); err != nil {
			// Creation already happened; a cycle in the requested edges
			// must not leave a half-made task behind.
			_ = h.store.DeleteTask(r.Context(), task.ID)
			h.writeError(w, r, err)
			return
		}
	}

	rec := audit.NewRecord("task", task.ID, "created", "", task.Name, actorID(r))
	if err := h.sink.Write(r.Context(), rec); err != nil {
		h.writeError(w, r, err)
		return
	}
	if task.AssigneeID != "" {
		h.notifier.TaskAssigned(r.Context(), task)
	}

	resp, err := h.taskResponse(r, task)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid task id")
		return
	}
	task, err := h.store.Task(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.taskResponse(r, task)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateTaskRequest struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Status         *model.Status   `json:"status,omitempty"`
	AssigneeID     *string         `json:"assignee_id,omitempty"`
	Department     *string         `json:"department,omitempty"`
	EstimatedHours *float64        `json:"estimated_hours,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Position       *model.Position `json:"position,omitempty"`
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid task id")
		return
	}
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	task, err := h.store.Task(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.AssigneeID != nil {
		task.AssigneeID = *req.AssigneeID
	}
	if req.Department != nil {
		task.Department = *req.Department
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = req.EstimatedHours
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Position != nil {
		task.Position = req.Position
	}

	oldStatus := task.Status
	if req.Status != nil && *req.Status != oldStatus {
		if !req.Status.Valid() {
			badRequest(w, "invalid status")
			return
		}
		task.Status = *req.Status
		now := time.Now().UTC()
		if task.Status == model.StatusInProgress && task.StartedAt == nil {
			task.StartedAt = &now
		}
		if task.Status == model.StatusComplete && task.CompletedAt == nil {
			task.CompletedAt = &now
		}
	}

	if err := h.store.UpdateTask(r.Context(), task); err != nil {
		h.writeError(w, r, err)
		return
	}

	if task.Status != oldStatus {
		rec := audit.NewRecord("task", task.ID, "status_changed",
			string(oldStatus), string(task.Status), actorID(r))
		if err := h.sink.Write(r.Context(), rec); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	resp, err := h.taskResponse(r, task)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid task id")
		return
	}
	task, err := h.store.Task(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	rec := audit.NewRecord("task", id, "deleted", task.Name, "", actorID(r))
	if err := h.sink.Write(r.Context(), rec); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setDependenciesRequest struct {
	DependencyIDs []int64 `json:"dependency_ids"`
}

type setDependenciesResponse struct {
	DependencyIDs []int64 `json:"dependency_ids"`
}

func (h *Handler) setTaskDependencies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid task id")
		return
	}
	var req setDependenciesRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	ids, err := h.editor.SetTaskDependencies(r.Context(), id, req.DependencyIDs, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setDependenciesResponse{DependencyIDs: ids})
}
