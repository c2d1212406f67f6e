package httpapi

import (
	"net/http"
	"time"

	"github.com/vk/closegraph/internal/model"
	"github.com/vk/closegraph/internal/projector"
	"github.com/vk/closegraph/internal/rollforward"
	"github.com/vk/closegraph/internal/views"
)

func (h *Handler) anchorPlusOffset(p *model.Period, offsetDays int) time.Time {
	return rollforward.AnchorDate(p).AddDate(0, 0, offsetDays)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.store.Periods(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

type createPeriodRequest struct {
	Name            string     `json:"name"`
	Month           int        `json:"month"`
	Year            int        `json:"year"`
	CloseType       string     `json:"close_type,omitempty"`
	TargetCloseDate *time.Time `json:"target_close_date,omitempty"`
}

func (h *Handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if req.Month < 1 || req.Month > 12 {
		badRequest(w, "month must be 1-12")
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

	period := &model.Period{
		Name:            req.Name,
		Month:           req.Month,
		Year:            req.Year,
		CloseType:       closeType,
		IsActive:        true,
		TargetCloseDate: req.TargetCloseDate,
	}
	if _, err := h.store.CreatePeriod(r.Context(), period); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (h *Handler) getPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid period id")
		return
	}
	period, err := h.store.Period(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

func (h *Handler) periodProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid period id")
		return
	}
	snap, err := h.store.SnapshotPeriod(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views.PeriodProgress(snap))
}

func (h *Handler) rollForward(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid period id")
		return
	}
	res, err := h.instantiator.InstantiatePeriod(r.Context(), id, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) periodWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid period id")
		return
	}
	view, err := projector.PeriodView(r.Context(), h.store, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
