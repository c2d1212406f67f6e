// Package rollforward instantiates a period's task set from the active
// template pool, reproducing the template dependency graph among the new
// tasks.
//
// The template graph is edited through the same Dependency Editor as task
// graphs, so it can never contain a cycle; because instantiation maps
// template ids to task ids one-to-one, the copied instance graph is
// acyclic by construction and needs no re-validation.
package rollforward

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/ctxlog"
	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
	"github.com/vk/closegraph/internal/notify"
)

// DuplicatePeriodError reports a roll-forward against a period that
// already has tasks. The caller must pick another period or delete the
// existing task set explicitly.
type DuplicatePeriodError struct {
	PeriodID int64
	Month    int
	Year     int
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("period %d (%d-%02d) already has tasks", e.PeriodID, e.Year, e.Month)
}

// Result summarizes one roll-forward.
type Result struct {
	CreatedTaskIDs   []int64 `json:"created_task_ids"`
	CreatedEdgeCount int     `json:"created_edge_count"`
}

// Instantiator performs period roll-forward.
type Instantiator struct {
	store    graphstore.Store
	sink     audit.Sink
	notifier notify.Notifier
}

// New creates an Instantiator.
func New(store graphstore.Store, sink audit.Sink, notifier notify.Notifier) *Instantiator {
	return &Instantiator{store: store, sink: sink, notifier: notifier}
}

// AnchorDate resolves the due-date anchor of a period: the explicit target
// close date when set, otherwise the last calendar day of the period's
// month. The result is a UTC midnight timestamp.
func AnchorDate(p *model.Period) time.Time {
	if p.TargetCloseDate != nil {
		t := p.TargetCloseDate.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	// Day zero of the following month is the last day of this one.
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// InstantiatePeriod creates one task per active template matching the
// period's close type and copies the template dependency edges onto the new
// tasks. The operation fails fast, before any writes, if the period already
// has tasks.
//
// First pass walks templates in (SortOrder, ID) order creating tasks and
// recording the templateID -> taskID mapping; the second pass re-creates
// edges through that mapping, which requires all first-pass nodes to exist
// because template dependencies may point forward or backward in template
// order. Template edges whose endpoints were not instantiated in this batch
// are skipped, mirroring the store's lenient edge contract.
func (i *Instantiator) InstantiatePeriod(ctx context.Context, periodID int64, actorID string) (res *Result, err error) {
	logger := ctxlog.FromContext(ctx)

	period, err := i.store.Period(ctx, periodID)
	if err != nil {
		return nil, err
	}

	existing, err := i.store.TasksInPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &DuplicatePeriodError{PeriodID: periodID, Month: period.Month, Year: period.Year}
	}

	templates, err := i.store.Templates(ctx)
	if err != nil {
		return nil, err
	}

	anchor := AnchorDate(period)
	logger.Debug("roll-forward starting",
		"period_id", periodID, "anchor", anchor, "close_type", string(period.CloseType))

	res = &Result{}
	taskByTemplate := make(map[int64]int64)

	// The in-memory store has no transactions; compensate by deleting
	// everything this call created if a later step fails. A relational
	// backend wraps the whole call in one transaction instead.
	defer func() {
		if err == nil {
			return
		}
		for _, id := range res.CreatedTaskIDs {
			_ = i.store.DeleteTask(ctx, id)
		}
		res = nil
	}()

	var instantiated []*model.Template
	for _, tmpl := range templates {
		if !tmpl.IsActive || tmpl.CloseType != period.CloseType {
			continue
		}
		due := anchor.AddDate(0, 0, tmpl.DaysOffset)
		task := &model.Task{
			PeriodID:       periodID,
			TemplateID:     &tmpl.ID,
			Name:           tmpl.Name,
			Description:    tmpl.Description,
			Status:         model.StatusNotStarted,
			AssigneeID:     tmpl.DefaultAssigneeID,
			Department:     tmpl.Department,
			EstimatedHours: tmpl.EstimatedHours,
			DueDate:        &due,
			Position:       tmpl.Position,
		}
		if _, err = i.store.CreateTask(ctx, task); err != nil {
			return nil, fmt.Errorf("instantiating template %d: %w", tmpl.ID, err)
		}
		taskByTemplate[tmpl.ID] = task.ID
		res.CreatedTaskIDs = append(res.CreatedTaskIDs, task.ID)
		instantiated = append(instantiated, tmpl)
	}

	scope := model.PeriodScope(periodID)
	for _, tmpl := range instantiated {
		var deps []int64
		deps, err = i.store.Dependencies(ctx, model.TemplatePool(), tmpl.ID)
		if err != nil {
			return nil, fmt.Errorf("reading template %d dependencies: %w", tmpl.ID, err)
		}
		from := taskByTemplate[tmpl.ID]
		for _, dep := range deps {
			to, ok := taskByTemplate[dep]
			if !ok {
				// Endpoint was filtered out of this batch (inactive or
				// different close type); skip rather than error.
				logger.Debug("skipping template edge with un-instantiated endpoint",
					"template_id", tmpl.ID, "depends_on_id", dep)
				continue
			}
			if err = i.store.AddEdge(ctx, scope, from, to); err != nil {
				return nil, fmt.Errorf("copying template edge %d->%d: %w", tmpl.ID, dep, err)
			}
			res.CreatedEdgeCount++
		}
	}

	rec := audit.NewRecord("period", periodID, "rolled_forward", "",
		fmt.Sprintf(`{"tasks":%d,"edges":%d}`, len(res.CreatedTaskIDs), res.CreatedEdgeCount), actorID)
	if err = i.sink.Write(ctx, rec); err != nil {
		return nil, fmt.Errorf("writing audit record: %w", err)
	}

	logger.Info("roll-forward complete",
		"period_id", periodID,
		"task_count", len(res.CreatedTaskIDs),
		"edge_count", res.CreatedEdgeCount)

	// Assignment notifications go out only after everything committed.
	for _, id := range res.CreatedTaskIDs {
		task, terr := i.store.Task(ctx, id)
		if terr != nil || task.AssigneeID == "" {
			continue
		}
		i.notifier.TaskAssigned(ctx, task)
	}

	return res, nil
}
