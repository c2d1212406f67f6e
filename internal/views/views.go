// Package views computes read-only dashboard aggregates over one period's
// graph snapshot: blocked/review/at-risk lists, overdue and due-today
// counts, completion stats, and the critical-path ranking.
//
// Everything here is a pure function of a single consistent snapshot; the
// package never mutates the store.
package views

import (
	"math"
	"sort"
	"time"

	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

// AtRiskWindow is how close a due date must be before an incomplete task
// counts as at risk.
const AtRiskWindow = 48 * time.Hour

// listCap bounds each dashboard list to the earliest entries.
const listCap = 5

// TaskSummary is the compact task shape embedded in dashboard lists.
type TaskSummary struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Status  model.Status `json:"status"`
	DueDate *time.Time   `json:"due_date,omitempty"`
}

// CriticalPathItem is one ranked blocker: an incomplete task together with
// the incomplete downstream work it is holding up.
type CriticalPathItem struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Status            model.Status  `json:"status"`
	DueDate           *time.Time    `json:"due_date,omitempty"`
	BlockedDependents int           `json:"blocked_dependents"`
	Dependents        []TaskSummary `json:"dependents"`
}

// DashboardStats is the full dashboard payload for one period.
type DashboardStats struct {
	TotalTasks           int      `json:"total_tasks"`
	CompletedTasks       int      `json:"completed_tasks"`
	InProgressTasks      int      `json:"in_progress_tasks"`
	OverdueTasks         int      `json:"overdue_tasks"`
	TasksDueToday        int      `json:"tasks_due_today"`
	CompletionPercentage float64  `json:"completion_percentage"`
	AvgTimeToComplete    *float64 `json:"avg_time_to_complete,omitempty"` // hours

	BlockedTasks      []TaskSummary      `json:"blocked_tasks"`
	ReviewTasks       []TaskSummary      `json:"review_tasks"`
	AtRiskTasks       []TaskSummary      `json:"at_risk_tasks"`
	CriticalPathTasks []CriticalPathItem `json:"critical_path_tasks"`
}

// Progress is the per-period tally view.
type Progress struct {
	TotalTasks           int            `json:"total_tasks"`
	CompletedTasks       int            `json:"completed_tasks"`
	CompletionPercentage float64        `json:"completion_percentage"`
	TasksByStatus        map[string]int `json:"tasks_by_status"`
	TasksByDepartment    map[string]int `json:"tasks_by_department"`
}

// Dashboard computes every aggregate from the given snapshot. All date
// comparisons normalize to UTC; a missing due date sorts after any real
// one.
func Dashboard(snap *graphstore.PeriodSnapshot, now time.Time) *DashboardStats {
	now = now.UTC()
	stats := &DashboardStats{
		BlockedTasks:      []TaskSummary{},
		ReviewTasks:       []TaskSummary{},
		AtRiskTasks:       []TaskSummary{},
		CriticalPathTasks: []CriticalPathItem{},
	}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todayEnd := todayStart.AddDate(0, 0, 1)
	atRiskLimit := now.Add(AtRiskWindow)

	byID := make(map[int64]*model.Task, len(snap.Tasks))

	var totalCompletionHours float64
	var completedWithTimes int

	for _, t := range snap.Tasks {
		byID[t.ID] = t
		stats.TotalTasks++

		switch t.Status {
		case model.StatusComplete:
			stats.CompletedTasks++
			if t.StartedAt != nil && t.CompletedAt != nil {
				totalCompletionHours += t.CompletedAt.Sub(*t.StartedAt).Hours()
				completedWithTimes++
			}
		case model.StatusInProgress:
			stats.InProgressTasks++
		}

		due := normalizedDue(t)
		incomplete := t.Status != model.StatusComplete

		if incomplete && due != nil && due.Before(now) {
			stats.OverdueTasks++
		}
		if incomplete && due != nil && !due.Before(todayStart) && due.Before(todayEnd) {
			stats.TasksDueToday++
		}

		if t.Status == model.StatusBlocked {
			stats.BlockedTasks = append(stats.BlockedTasks, summarize(t))
		}
		if t.Status == model.StatusReview {
			stats.ReviewTasks = append(stats.ReviewTasks, summarize(t))
		}
		if incomplete && due != nil && !due.After(atRiskLimit) {
			stats.AtRiskTasks = append(stats.AtRiskTasks, summarize(t))
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletionPercentage = round2(float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100)
	}
	if completedWithTimes > 0 {
		avg := round2(totalCompletionHours / float64(completedWithTimes))
		stats.AvgTimeToComplete = &avg
	}

	sortByDue(stats.BlockedTasks)
	sortByDue(stats.ReviewTasks)
	sortByDue(stats.AtRiskTasks)
	stats.BlockedTasks = capList(stats.BlockedTasks)
	stats.ReviewTasks = capList(stats.ReviewTasks)
	stats.AtRiskTasks = capList(stats.AtRiskTasks)

	stats.CriticalPathTasks = criticalPath(snap, byID, now)

	return stats
}

// criticalPath ranks incomplete tasks by how much incomplete downstream
// work they block. Sort key per blocker: overdue first, then earliest due
// date (none last), then larger dependent count, then id for determinism.
func criticalPath(snap *graphstore.PeriodSnapshot, byID map[int64]*model.Task, now time.Time) []CriticalPathItem {
	items := []CriticalPathItem{}
	for _, t := range snap.Tasks {
		if t.Status == model.StatusComplete {
			continue
		}
		var dependents []TaskSummary
		for _, depID := range snap.Dependents[t.ID] {
			dep, ok := byID[depID]
			if !ok || dep.Status == model.StatusComplete {
				continue
			}
			dependents = append(dependents, summarize(dep))
		}
		if len(dependents) == 0 {
			continue
		}
		sortByDue(dependents)
		items = append(items, CriticalPathItem{
			ID:                t.ID,
			Name:              t.Name,
			Status:            t.Status,
			DueDate:           normalizedDue(t),
			BlockedDependents: len(dependents),
			Dependents:        dependents,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ao, bo := overdueFlag(a.DueDate, now), overdueFlag(b.DueDate, now)
		if ao != bo {
			return ao < bo
		}
		if c := compareDue(a.DueDate, b.DueDate); c != 0 {
			return c < 0
		}
		if a.BlockedDependents != b.BlockedDependents {
			return a.BlockedDependents > b.BlockedDependents
		}
		return a.ID < b.ID
	})

	if len(items) > listCap {
		items = items[:listCap]
	}
	return items
}

// PeriodProgress tallies tasks by status and by department in one pass.
func PeriodProgress(snap *graphstore.PeriodSnapshot) *Progress {
	p := &Progress{
		TasksByStatus:     make(map[string]int),
		TasksByDepartment: make(map[string]int),
	}
	for _, s := range []model.Status{
		model.StatusNotStarted, model.StatusInProgress, model.StatusReview,
		model.StatusComplete, model.StatusBlocked,
	} {
		p.TasksByStatus[string(s)] = 0
	}

	for _, t := range snap.Tasks {
		p.TotalTasks++
		p.TasksByStatus[string(t.Status)]++
		dept := t.Department
		if dept == "" {
			dept = "Unassigned"
		}
		p.TasksByDepartment[dept]++
		if t.Status == model.StatusComplete {
			p.CompletedTasks++
		}
	}
	if p.TotalTasks > 0 {
		p.CompletionPercentage = round2(float64(p.CompletedTasks) / float64(p.TotalTasks) * 100)
	}
	return p
}

func summarize(t *model.Task) TaskSummary {
	return TaskSummary{ID: t.ID, Name: t.Name, Status: t.Status, DueDate: normalizedDue(t)}
}

// normalizedDue returns the task's due date in UTC, so comparisons never
// mix zones.
func normalizedDue(t *model.Task) *time.Time {
	if t.DueDate == nil {
		return nil
	}
	u := t.DueDate.UTC()
	return &u
}

func overdueFlag(due *time.Time, now time.Time) int {
	if due != nil && due.Before(now) {
		return 0
	}
	return 1
}

// compareDue orders due dates ascending with nil after everything.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}

func sortByDue(list []TaskSummary) {
	sort.Slice(list, func(i, j int) bool {
		if c := compareDue(list[i].DueDate, list[j].DueDate); c != 0 {
			return c < 0
		}
		return list[i].ID < list[j].ID
	})
}

func capList(list []TaskSummary) []TaskSummary {
	if len(list) > listCap {
		return list[:listCap]
	}
	return list
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
