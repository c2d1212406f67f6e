package views

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

var now = time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func task(id int64, name string, status model.Status, due *time.Time) *model.Task {
	return &model.Task{ID: id, PeriodID: 1, Name: name, Status: status, DueDate: due}
}

func snapshot(tasks ...*model.Task) *graphstore.PeriodSnapshot {
	return &graphstore.PeriodSnapshot{
		Tasks:        tasks,
		Dependencies: map[int64][]int64{},
		Dependents:   map[int64][]int64{},
	}
}

func TestDashboardCounts(t *testing.T) {
	snap := snapshot(
		task(1, "done", model.StatusComplete, at(now.AddDate(0, 0, -10))),
		task(2, "doing", model.StatusInProgress, at(now.AddDate(0, 0, 5))),
		task(3, "overdue", model.StatusNotStarted, at(now.Add(-time.Hour))),
		task(4, "due today", model.StatusNotStarted, at(time.Date(2025, 9, 15, 23, 0, 0, 0, time.UTC))),
	)

	stats := Dashboard(snap, now)
	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 1, stats.InProgressTasks)
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.Equal(t, 1, stats.TasksDueToday)
	assert.Equal(t, 25.0, stats.CompletionPercentage)
}

func TestDashboardCompleteTasksNeverAlarm(t *testing.T) {
	// A completed task with a past due date is neither overdue nor at risk.
	snap := snapshot(task(1, "done late", model.StatusComplete, at(now.AddDate(0, 0, -2))))
	stats := Dashboard(snap, now)
	assert.Zero(t, stats.OverdueTasks)
	assert.Empty(t, stats.AtRiskTasks)
}

func TestDashboardAtRiskWindow(t *testing.T) {
	t.Run("exactly 48 hours out is included", func(t *testing.T) {
		snap := snapshot(task(1, "boundary", model.StatusNotStarted, at(now.Add(48*time.Hour))))
		stats := Dashboard(snap, now)
		require.Len(t, stats.AtRiskTasks, 1)
	})

	t.Run("one second past the window is excluded", func(t *testing.T) {
		snap := snapshot(task(1, "beyond", model.StatusNotStarted, at(now.Add(48*time.Hour+time.Second))))
		stats := Dashboard(snap, now)
		assert.Empty(t, stats.AtRiskTasks)
	})

	t.Run("overdue tasks are also at risk", func(t *testing.T) {
		snap := snapshot(task(1, "late", model.StatusNotStarted, at(now.Add(-time.Hour))))
		stats := Dashboard(snap, now)
		require.Len(t, stats.AtRiskTasks, 1)
	})

	t.Run("no due date is never at risk", func(t *testing.T) {
		snap := snapshot(task(1, "undated", model.StatusNotStarted, nil))
		stats := Dashboard(snap, now)
		assert.Empty(t, stats.AtRiskTasks)
	})
}

func TestDashboardListsCappedAndSorted(t *testing.T) {
	var tasks []*model.Task
	for i := 0; i < 7; i++ {
		// Descending due dates on ascending ids, all within the window.
		due := at(now.Add(time.Duration(40-i) * time.Hour))
		tasks = append(tasks, task(int64(i+1), fmt.Sprintf("t%d", i+1), model.StatusBlocked, due))
	}
	stats := Dashboard(snapshot(tasks...), now)

	require.Len(t, stats.BlockedTasks, 5)
	require.Len(t, stats.AtRiskTasks, 5)
	// Earliest due first means the highest ids lead.
	assert.Equal(t, int64(7), stats.BlockedTasks[0].ID)
	assert.Equal(t, int64(3), stats.BlockedTasks[4].ID)
}

func TestDashboardAvgTimeToComplete(t *testing.T) {
	started := now.Add(-10 * time.Hour)
	completedA := now.Add(-6 * time.Hour) // 4h
	completedB := now.Add(-2 * time.Hour) // 8h

	a := task(1, "a", model.StatusComplete, nil)
	a.StartedAt, a.CompletedAt = &started, &completedA
	b := task(2, "b", model.StatusComplete, nil)
	b.StartedAt, b.CompletedAt = &started, &completedB
	// Completed without timestamps contributes nothing to the average.
	c := task(3, "c", model.StatusComplete, nil)

	stats := Dashboard(snapshot(a, b, c), now)
	require.NotNil(t, stats.AvgTimeToComplete)
	assert.Equal(t, 6.0, *stats.AvgTimeToComplete)

	t.Run("nil when nothing measurable completed", func(t *testing.T) {
		stats := Dashboard(snapshot(task(1, "open", model.StatusInProgress, nil)), now)
		assert.Nil(t, stats.AvgTimeToComplete)
	})
}

func TestCriticalPath(t *testing.T) {
	t.Run("close scenario ranks the overdue blocker first", func(t *testing.T) {
		// A is in progress and a day late; B and C wait on it.
		a := task(1, "A", model.StatusInProgress, at(now.AddDate(0, 0, -1)))
		b := task(2, "B", model.StatusNotStarted, at(now.AddDate(0, 0, 1)))
		c := task(3, "C", model.StatusNotStarted, at(now.AddDate(0, 0, 5)))
		// D blocks one future task E.
		d := task(4, "D", model.StatusNotStarted, at(now.AddDate(0, 0, 2)))
		e := task(5, "E", model.StatusNotStarted, at(now.AddDate(0, 0, 6)))

		snap := snapshot(a, b, c, d, e)
		snap.Dependencies = map[int64][]int64{2: {1}, 3: {1}, 5: {4}}
		snap.Dependents = map[int64][]int64{1: {2, 3}, 4: {5}}

		items := Dashboard(snap, now).CriticalPathTasks
		require.Len(t, items, 2)

		first := items[0]
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, 2, first.BlockedDependents)
		require.Len(t, first.Dependents, 2)
		assert.Equal(t, "B", first.Dependents[0].Name)
		assert.Equal(t, "C", first.Dependents[1].Name)

		assert.Equal(t, int64(4), items[1].ID)
	})

	t.Run("overdue outranks a bigger dependent count", func(t *testing.T) {
		big := task(1, "big", model.StatusNotStarted, at(now.AddDate(0, 0, 3)))
		late := task(2, "late", model.StatusNotStarted, at(now.AddDate(0, 0, -1)))
		w1 := task(3, "w1", model.StatusNotStarted, nil)
		w2 := task(4, "w2", model.StatusNotStarted, nil)
		w3 := task(5, "w3", model.StatusNotStarted, nil)

		snap := snapshot(big, late, w1, w2, w3)
		snap.Dependents = map[int64][]int64{1: {3, 4}, 2: {5}}

		items := Dashboard(snap, now).CriticalPathTasks
		require.Len(t, items, 2)
		assert.Equal(t, int64(2), items[0].ID, "the overdue blocker wins despite blocking less")
	})

	t.Run("complete tasks are invisible in both roles", func(t *testing.T) {
		blocker := task(1, "blocker", model.StatusComplete, nil)
		waiting := task(2, "waiting", model.StatusNotStarted, nil)
		open := task(3, "open", model.StatusNotStarted, nil)
		done := task(4, "done", model.StatusComplete, nil)

		snap := snapshot(blocker, waiting, open, done)
		snap.Dependents = map[int64][]int64{1: {2}, 3: {4}}

		items := Dashboard(snap, now).CriticalPathTasks
		assert.Empty(t, items)
	})

	t.Run("tasks blocking nothing never appear", func(t *testing.T) {
		snap := snapshot(task(1, "lone", model.StatusNotStarted, at(now.AddDate(0, 0, -1))))
		items := Dashboard(snap, now).CriticalPathTasks
		assert.Empty(t, items)
	})
}

func TestPeriodProgress(t *testing.T) {
	a := task(1, "a", model.StatusComplete, nil)
	a.Department = "Accounting"
	b := task(2, "b", model.StatusInProgress, nil)
	b.Department = "Accounting"
	c := task(3, "c", model.StatusNotStarted, nil)

	p := PeriodProgress(snapshot(a, b, c))
	assert.Equal(t, 3, p.TotalTasks)
	assert.Equal(t, 1, p.CompletedTasks)
	assert.Equal(t, 33.33, p.CompletionPercentage)
	assert.Equal(t, 2, p.TasksByDepartment["Accounting"])
	assert.Equal(t, 1, p.TasksByDepartment["Unassigned"])
	// Every status key is present, even at zero.
	assert.Equal(t, 0, p.TasksByStatus["blocked"])
	assert.Equal(t, 1, p.TasksByStatus["complete"])
	assert.Equal(t, 1, p.TasksByStatus["in_progress"])
	assert.Equal(t, 1, p.TasksByStatus["not_started"])
}
