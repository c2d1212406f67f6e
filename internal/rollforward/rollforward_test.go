package rollforward

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/depedit"
	"github.com/vk/closegraph/internal/memgraph"
	"github.com/vk/closegraph/internal/model"
	"github.com/vk/closegraph/internal/notify"
)

type fixture struct {
	store        *memgraph.Store
	sink         *audit.MemorySink
	editor       *depedit.Editor
	instantiator *Instantiator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memgraph.New()
	sink := audit.NewMemorySink()
	notifier := notify.NewLogNotifier()
	return &fixture{
		store:        store,
		sink:         sink,
		editor:       depedit.New(store, sink, notifier),
		instantiator: New(store, sink, notifier),
	}
}

func (f *fixture) template(t *testing.T, name string, closeType model.CloseType, offset int, active bool) int64 {
	t.Helper()
	tmpl := &model.Template{Name: name, CloseType: closeType, DaysOffset: offset, IsActive: active, DefaultAssigneeID: "acct1"}
	_, err := f.store.CreateTemplate(context.Background(), tmpl)
	require.NoError(t, err)
	return tmpl.ID
}

func (f *fixture) period(t *testing.T, month, year int, closeType model.CloseType) int64 {
	t.Helper()
	p := &model.Period{Name: "p", Month: month, Year: year, CloseType: closeType, IsActive: true}
	_, err := f.store.CreatePeriod(context.Background(), p)
	require.NoError(t, err)
	return p.ID
}

func TestAnchorDate(t *testing.T) {
	t.Run("defaults to the last day of the month", func(t *testing.T) {
		p := &model.Period{Month: 9, Year: 2025}
		assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), AnchorDate(p))
	})

	t.Run("handles leap february", func(t *testing.T) {
		p := &model.Period{Month: 2, Year: 2024}
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), AnchorDate(p))
	})

	t.Run("handles december year rollover", func(t *testing.T) {
		p := &model.Period{Month: 12, Year: 2025}
		assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), AnchorDate(p))
	})

	t.Run("explicit target close date wins and is truncated to UTC midnight", func(t *testing.T) {
		loc := time.FixedZone("UTC+5", 5*3600)
		target := time.Date(2025, 9, 25, 23, 30, 0, 0, loc)
		p := &model.Period{Month: 9, Year: 2025, TargetCloseDate: &target}
		assert.Equal(t, time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC), AnchorDate(p))
	})
}

func TestInstantiatePeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tasks with derived due dates", func(t *testing.T) {
		f := newFixture(t)
		f.template(t, "close subledgers", model.CloseMonthly, -3, true)
		f.template(t, "final review", model.CloseMonthly, 0, true)
		periodID := f.period(t, 2, 2024, model.CloseMonthly) // leap month

		res, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)
		require.Len(t, res.CreatedTaskIDs, 2)

		tasks, err := f.store.TasksInPeriod(ctx, periodID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		// -3 days from 2024-02-29.
		assert.Equal(t, time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), tasks[0].DueDate.UTC())
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), tasks[1].DueDate.UTC())
		assert.Equal(t, model.StatusNotStarted, tasks[0].Status)
		assert.Equal(t, "acct1", tasks[0].AssigneeID)
		require.NotNil(t, tasks[0].TemplateID)
	})

	t.Run("copies the template dependency graph", func(t *testing.T) {
		f := newFixture(t)
		a := f.template(t, "a", model.CloseMonthly, -5, true)
		b := f.template(t, "b", model.CloseMonthly, -2, true)
		c := f.template(t, "c", model.CloseMonthly, 0, true)
		_, err := f.editor.SetTemplateDependencies(ctx, b, []int64{a}, "ctrl")
		require.NoError(t, err)
		_, err = f.editor.SetTemplateDependencies(ctx, c, []int64{a, b}, "ctrl")
		require.NoError(t, err)

		periodID := f.period(t, 9, 2025, model.CloseMonthly)
		res, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)
		assert.Equal(t, 3, res.CreatedEdgeCount)

		// Find the instantiated task of each template.
		tasks, err := f.store.TasksInPeriod(ctx, periodID)
		require.NoError(t, err)
		byTemplate := make(map[int64]int64)
		for _, task := range tasks {
			byTemplate[*task.TemplateID] = task.ID
		}

		scope := model.PeriodScope(periodID)
		deps, err := f.store.Dependencies(ctx, scope, byTemplate[c])
		require.NoError(t, err)
		assert.Equal(t, []int64{byTemplate[a], byTemplate[b]}, deps)

		deps, err = f.store.Dependencies(ctx, scope, byTemplate[b])
		require.NoError(t, err)
		assert.Equal(t, []int64{byTemplate[a]}, deps)
	})

	t.Run("skips inactive and mismatched templates", func(t *testing.T) {
		f := newFixture(t)
		f.template(t, "monthly", model.CloseMonthly, 0, true)
		f.template(t, "inactive", model.CloseMonthly, 0, false)
		f.template(t, "quarterly", model.CloseQuarterly, 0, true)
		periodID := f.period(t, 3, 2025, model.CloseMonthly)

		res, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)
		require.Len(t, res.CreatedTaskIDs, 1)

		tasks, err := f.store.TasksInPeriod(ctx, periodID)
		require.NoError(t, err)
		assert.Equal(t, "monthly", tasks[0].Name)
	})

	t.Run("drops edges to un-instantiated endpoints", func(t *testing.T) {
		f := newFixture(t)
		inactive := f.template(t, "inactive dep", model.CloseMonthly, -5, false)
		active := f.template(t, "active", model.CloseMonthly, 0, true)
		_, err := f.editor.SetTemplateDependencies(ctx, active, []int64{inactive}, "ctrl")
		require.NoError(t, err)

		periodID := f.period(t, 4, 2025, model.CloseMonthly)
		res, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)
		assert.Len(t, res.CreatedTaskIDs, 1)
		assert.Zero(t, res.CreatedEdgeCount)
	})

	t.Run("second roll-forward is a conflict", func(t *testing.T) {
		f := newFixture(t)
		f.template(t, "only", model.CloseMonthly, 0, true)
		periodID := f.period(t, 5, 2025, model.CloseMonthly)

		_, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)

		_, err = f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		var dupErr *DuplicatePeriodError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, periodID, dupErr.PeriodID)

		tasks, err := f.store.TasksInPeriod(ctx, periodID)
		require.NoError(t, err)
		assert.Len(t, tasks, 1, "the failed attempt must not add tasks")
	})

	t.Run("duplicate guard also trips on hand-made tasks", func(t *testing.T) {
		f := newFixture(t)
		f.template(t, "only", model.CloseMonthly, 0, true)
		periodID := f.period(t, 6, 2025, model.CloseMonthly)
		_, err := f.store.CreateTask(ctx, &model.Task{PeriodID: periodID, Name: "manual", Status: model.StatusNotStarted})
		require.NoError(t, err)

		_, err = f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		var dupErr *DuplicatePeriodError
		assert.ErrorAs(t, err, &dupErr)
	})

	t.Run("empty pool produces an empty result", func(t *testing.T) {
		f := newFixture(t)
		periodID := f.period(t, 7, 2025, model.CloseMonthly)
		res, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)
		assert.Empty(t, res.CreatedTaskIDs)
		assert.Zero(t, res.CreatedEdgeCount)
	})

	t.Run("writes one audit record per roll-forward", func(t *testing.T) {
		f := newFixture(t)
		f.template(t, "only", model.CloseMonthly, 0, true)
		periodID := f.period(t, 8, 2025, model.CloseMonthly)
		_, err := f.instantiator.InstantiatePeriod(ctx, periodID, "ctrl")
		require.NoError(t, err)

		recs := f.sink.Records()
		require.Len(t, recs, 1)
		assert.Equal(t, "period", recs[0].EntityType)
		assert.Equal(t, "rolled_forward", recs[0].Action)
		assert.Equal(t, "ctrl", recs[0].ActorID)
	})
}
