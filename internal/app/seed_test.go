package app

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/config"
	"github.com/vk/closegraph/internal/depedit"
	"github.com/vk/closegraph/internal/memgraph"
	"github.com/vk/closegraph/internal/model"
	"github.com/vk/closegraph/internal/notify"
)

func TestSeedTemplates(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	sink := audit.NewMemorySink()
	editor := depedit.New(store, sink, notify.NewLogNotifier())

	templates := []config.Template{
		{Label: "bank_rec", Name: "Bank reconciliation", CloseType: "monthly", DaysOffset: -3, SortOrder: 1},
		{Label: "accruals", Name: "Post accruals", CloseType: "monthly", DaysOffset: -2, SortOrder: 2, DependsOn: []string{"bank_rec"}},
		{Label: "review", Name: "Final review", CloseType: "monthly", SortOrder: 3, DependsOn: []string{"bank_rec", "accruals"}},
	}
	require.NoError(t, seedTemplates(ctx, store, editor, templates))

	pool, err := store.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, pool, 3)
	assert.Equal(t, "Bank reconciliation", pool[0].Name)
	assert.True(t, pool[0].IsActive)

	deps, err := store.Dependencies(ctx, model.TemplatePool(), pool[2].ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{pool[0].ID, pool[1].ID}, deps)

	t.Run("seeding is audited as the config actor", func(t *testing.T) {
		recs := sink.Records()
		require.NotEmpty(t, recs)
		for _, rec := range recs {
			assert.Equal(t, seedActor, rec.ActorID)
		}
	})

	t.Run("cyclic config fails the seed", func(t *testing.T) {
		cyclic := []config.Template{
			{Label: "a", Name: "A", CloseType: "monthly", DependsOn: []string{"b"}},
			{Label: "b", Name: "B", CloseType: "monthly", DependsOn: []string{"a"}},
		}
		fresh := memgraph.New()
		err := seedTemplates(ctx, fresh, depedit.New(fresh, sink, notify.NewLogNotifier()), cyclic)
		assert.Error(t, err)
	})
}

func TestNewAppDefaults(t *testing.T) {
	a, err := New(io.Discard, &Config{LogLevel: "error"})
	require.NoError(t, err)
	assert.NotNil(t, a.Handler())
	assert.Equal(t, ":8080", a.cfg.Server.ListenAddr)

	t.Run("listen override wins", func(t *testing.T) {
		a, err := New(io.Discard, &Config{ListenAddr: ":9999", LogLevel: "error"})
		require.NoError(t, err)
		assert.Equal(t, ":9999", a.cfg.Server.ListenAddr)
	})

	t.Run("missing config file fails", func(t *testing.T) {
		_, err := New(io.Discard, &Config{ConfigPath: "does-not-exist.hcl"})
		assert.Error(t, err)
	})
}
