package app

import (
	"context"
	"fmt"

	"github.com/vk/closegraph/internal/config"
	"github.com/vk/closegraph/internal/depedit"
	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

// seedActor is the actor recorded on audit entries produced during startup.
const seedActor = "config"

// seedTemplates creates the configured template pool in declaration order,
// then resolves depends_on labels to ids and applies each dependency set
// through the editor. Going through the editor keeps the config path under
// the same cycle guard as the API.
func seedTemplates(ctx context.Context, store graphstore.Store, editor *depedit.Editor, templates []config.Template) error {
	idByLabel := make(map[string]int64, len(templates))

	for i, t := range templates {
		tmpl := &model.Template{
			Name:              t.Name,
			Description:       t.Description,
			CloseType:         model.CloseType(t.CloseType),
			Department:        t.Department,
			DefaultAssigneeID: t.DefaultAssigneeID,
			DaysOffset:        t.DaysOffset,
			SortOrder:         t.SortOrder,
			EstimatedHours:    t.EstimatedHours,
			IsActive:          true,
		}
		if tmpl.SortOrder == 0 {
			tmpl.SortOrder = i
		}
		if _, err := store.CreateTemplate(ctx, tmpl); err != nil {
			return fmt.Errorf("creating template %q: %w", t.Label, err)
		}
		idByLabel[t.Label] = tmpl.ID
	}

	for _, t := range templates {
		if len(t.DependsOn) == 0 {
			continue
		}
		ids := make([]int64, 0, len(t.DependsOn))
		for _, label := range t.DependsOn {
			ids = append(ids, idByLabel[label])
		}
		if _, err := editor.SetTemplateDependencies(ctx, idByLabel[t.Label], ids, seedActor); err != nil {
			return fmt.Errorf("wiring dependencies of template %q: %w", t.Label, err)
		}
	}
	return nil
}
