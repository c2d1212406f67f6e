// Package depedit is the single public entry point for replacing a node's
// dependency set. It is generic over scope: the same editor validates task
// edits inside a period and template edits in the template pool, which is
// why neither graph variant can ever contain a cycle.
package depedit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/ctxlog"
	"github.com/vk/closegraph/internal/cycle"
	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
	"github.com/vk/closegraph/internal/notify"
)

// Editor applies validated edge-set replacements and records the before and
// after sets as an audit delta.
type Editor struct {
	store    graphstore.Store
	sink     audit.Sink
	notifier notify.Notifier
}

// New creates an Editor over the given store and collaborators.
func New(store graphstore.Store, sink audit.Sink, notifier notify.Notifier) *Editor {
	return &Editor{store: store, sink: sink, notifier: notifier}
}

// SetTaskDependencies replaces a task's dependency list within its period's
// scope. See SetDependencies for semantics.
func (e *Editor) SetTaskDependencies(ctx context.Context, taskID int64, candidateIDs []int64, actorID string) ([]int64, error) {
	task, err := e.store.Task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return e.setDependencies(ctx, model.PeriodScope(task.PeriodID), "task", taskID, candidateIDs, actorID)
}

// SetTemplateDependencies replaces a template's dependency list in the
// template pool. See SetDependencies for semantics.
func (e *Editor) SetTemplateDependencies(ctx context.Context, templateID int64, candidateIDs []int64, actorID string) ([]int64, error) {
	if _, err := e.store.Template(ctx, templateID); err != nil {
		return nil, err
	}
	return e.setDependencies(ctx, model.TemplatePool(), "template", templateID, candidateIDs, actorID)
}

// setDependencies sets the dependency list of node nodeID to exactly the
// validated subset of candidateIDs:
//
//   - duplicates collapse; candidate order is preserved for validation so
//     error messages are reproducible,
//   - candidate ids absent from the scope are silently dropped (stale ids
//     from bulk edits are a non-error),
//   - every surviving candidate is cycle-checked individually; the first
//     offender fails the whole operation with no partial edge changes,
//   - identical old and new sets are detected and produce no write, no
//     audit record, and no notification.
func (e *Editor) setDependencies(ctx context.Context, scope model.Scope, entityType string, nodeID int64, candidateIDs []int64, actorID string) ([]int64, error) {
	logger := ctxlog.FromContext(ctx)

	accepted := make([]int64, 0, len(candidateIDs))
	seen := make(map[int64]struct{}, len(candidateIDs))
	for _, candidate := range candidateIDs {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		exists, err := e.store.NodeExists(ctx, scope, candidate)
		if err != nil {
			return nil, err
		}
		if !exists {
			logger.Debug("dependency candidate not in scope, dropping",
				"scope", scope.String(), "node_id", nodeID, "candidate_id", candidate)
			continue
		}

		creates, err := cycle.WouldCreateCycle(ctx, e.store, scope, nodeID, candidate)
		if err != nil {
			return nil, err
		}
		if creates {
			return nil, &cycle.Error{OffendingID: candidate}
		}
		accepted = append(accepted, candidate)
	}

	oldIDs, err := e.store.Dependencies(ctx, scope, nodeID)
	if err != nil {
		return nil, err
	}

	newIDs := append([]int64(nil), accepted...)
	sort.Slice(newIDs, func(i, j int) bool { return newIDs[i] < newIDs[j] })

	if equalIDs(oldIDs, newIDs) {
		logger.Debug("dependency set unchanged, no-op",
			"scope", scope.String(), "node_id", nodeID)
		return newIDs, nil
	}

	if err := e.store.ReplaceEdges(ctx, scope, nodeID, newIDs); err != nil {
		return nil, fmt.Errorf("replacing edges of node %d: %w", nodeID, err)
	}

	rec := audit.NewRecord(entityType, nodeID, "dependencies_changed",
		idsJSON(oldIDs), idsJSON(newIDs), actorID)
	if err := e.sink.Write(ctx, rec); err != nil {
		return nil, fmt.Errorf("writing audit record: %w", err)
	}

	logger.Info("dependencies replaced",
		"scope", scope.String(), "node_id", nodeID,
		"old_ids", oldIDs, "new_ids", newIDs, "actor_id", actorID)

	// Fire-and-forget: delivery problems never unwind the edit.
	e.notifier.DependenciesChanged(ctx, scope, nodeID, newIDs)

	return newIDs, nil
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func idsJSON(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}
