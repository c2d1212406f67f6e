// Package notify defines the fire-and-forget notification boundary.
// Delivery failures never propagate into graph mutations: the interface
// returns nothing, and implementations swallow their own errors.
package notify

import (
	"context"

	"github.com/vk/closegraph/internal/ctxlog"
	"github.com/vk/closegraph/internal/model"
)

// Notifier is informed after mutations that someone downstream cares
// about. Calls happen after the mutation has committed.
type Notifier interface {
	// TaskAssigned fires when roll-forward or task creation produces a
	// task with an assignee.
	TaskAssigned(ctx context.Context, task *model.Task)

	// DependenciesChanged fires when a node's dependency set changes.
	DependenciesChanged(ctx context.Context, scope model.Scope, nodeID int64, dependencyIDs []int64)
}

// LogNotifier is the reference implementation: it records dispatches on
// the request logger and nothing else. Real delivery (email, Slack) is a
// host-system concern.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// TaskAssigned logs the assignment.
func (n *LogNotifier) TaskAssigned(ctx context.Context, task *model.Task) {
	ctxlog.FromContext(ctx).Info("notify: task assigned",
		"task_id", task.ID,
		"assignee_id", task.AssigneeID,
		"name", task.Name,
	)
}

// DependenciesChanged logs the new dependency set.
func (n *LogNotifier) DependenciesChanged(ctx context.Context, scope model.Scope, nodeID int64, dependencyIDs []int64) {
	ctxlog.FromContext(ctx).Info("notify: dependencies changed",
		"scope", scope.String(),
		"node_id", nodeID,
		"dependency_ids", dependencyIDs,
	)
}
