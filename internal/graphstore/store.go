package graphstore

import (
	"context"

	"github.com/vk/closegraph/internal/model"
)

// EdgeStore is the dependency-topology portion of the store. All methods
// operate within one scope; edges never cross scopes.
//
// Implementations must return id slices in ascending order so that audit
// records and error messages are reproducible for identical inputs.
type EdgeStore interface {
	// NodeExists reports whether the given node id belongs to the scope.
	NodeExists(ctx context.Context, scope model.Scope, id int64) (bool, error)

	// Dependencies returns the ids the node points to: the set that must
	// complete before the node is considered unblocked. O(out-degree).
	Dependencies(ctx context.Context, scope model.Scope, id int64) ([]int64, error)

	// Dependents returns the ids pointing to the node: the set blocked by
	// it. O(in-degree).
	Dependents(ctx context.Context, scope model.Scope, id int64) ([]int64, error)

	// ReplaceEdges atomically removes every outgoing edge of the node and
	// adds one edge per id in depIDs that exists in the scope. Ids absent
	// from the scope are silently skipped, which lets callers pass
	// best-effort bulk edits from untrusted input. The subject node
	// itself must exist.
	ReplaceEdges(ctx context.Context, scope model.Scope, id int64, depIDs []int64) error

	// AddEdge adds the single edge from -> to. Both endpoints must exist
	// in the scope. Adding an edge that is already present is a no-op
	// (the edge set is a set, not a multiset).
	AddEdge(ctx context.Context, scope model.Scope, from, to int64) error
}

// TaskStore is scoped CRUD over period tasks. Deleting a task cascades to
// every edge touching it, in both directions.
type TaskStore interface {
	CreateTask(ctx context.Context, t *model.Task) (int64, error)
	Task(ctx context.Context, id int64) (*model.Task, error)
	TasksInPeriod(ctx context.Context, periodID int64) ([]*model.Task, error)
	UpdateTask(ctx context.Context, t *model.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// TemplateStore is CRUD over the reusable template pool. Templates are
// soft-deactivated via IsActive; DeleteTemplate exists for templates that
// were never referenced and cascades template-pool edges like task
// deletion does.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *model.Template) (int64, error)
	Template(ctx context.Context, id int64) (*model.Template, error)
	// Templates returns the whole pool ordered by (SortOrder, ID).
	Templates(ctx context.Context) ([]*model.Template, error)
	UpdateTemplate(ctx context.Context, t *model.Template) error
	DeleteTemplate(ctx context.Context, id int64) error
}

// PeriodStore is CRUD over close periods. CreatePeriod enforces the
// (month, year) uniqueness the roll-forward duplicate guard relies on.
type PeriodStore interface {
	CreatePeriod(ctx context.Context, p *model.Period) (int64, error)
	Period(ctx context.Context, id int64) (*model.Period, error)
	Periods(ctx context.Context) ([]*model.Period, error)
	UpdatePeriod(ctx context.Context, p *model.Period) error
}

// PeriodSnapshot is a consistent point-in-time copy of one period's tasks
// and edges, taken under a single read lock / transaction so dashboard
// aggregates never exhibit read skew between counts and lists.
type PeriodSnapshot struct {
	Tasks []*model.Task
	// Dependencies maps task id -> ids it depends on, ascending.
	Dependencies map[int64][]int64
	// Dependents maps task id -> ids depending on it, ascending.
	Dependents map[int64][]int64
}

// Snapshotter produces consistent snapshots for read-only view computation.
type Snapshotter interface {
	SnapshotPeriod(ctx context.Context, periodID int64) (*PeriodSnapshot, error)
}

// Store is the full persistence surface consumed by the engine components.
type Store interface {
	EdgeStore
	TaskStore
	TemplateStore
	PeriodStore
	Snapshotter
}
