package memgraph

import (
	"context"
	"sort"

	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

// --- PeriodStore ---

// CreatePeriod stores a new period, enforcing (month, year) uniqueness.
func (s *Store) CreatePeriod(ctx context.Context, p *model.Period) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.periods {
		if existing.Month == p.Month && existing.Year == p.Year {
			return 0, &graphstore.PeriodExistsError{Month: p.Month, Year: p.Year}
		}
	}
	cp := *p
	cp.ID = s.allocID()
	cp.CreatedAt = s.now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.periods[cp.ID] = &cp
	s.byPeriod[cp.ID] = make(map[int64]struct{})
	p.ID = cp.ID
	p.CreatedAt = cp.CreatedAt
	p.UpdatedAt = cp.UpdatedAt
	return cp.ID, nil
}

// Period returns one period by id.
func (s *Store) Period(ctx context.Context, id int64) (*model.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.periods[id]
	if !ok {
		return nil, &graphstore.NotFoundError{Kind: "period", ID: id}
	}
	cp := *p
	return &cp, nil
}

// Periods returns all periods ordered by (year, month) descending, the
// newest close first.
func (s *Store) Periods(ctx context.Context) ([]*model.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Period, 0, len(s.periods))
	for _, p := range s.periods {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month > out[j].Month
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdatePeriod overwrites a stored period's mutable fields.
func (s *Store) UpdatePeriod(ctx context.Context, p *model.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.periods[p.ID]
	if !ok {
		return &graphstore.NotFoundError{Kind: "period", ID: p.ID}
	}
	cp := *p
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = s.now().UTC()
	s.periods[p.ID] = &cp
	p.UpdatedAt = cp.UpdatedAt
	return nil
}

// --- TaskStore ---

// CreateTask stores a new task in its period's scope.
func (s *Store) CreateTask(ctx context.Context, t *model.Task) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.periods[t.PeriodID]; !ok {
		return 0, &graphstore.NotFoundError{Kind: "period", ID: t.PeriodID}
	}
	cp := *t
	cp.ID = s.allocID()
	cp.CreatedAt = s.now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.tasks[cp.ID] = &cp
	s.byPeriod[cp.PeriodID][cp.ID] = struct{}{}
	t.ID = cp.ID
	t.CreatedAt = cp.CreatedAt
	t.UpdatedAt = cp.UpdatedAt
	return cp.ID, nil
}

// Task returns one task by id.
func (s *Store) Task(ctx context.Context, id int64) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, &graphstore.NotFoundError{Kind: "task", ID: id}
	}
	cp := *t
	return &cp, nil
}

// TasksInPeriod returns a period's tasks ordered by due date ascending,
// tasks without a due date last, ties broken by id.
func (s *Store) TasksInPeriod(ctx context.Context, periodID int64) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.periods[periodID]; !ok {
		return nil, &graphstore.NotFoundError{Kind: "period", ID: periodID}
	}
	return s.tasksInPeriodLocked(periodID), nil
}

func (s *Store) tasksInPeriodLocked(periodID int64) []*model.Task {
	ids := s.byPeriod[periodID]
	out := make([]*model.Task, 0, len(ids))
	for id := range ids {
		cp := *s.tasks[id]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return out[i].ID < out[j].ID
		}
	})
	return out
}

// UpdateTask overwrites a stored task's mutable fields. Scope membership is
// immutable: the period id of the stored task is kept.
func (s *Store) UpdateTask(ctx context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok {
		return &graphstore.NotFoundError{Kind: "task", ID: t.ID}
	}
	cp := *t
	cp.PeriodID = existing.PeriodID
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = s.now().UTC()
	s.tasks[t.ID] = &cp
	t.PeriodID = cp.PeriodID
	t.UpdatedAt = cp.UpdatedAt
	return nil
}

// DeleteTask removes a task and cascades to every edge touching it.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return &graphstore.NotFoundError{Kind: "task", ID: id}
	}
	s.removeNodeEdgesLocked(model.PeriodScope(t.PeriodID), id)
	delete(s.byPeriod[t.PeriodID], id)
	delete(s.tasks, id)
	return nil
}

// --- TemplateStore ---

// CreateTemplate stores a new template in the template pool.
func (s *Store) CreateTemplate(ctx context.Context, t *model.Template) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.ID = s.allocID()
	cp.CreatedAt = s.now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.templates[cp.ID] = &cp
	t.ID = cp.ID
	t.CreatedAt = cp.CreatedAt
	t.UpdatedAt = cp.UpdatedAt
	return cp.ID, nil
}

// Template returns one template by id.
func (s *Store) Template(ctx context.Context, id int64) (*model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, &graphstore.NotFoundError{Kind: "template", ID: id}
	}
	cp := *t
	return &cp, nil
}

// Templates returns the pool ordered by (SortOrder, ID).
func (s *Store) Templates(ctx context.Context) ([]*model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Template, 0, len(s.templates))
	for _, t := range s.templates {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateTemplate overwrites a stored template's mutable fields.
func (s *Store) UpdateTemplate(ctx context.Context, t *model.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.templates[t.ID]
	if !ok {
		return &graphstore.NotFoundError{Kind: "template", ID: t.ID}
	}
	cp := *t
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = s.now().UTC()
	s.templates[t.ID] = &cp
	t.UpdatedAt = cp.UpdatedAt
	return nil
}

// DeleteTemplate removes a template and cascades its template-pool edges.
func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return &graphstore.NotFoundError{Kind: "template", ID: id}
	}
	s.removeNodeEdgesLocked(model.TemplatePool(), id)
	delete(s.templates, id)
	return nil
}

// --- Snapshotter ---

// SnapshotPeriod copies one period's tasks and both edge directions under a
// single read lock, so a dashboard response is computed from one consistent
// state.
func (s *Store) SnapshotPeriod(ctx context.Context, periodID int64) (*graphstore.PeriodSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.periods[periodID]; !ok {
		return nil, &graphstore.NotFoundError{Kind: "period", ID: periodID}
	}
	snap := &graphstore.PeriodSnapshot{
		Tasks:        s.tasksInPeriodLocked(periodID),
		Dependencies: make(map[int64][]int64),
		Dependents:   make(map[int64][]int64),
	}
	es := s.edgesFor(model.PeriodScope(periodID))
	for id := range s.byPeriod[periodID] {
		if deps := es.deps[id]; len(deps) > 0 {
			snap.Dependencies[id] = sortedIDs(deps)
		}
		if dependents := es.dependents[id]; len(dependents) > 0 {
			snap.Dependents[id] = sortedIDs(dependents)
		}
	}
	return snap, nil
}
