package memgraph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

// edgeSet holds one scope's adjacency in both directions so that either
// side of the dependsOn relation is answerable in O(degree).
type edgeSet struct {
	// deps maps node id -> set of ids it depends on.
	deps map[int64]map[int64]struct{}
	// dependents maps node id -> set of ids depending on it.
	dependents map[int64]map[int64]struct{}
}

func newEdgeSet() *edgeSet {
	return &edgeSet{
		deps:       make(map[int64]map[int64]struct{}),
		dependents: make(map[int64]map[int64]struct{}),
	}
}

// Store is the in-memory implementation of graphstore.Store.
type Store struct {
	mu sync.RWMutex

	nextID int64

	periods   map[int64]*model.Period
	tasks     map[int64]*model.Task
	templates map[int64]*model.Template

	// byPeriod indexes task ids per period for O(|S|) scope listing.
	byPeriod map[int64]map[int64]struct{}

	edges map[model.Scope]*edgeSet

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:    1,
		periods:   make(map[int64]*model.Period),
		tasks:     make(map[int64]*model.Task),
		templates: make(map[int64]*model.Template),
		byPeriod:  make(map[int64]map[int64]struct{}),
		edges:     make(map[model.Scope]*edgeSet),
		now:       time.Now,
	}
}

var _ graphstore.Store = (*Store)(nil)

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// scopeEdges lazily creates the scope's edge set. Callers must hold the
// write lock; read paths use edgesFor instead.
func (s *Store) scopeEdges(scope model.Scope) *edgeSet {
	es, ok := s.edges[scope]
	if !ok {
		es = newEdgeSet()
		s.edges[scope] = es
	}
	return es
}

// edgesFor is the read-only lookup, safe under the read lock. A scope with
// no edges yet returns the shared empty set.
func (s *Store) edgesFor(scope model.Scope) *edgeSet {
	if es, ok := s.edges[scope]; ok {
		return es
	}
	return emptyEdges
}

var emptyEdges = newEdgeSet()

// nodeExistsLocked answers scope membership. Tasks belong to their period's
// scope, templates to the template pool.
func (s *Store) nodeExistsLocked(scope model.Scope, id int64) bool {
	switch scope.Kind {
	case model.ScopeKindPeriod:
		t, ok := s.tasks[id]
		return ok && t.PeriodID == scope.PeriodID
	case model.ScopeKindTemplatePool:
		_, ok := s.templates[id]
		return ok
	default:
		return false
	}
}

// --- EdgeStore ---

// NodeExists reports whether id belongs to scope.
func (s *Store) NodeExists(ctx context.Context, scope model.Scope, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeExistsLocked(scope, id), nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dependencies returns the ids node id depends on, ascending.
func (s *Store) Dependencies(ctx context.Context, scope model.Scope, id int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.nodeExistsLocked(scope, id) {
		return nil, &graphstore.NotFoundError{Kind: "node", ID: id}
	}
	return sortedIDs(s.edgesFor(scope).deps[id]), nil
}

// Dependents returns the ids depending on node id, ascending.
func (s *Store) Dependents(ctx context.Context, scope model.Scope, id int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.nodeExistsLocked(scope, id) {
		return nil, &graphstore.NotFoundError{Kind: "node", ID: id}
	}
	return sortedIDs(s.edgesFor(scope).dependents[id]), nil
}

// ReplaceEdges swaps node id's outgoing edge set for depIDs, silently
// skipping targets that do not exist in the scope.
func (s *Store) ReplaceEdges(ctx context.Context, scope model.Scope, id int64, depIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.nodeExistsLocked(scope, id) {
		return &graphstore.NotFoundError{Kind: "node", ID: id}
	}
	es := s.scopeEdges(scope)

	for old := range es.deps[id] {
		delete(es.dependents[old], id)
	}
	delete(es.deps, id)

	for _, dep := range depIDs {
		if !s.nodeExistsLocked(scope, dep) {
			continue // stale or foreign id: dropped, not an error
		}
		s.addEdgeLocked(es, id, dep)
	}
	return nil
}

// AddEdge adds the single edge from -> to; both endpoints must exist.
func (s *Store) AddEdge(ctx context.Context, scope model.Scope, from, to int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.nodeExistsLocked(scope, from) {
		return &graphstore.NotFoundError{Kind: "node", ID: from}
	}
	if !s.nodeExistsLocked(scope, to) {
		return &graphstore.NotFoundError{Kind: "node", ID: to}
	}
	s.addEdgeLocked(s.scopeEdges(scope), from, to)
	return nil
}

func (s *Store) addEdgeLocked(es *edgeSet, from, to int64) {
	if es.deps[from] == nil {
		es.deps[from] = make(map[int64]struct{})
	}
	es.deps[from][to] = struct{}{}
	if es.dependents[to] == nil {
		es.dependents[to] = make(map[int64]struct{})
	}
	es.dependents[to][from] = struct{}{}
}

// removeNodeEdgesLocked cascades a node deletion to every edge touching it.
func (s *Store) removeNodeEdgesLocked(scope model.Scope, id int64) {
	es := s.scopeEdges(scope)
	for dep := range es.deps[id] {
		delete(es.dependents[dep], id)
	}
	delete(es.deps, id)
	for dependent := range es.dependents[id] {
		delete(es.deps[dependent], id)
	}
	delete(es.dependents, id)
}
