// Package projector serializes a scoped graph as a {nodes, edges} document
// for the visual workflow editor. It performs no validation; it is a pure
// read of the store plus the stored 2-D coordinates.
package projector

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

// Node is one renderable vertex. Position is nil for nodes the client
// should lay out itself.
type Node struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Position *model.Position `json:"position,omitempty"`

	// Task-only fields.
	Status  model.Status `json:"status,omitempty"`
	DueDate *string      `json:"due_date,omitempty"`

	// Template-only fields.
	DaysOffset *int  `json:"days_offset,omitempty"`
	SortOrder  *int  `json:"sort_order,omitempty"`
	IsActive   *bool `json:"is_active,omitempty"`
}

// Edge points from the prerequisite to the dependent: the display arrow
// runs opposite to the internal dependsOn relation, consistently for every
// edge.
type Edge struct {
	ID     string `json:"id"`
	Source int64  `json:"source"`
	Target int64  `json:"target"`
}

// View is the full renderable document for one scope.
type View struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// PeriodView projects a period's instance graph.
func PeriodView(ctx context.Context, store graphstore.Store, periodID int64) (*View, error) {
	tasks, err := store.TasksInPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	view := &View{Nodes: make([]Node, 0, len(tasks)), Edges: []Edge{}}
	scope := model.PeriodScope(periodID)
	for _, t := range tasks {
		n := Node{ID: t.ID, Name: t.Name, Status: t.Status, Position: t.Position}
		if t.DueDate != nil {
			s := t.DueDate.UTC().Format(time.RFC3339)
			n.DueDate = &s
		}
		view.Nodes = append(view.Nodes, n)
		if err := appendEdges(ctx, store, scope, t.ID, view); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// TemplateView projects the template-pool graph.
func TemplateView(ctx context.Context, store graphstore.Store) (*View, error) {
	templates, err := store.Templates(ctx)
	if err != nil {
		return nil, err
	}
	view := &View{Nodes: make([]Node, 0, len(templates)), Edges: []Edge{}}
	scope := model.TemplatePool()
	for _, t := range templates {
		offset, order, active := t.DaysOffset, t.SortOrder, t.IsActive
		view.Nodes = append(view.Nodes, Node{
			ID:         t.ID,
			Name:       t.Name,
			Position:   t.Position,
			DaysOffset: &offset,
			SortOrder:  &order,
			IsActive:   &active,
		})
		if err := appendEdges(ctx, store, scope, t.ID, view); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// appendEdges synthesizes one display edge per dependsOn edge of nodeID,
// with the id "<dependsOnId>-<nodeId>".
func appendEdges(ctx context.Context, store graphstore.Store, scope model.Scope, nodeID int64, view *View) error {
	deps, err := store.Dependencies(ctx, scope, nodeID)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		view.Edges = append(view.Edges, Edge{
			ID:     fmt.Sprintf("%d-%d", dep, nodeID),
			Source: dep,
			Target: nodeID,
		})
	}
	return nil
}
