// Package cycle implements the acyclicity guard for dependency edits.
//
// The check is pure reachability: adding the edge from -> to closes a cycle
// exactly when `from` is already reachable from `to` through existing
// dependsOn edges. The traversal is iterative with an explicit visited set,
// so stack depth stays bounded and the walk terminates even over data whose
// invariants were already violated.
package cycle

import (
	"context"
	"fmt"

	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/model"
)

// Error reports that a proposed dependency would close a cycle. It names
// the candidate id so the caller's UI can highlight it.
type Error struct {
	OffendingID int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("dependency on node %d would create a cycle", e.OffendingID)
}

// WouldCreateCycle reports whether adding the edge from -> to would create
// a cycle in the scoped graph. Self-loops (from == to) are reported as
// cycles without any traversal. The target is assumed to exist; existence
// filtering happens before the cycle check.
func WouldCreateCycle(ctx context.Context, edges graphstore.EdgeStore, scope model.Scope, from, to int64) (bool, error) {
	if from == to {
		return true, nil
	}

	visited := make(map[int64]struct{})
	stack := []int64{to}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n == from {
			return true, nil
		}
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}

		deps, err := edges.Dependencies(ctx, scope, n)
		if err != nil {
			return false, fmt.Errorf("walking dependencies of node %d: %w", n, err)
		}
		stack = append(stack, deps...)
	}
	return false, nil
}
