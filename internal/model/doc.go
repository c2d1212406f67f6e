// Package model defines the domain entities of the close workflow: periods,
// tasks, task templates, and the scope that confines a dependency graph.
//
// A scope is either one period (the "instance graph" of concrete tasks) or
// the template pool (the reusable "template graph"). Edges never cross
// scopes, and both graph variants share the same invariants: no self-loops,
// no cycles, endpoints must exist in the scope.
package model
