// Package graphstore defines the storage interfaces for the close workflow
// dependency graphs.
//
// # Why Graph Store Exists
//
// The graph store separates two concerns that are easy to tangle:
//
//   - the **entity catalog** (periods, tasks, templates and their fields),
//     which is plain scoped CRUD, and
//   - the **dependency topology** (directed dependsOn edges within one
//     scope), which carries real invariants: acyclicity, scope closure,
//     and referential integrity.
//
// Both edge directions are independently queryable: Dependencies answers
// "what must complete before X", Dependents answers "what is blocked by X",
// backed by one edge relation stored both ways. Callers never traverse a
// live object graph; they ask the store for ids and look entities up.
//
// # Mutation Discipline
//
// All edge mutation flows through the Dependency Editor or the Template
// Instantiator. Nothing else writes edges, which keeps the acyclicity
// invariant centrally enforced. The store itself performs no cycle
// checking; it trusts its callers and only enforces existence (unknown
// edge targets are silently skipped, supporting best-effort bulk edits)
// and cascade deletion (removing a node removes every edge touching it).
//
// # Implementations
//
// internal/memgraph provides the in-memory reference implementation used
// by the server and the test suite. A relational implementation maps the
// edge relation onto a (scope, from_id, to_id) table queried both ways.
package graphstore
