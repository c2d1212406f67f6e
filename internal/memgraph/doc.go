// Package memgraph provides a thread-safe, in-memory implementation of the
// graphstore interfaces. It is the reference backend used by the server and
// the test suite; a relational backend would satisfy the same contracts.
//
// A single RWMutex guards all maps. The workload is read-heavy (dashboard
// queries, workflow views) with occasional short writes (edits,
// roll-forward), so one coarse lock keeps the implementation obviously
// correct without measurable contention at this domain's request rates.
// SnapshotPeriod copies a period's tasks and edges under one RLock, giving
// the view engine the consistent snapshot the contract requires.
package memgraph
