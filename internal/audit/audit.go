// Package audit defines the sink that receives change records produced by
// the engine. The engine owns the record values; storage and retention
// belong to the host system.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one observed change: what entity, what happened, the before and
// after values, and who did it.
type Record struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"` // "task", "template", "period"
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"` // "created", "status_changed", "dependencies_changed", ...
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	ActorID    string    `json:"actor_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRecord fills in the generated id and timestamp.
func NewRecord(entityType string, entityID int64, action, oldValue, newValue, actorID string) Record {
	return Record{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	}
}

// Sink accepts audit records. Implementations must not block mutation
// flows for long; a failing sink fails the enclosing operation so audit
// coverage is never silently lost.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// MemorySink retains records in memory for inspection, newest last.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends the record.
func (s *MemorySink) Write(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything written so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
