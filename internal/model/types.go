package model

import "time"

// Status is the lifecycle state of a task within a close cycle.
// Templates carry no status; only instance tasks do.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusComplete   Status = "complete"
	StatusBlocked    Status = "blocked"
)

// Valid reports whether s is one of the defined task statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusReview, StatusComplete, StatusBlocked:
		return true
	}
	return false
}

// CloseType classifies a period and selects which templates roll forward
// into it.
type CloseType string

const (
	CloseMonthly   CloseType = "monthly"
	CloseQuarterly CloseType = "quarterly"
	CloseYearEnd   CloseType = "year_end"
)

// Valid reports whether c is one of the defined close types.
func (c CloseType) Valid() bool {
	switch c {
	case CloseMonthly, CloseQuarterly, CloseYearEnd:
		return true
	}
	return false
}

// Position is a stored 2-D coordinate for the visual workflow editor.
// It is purely cosmetic and never affects graph semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Period is one recurring close cycle, e.g. "September 2025".
type Period struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Month     int       `json:"month"` // 1-12
	Year      int       `json:"year"`
	CloseType CloseType `json:"close_type"`
	IsActive  bool      `json:"is_active"`

	// TargetCloseDate, when set, anchors due-date derivation during
	// roll-forward. When nil the anchor is the last calendar day of
	// (Month, Year).
	TargetCloseDate *time.Time `json:"target_close_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is one unit of close work inside a period's instance graph.
type Task struct {
	ID       int64 `json:"id"`
	PeriodID int64 `json:"period_id"`
	// TemplateID records which template this task was instantiated from,
	// nil for tasks created by hand.
	TemplateID *int64 `json:"template_id,omitempty"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`

	// AssigneeID is an opaque identity supplied by the caller's auth
	// layer; this service stores it for attribution only.
	AssigneeID string `json:"assignee_id,omitempty"`
	Department string `json:"department,omitempty"`

	EstimatedHours *float64 `json:"estimated_hours,omitempty"`

	// DueDate is derived at creation time from the period anchor plus the
	// template offset. It is never auto-recomputed afterwards.
	DueDate     *time.Time `json:"due_date,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Position *Position `json:"position,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Template is a reusable task definition living in the template pool.
// Templates are soft-deactivated rather than deleted while referenced.
type Template struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CloseType   CloseType `json:"close_type"`
	Department  string    `json:"department,omitempty"`

	// DefaultAssigneeID seeds the assignee of tasks instantiated from
	// this template.
	DefaultAssigneeID string `json:"default_assignee_id,omitempty"`

	// DaysOffset shifts the instantiated task's due date relative to the
	// period close anchor. Negative offsets fall before the anchor.
	DaysOffset int `json:"days_offset"`

	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	IsActive       bool     `json:"is_active"`

	// SortOrder gives templates a stable display and instantiation order.
	SortOrder int `json:"sort_order"`

	Position *Position `json:"position,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
