package model

import "fmt"

// ScopeKind distinguishes the two dependency-graph variants.
type ScopeKind int

const (
	// ScopeKindPeriod scopes a graph to the tasks of one period.
	ScopeKindPeriod ScopeKind = iota + 1
	// ScopeKindTemplatePool scopes a graph to the reusable template set.
	ScopeKindTemplatePool
)

// Scope identifies the graph a node or edge belongs to. Scopes are
// comparable and usable as map keys.
type Scope struct {
	Kind ScopeKind
	// PeriodID is set only when Kind is ScopeKindPeriod.
	PeriodID int64
}

// PeriodScope returns the scope of a period's instance graph.
func PeriodScope(periodID int64) Scope {
	return Scope{Kind: ScopeKindPeriod, PeriodID: periodID}
}

// TemplatePool returns the sentinel scope of the template graph.
func TemplatePool() Scope {
	return Scope{Kind: ScopeKindTemplatePool}
}

// String renders the scope for logs and error messages.
func (s Scope) String() string {
	switch s.Kind {
	case ScopeKindPeriod:
		return fmt.Sprintf("period/%d", s.PeriodID)
	case ScopeKindTemplatePool:
		return "templates"
	default:
		return fmt.Sprintf("unknown(%d)", int(s.Kind))
	}
}
