package models

import (
	"errors"
	"fmt"
	"time"
)

// MaxResultLimit is the hard ceiling applied to every upstream query,
// independent of what the caller requested.
const MaxResultLimit = 1000

// DefaultResultLimit applies when a filter omits the limit.
const DefaultResultLimit = 100

// EventFilter describes the semantic parameters of an event query.
// Optional fields are zero-valued when unset.
type EventFilter struct {
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Category   Category   `json:"category,omitempty"`
	SourceAddr string     `json:"source_address,omitempty"`
	DestAddr   string     `json:"dest_address,omitempty"`
	Port       *int       `json:"port,omitempty"`
	Action     Action     `json:"action,omitempty"`
	Severities []Severity `json:"severities,omitempty"`
	Limit      int        `json:"limit,omitempty"`
}

var (
	ErrEmptyWindow    = errors.New("start and end time are required")
	ErrInvertedWindow = errors.New("end time precedes start time")
)

// Validate checks the filter for structural problems before any
// upstream call is made.
func (f *EventFilter) Validate() error {
	if f.StartTime.IsZero() || f.EndTime.IsZero() {
		return ErrEmptyWindow
	}
	if f.EndTime.Before(f.StartTime) {
		return fmt.Errorf("%w: start=%s end=%s", ErrInvertedWindow,
			f.StartTime.Format(time.RFC3339), f.EndTime.Format(time.RFC3339))
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", f.Limit)
	}
	return nil
}

// EffectiveLimit returns the limit clamped into [1, MaxResultLimit],
// substituting the default when unset.
func (f *EventFilter) EffectiveLimit() int {
	limit := f.Limit
	if limit == 0 {
		limit = DefaultResultLimit
	}
	if limit > MaxResultLimit {
		limit = MaxResultLimit
	}
	return limit
}

// Matches reports whether an event satisfies the filter's optional
// predicates. The time window is enforced upstream; this covers the
// client-side refinements.
func (f *EventFilter) Matches(e *Event) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.SourceAddr != "" && e.SourceAddr != f.SourceAddr {
		return false
	}
	if f.DestAddr != "" && e.DestAddr != f.DestAddr {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Port != nil {
		sp := e.SourcePort != nil && *e.SourcePort == *f.Port
		dp := e.DestPort != nil && *e.DestPort == *f.Port
		if !sp && !dp {
			return false
		}
	}
	if len(f.Severities) > 0 {
		found := false
		for _, s := range f.Severities {
			if e.Severity == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
