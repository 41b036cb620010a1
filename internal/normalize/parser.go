package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// Dialect selects which generation of the appliance API a component
// speaks. It is fixed at construction and never renegotiated.
type Dialect string

const (
	DialectV7 Dialect = "v7"
	DialectV8 Dialect = "v8"
)

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	return d == DialectV7 || d == DialectV8
}

// linePattern is one entry in a dialect's detection chain: a named
// predicate plus an extractor that runs only when the predicate holds.
// Chains are evaluated in declaration order with early exit, so
// precedence is auditable and each entry testable on its own.
type linePattern struct {
	name    string
	match   func(line string) bool
	extract func(line string, now time.Time) *models.Event
}

// chainFor returns the ordered detection chain for a dialect, most
// specific pattern first.
func chainFor(d Dialect) []linePattern {
	switch d {
	case DialectV8:
		return v8Chain
	default:
		return v7Chain
	}
}

// newEventID generates an id for sources that omit one. Ids are unique
// within a batch but not stable across runs.
func newEventID() string {
	return uuid.New().String()
}

// finalize fills the canonical defaults a pattern extractor left blank
// and pins the raw payload. Every parse path funnels through here, so
// every event leaves with a non-empty id and message, a non-zero UTC
// timestamp, a fail-closed action, and sentinel addresses.
func finalize(e *models.Event, raw string, now time.Time) *models.Event {
	if e.ID == "" {
		e.ID = newEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}
	if e.Severity == "" {
		e.Severity = models.SeverityInfo
	}
	if e.Category == "" {
		e.Category = models.CategorySystem
	}
	if e.Action == "" {
		e.Action = models.ActionDeny
	}
	if e.SourceAddr == "" {
		e.SourceAddr = models.UnknownAddress
	}
	if e.DestAddr == "" {
		e.DestAddr = models.UnknownAddress
	}
	if e.Protocol == "" {
		e.Protocol = models.ProtocolOther
	}
	if e.Message == "" {
		e.Message = "unparsed entry"
	}
	e.Raw = raw
	return e
}

// truncate shortens s for use in synthetic diagnostic messages.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
