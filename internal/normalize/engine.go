package normalize

import (
	"sort"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/metrics"
	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// Engine normalizes batches of raw appliance output for one dialect.
// The detection chain and JSON field mapping are resolved once at
// construction.
type Engine struct {
	dialect Dialect
	chain   []linePattern
	mapping FieldMapping
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMapping replaces the built-in JSON field mapping, typically with
// the result of LoadMappingOverrides.
func WithMapping(m FieldMapping) Option {
	return func(e *Engine) { e.mapping = m }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine constructs an engine for the given dialect.
func NewEngine(d Dialect, opts ...Option) *Engine {
	e := &Engine{
		dialect: d,
		chain:   chainFor(d),
		mapping: mappingFor(d),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the dialect the engine was constructed for.
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// ParseLine normalizes one raw unit. A unit starting with a JSON
// object delimiter attempts structured parsing first regardless of
// dialect; otherwise the dialect chain runs in precedence order and
// the first matching pattern wins. Unclaimed units go through the
// fallback extractor, so ParseLine always returns an event.
func (e *Engine) ParseLine(line string) *models.Event {
	now := e.now()

	if looksLikeJSON(line) {
		if event, ok := parseJSONLine(line, e.mapping, now); ok {
			return event
		}
	}
	for _, p := range e.chain {
		if p.match(line) {
			return p.extract(line, now)
		}
	}
	metrics.ParserFallbacks.Inc()
	return extractFallback(line, now)
}

// ParseBatch normalizes an ordered batch of raw units. Every unit
// yields exactly one event, and the result is sorted by timestamp
// descending (most recent first).
func (e *Engine) ParseBatch(lines []string) []models.Event {
	timer := time.Now()
	events := make([]models.Event, 0, len(lines))
	for _, line := range lines {
		events = append(events, *e.ParseLine(line))
	}
	sortEvents(events)
	metrics.NormalizeDuration.Observe(time.Since(timer).Seconds())
	return events
}

// ParseRecords normalizes structured payloads that are already decoded
// JSON objects, as returned by the appliance log export endpoints.
func (e *Engine) ParseRecords(records []map[string]any) []models.Event {
	timer := time.Now()
	now := e.now()
	events := make([]models.Event, 0, len(records))
	for _, record := range records {
		events = append(events, *extractRecord(record, rawOf(record), e.mapping, now))
	}
	sortEvents(events)
	metrics.NormalizeDuration.Observe(time.Since(timer).Seconds())
	return events
}

// sortEvents orders most recent first; ties keep input order so
// repeated parses stay deterministic.
func sortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}
