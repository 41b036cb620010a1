package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

func keyFilter() *models.EventFilter {
	return &models.EventFilter{
		StartTime: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := keyFilter()
	b := keyFilter()
	assert.Equal(t, Key("events", a), Key("events", b))
}

func TestKeySeverityOrderInsensitive(t *testing.T) {
	a := keyFilter()
	a.Severities = []models.Severity{models.SeverityHigh, models.SeverityLow}
	b := keyFilter()
	b.Severities = []models.Severity{models.SeverityLow, models.SeverityHigh}
	assert.Equal(t, Key("events", a), Key("events", b))
}

func TestKeyDistinguishesOperations(t *testing.T) {
	f := keyFilter()
	assert.NotEqual(t, Key("events", f), Key("threats", f))
}

func TestKeyDistinguishesFilters(t *testing.T) {
	a := keyFilter()
	b := keyFilter()
	b.Category = models.CategoryVPN
	assert.NotEqual(t, Key("events", a), Key("events", b))

	c := keyFilter()
	port := 443
	c.Port = &port
	assert.NotEqual(t, Key("events", a), Key("events", c))
}

func TestKeyNormalizesTimezone(t *testing.T) {
	a := keyFilter()
	b := keyFilter()
	b.StartTime = b.StartTime.In(time.FixedZone("CET", 3600))
	b.EndTime = b.EndTime.In(time.FixedZone("CET", 3600))
	assert.Equal(t, Key("events", a), Key("events", b))
}

func TestKeyNilFilter(t *testing.T) {
	assert.Equal(t, "threats", Key("threats", nil))
}

func TestWindowKey(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	assert.Equal(t, WindowKey("stats", start, end), WindowKey("stats", start, end))
	assert.NotEqual(t, WindowKey("stats", start, end), WindowKey("stats", start, end.Add(time.Hour)))
}
