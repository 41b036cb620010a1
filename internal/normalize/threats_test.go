package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

func TestParseThreatRecords(t *testing.T) {
	records := []map[string]any{
		{
			"uuid":           "t-1",
			"timestamp":      "2024-01-15T10:00:00Z",
			"severity":       "critical",
			"type":           "trojan dropper",
			"name":           "Mal/Agent-X",
			"source_ip":      "203.0.113.9",
			"destination_ip": "10.0.0.12",
			"blocked":        true,
			"message":        "signature match",
		},
		{
			"id":       "t-2",
			"time":     "2024-01-15T11:00:00Z",
			"severity": "high",
			"type":     "exploit attempt",
			"name":     "CVE-2023-1234",
			"src_ip":   "198.51.100.3",
			"action":   "allowed",
		},
	}

	threats := newV8Engine().ParseThreatRecords(records)
	require.Len(t, threats, 2)

	// Sorted most recent first.
	assert.Equal(t, "t-2", threats[0].ID)
	assert.Equal(t, models.ThreatIntrusion, threats[0].Type)
	assert.False(t, threats[0].Blocked)
	assert.Equal(t, models.UnknownAddress, threats[0].DestAddr)

	assert.Equal(t, "t-1", threats[1].ID)
	assert.Equal(t, models.ThreatMalware, threats[1].Type)
	assert.Equal(t, models.SeverityCritical, threats[1].Severity)
	assert.True(t, threats[1].Blocked)
	assert.NotEmpty(t, threats[1].Raw)
}

func TestParseThreatRecordDefaults(t *testing.T) {
	threats := newV8Engine().ParseThreatRecords([]map[string]any{{}})
	require.Len(t, threats, 1)

	th := threats[0]
	assert.NotEmpty(t, th.ID)
	assert.Equal(t, testClock().UTC(), th.Timestamp)
	assert.Equal(t, models.SeverityLow, th.Severity)
	assert.Equal(t, models.ThreatSuspicious, th.Type)
	// Ambiguous disposition must not be reported as having passed.
	assert.True(t, th.Blocked)
	assert.Equal(t, models.UnknownAddress, th.SourceAddr)
	assert.Equal(t, "unparsed threat entry", th.Message)
}

func TestThreatSeverityDomainExcludesInfo(t *testing.T) {
	threats := newV8Engine().ParseThreatRecords([]map[string]any{
		{"severity": "info"},
		{"severity": "bogus"},
		{"pri": float64(7)},
	})
	for _, th := range threats {
		assert.Equal(t, models.SeverityLow, th.Severity)
	}
}

func TestThreatTypeFromKeyword(t *testing.T) {
	assert.Equal(t, models.ThreatBotnet, ThreatTypeFromKeyword("C2 beacon detected"))
	assert.Equal(t, models.ThreatSpam, ThreatTypeFromKeyword("phishing campaign"))
	assert.Equal(t, models.ThreatSuspicious, ThreatTypeFromKeyword("weird"))
}
