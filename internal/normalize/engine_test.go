package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

var mixedV7Batch = []string{
	`time="2024-01-15 10:30:45" pri=1 c=3 msg="Probe of inside host" src=10.0.0.5:52431 dst=192.0.2.10:80 proto=tcp`,
	`IKE negotiation aborted: VPN policy "Office" peer 203.0.113.7 local 198.51.100.2 timeout`,
	`total garbage &&& that matches nothing at all`,
	`{"log_id":"j-1","time":"2024-01-15T11:00:00Z","pri":5,"cat":2,"msg":"tunnel up, allowed","src_ip":"10.0.0.2","dst_ip":"10.0.0.3"}`,
	`DENY TCP 172.16.0.4 -> 198.51.100.20`,
}

func TestParseBatchPreservesLength(t *testing.T) {
	events := newV7Engine().ParseBatch(mixedV7Batch)
	assert.Len(t, events, len(mixedV7Batch))
}

func TestParseBatchEmptyInput(t *testing.T) {
	assert.Empty(t, newV7Engine().ParseBatch(nil))
	assert.Empty(t, newV7Engine().ParseBatch([]string{}))
}

func TestParseBatchSortedDescending(t *testing.T) {
	events := newV7Engine().ParseBatch(mixedV7Batch)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i-1].Timestamp.Before(events[i].Timestamp),
			"events not sorted most recent first at index %d", i)
	}
}

func TestParseBatchRawRoundTrips(t *testing.T) {
	events := newV7Engine().ParseBatch(mixedV7Batch)
	raws := make(map[string]bool, len(events))
	for _, e := range events {
		raws[e.Raw] = true
	}
	for _, line := range mixedV7Batch {
		assert.True(t, raws[line], "raw payload lost for %q", line)
	}
}

func TestParseBatchIdempotentExceptIDs(t *testing.T) {
	engine := newV7Engine()
	first := engine.ParseBatch(mixedV7Batch)
	second := engine.ParseBatch(mixedV7Batch)
	require.Len(t, second, len(first))

	for i := range first {
		a, b := first[i], second[i]
		// Generated ids are not stable across runs; everything else is.
		a.ID, b.ID = "", ""
		assert.Equal(t, a, b, "events differ at index %d", i)
	}
}

func TestParseBatchSourceSuppliedIDIsStable(t *testing.T) {
	batch := []string{`{"log_id":"stable-1","time":"2024-01-15T11:00:00Z","msg":"x"}`}
	engine := newV7Engine()
	first := engine.ParseBatch(batch)
	second := engine.ParseBatch(batch)
	assert.Equal(t, "stable-1", first[0].ID)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestFallbackExtractsAddressesAndFailsClosed(t *testing.T) {
	line := "%%% corrupted 10.1.2.3 frame 172.16.9.9 nothing actionable %%%"

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, "10.1.2.3", e.SourceAddr)
	assert.Equal(t, "172.16.9.9", e.DestAddr)
	assert.Equal(t, models.ActionDeny, e.Action)
	assert.Equal(t, models.SeverityInfo, e.Severity)
	assert.Equal(t, models.CategorySystem, e.Category)
	assert.Contains(t, e.Message, "unparsed entry")
	assert.Equal(t, line, e.Raw)
	assert.Equal(t, testClock().UTC(), e.Timestamp)
}

func TestFallbackWithoutAddresses(t *testing.T) {
	e := newV7Engine().ParseLine("completely opaque line")
	assert.Equal(t, models.UnknownAddress, e.SourceAddr)
	assert.Equal(t, models.UnknownAddress, e.DestAddr)
	assert.NotEmpty(t, e.ID)
}

func TestParseRecordsStructuredBatch(t *testing.T) {
	records := []map[string]any{
		{"uuid": "r-1", "timestamp": "2024-01-15T10:00:00Z", "severity": float64(6), "category": "firewall", "action": "allowed", "source_ip": "10.0.0.1", "destination_ip": "10.0.0.2"},
		{"uuid": "r-2", "timestamp": "2024-01-15T11:00:00Z", "severity": float64(1), "category": "ips", "action": "blocked", "source_ip": "10.0.0.3", "destination_ip": "10.0.0.4"},
	}

	events := newV8Engine().ParseRecords(records)
	require.Len(t, events, 2)
	// Sorted most recent first.
	assert.Equal(t, "r-2", events[0].ID)
	assert.Equal(t, models.SeverityCritical, events[0].Severity)
	assert.Equal(t, models.ActionDeny, events[0].Action)
	assert.Equal(t, models.ActionAllow, events[1].Action)
	assert.NotEmpty(t, events[0].Raw)
}
