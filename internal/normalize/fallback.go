package normalize

import (
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// extractFallback is the last resort when no dialect pattern claims a
// raw unit. It scavenges whatever it can (the first two IPv4-looking
// substrings become source and destination, an action keyword if one
// appears) and synthesizes a diagnostic message. It never fails, so
// one malformed line never aborts a batch.
func extractFallback(line string, now time.Time) *models.Event {
	e := &models.Event{
		Severity: models.SeverityInfo,
		Category: models.CategorySystem,
		Message:  "unparsed entry: " + truncate(line, 120),
	}
	ips := ScanIPv4(line)
	if len(ips) > 0 {
		e.SourceAddr = ips[0]
	}
	if len(ips) > 1 {
		e.DestAddr = ips[1]
	}
	if action, ok := ActionFromKeyword(line); ok {
		e.Action = action
	}
	return finalize(e, line, now)
}
