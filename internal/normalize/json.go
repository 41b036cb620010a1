package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// FieldMapping names the JSON fields a dialect uses for each canonical
// slot. One closed mapping exists per dialect, resolved once when the
// engine is constructed; field names are never re-inferred per record.
type FieldMapping struct {
	ID         string `yaml:"id"`
	Timestamp  string `yaml:"timestamp"`
	Priority   string `yaml:"priority"`
	Category   string `yaml:"category"`
	Action     string `yaml:"action"`
	SourceAddr string `yaml:"source_address"`
	DestAddr   string `yaml:"dest_address"`
	SourcePort string `yaml:"source_port"`
	DestPort   string `yaml:"dest_port"`
	Protocol   string `yaml:"protocol"`
	Rule       string `yaml:"rule"`
	Message    string `yaml:"message"`
	TenantID   string `yaml:"tenant_id"`
	CloudID    string `yaml:"cloud_id"`
}

// v7JSONMapping covers the v7 structured log export.
var v7JSONMapping = FieldMapping{
	ID:         "log_id",
	Timestamp:  "time",
	Priority:   "pri",
	Category:   "cat",
	Action:     "fw_action",
	SourceAddr: "src_ip",
	DestAddr:   "dst_ip",
	SourcePort: "src_port",
	DestPort:   "dst_port",
	Protocol:   "proto",
	Rule:       "rule",
	Message:    "msg",
}

// v8JSONMapping covers the v8 structured log export, which renames
// most fields and adds cloud/tenant identifiers.
var v8JSONMapping = FieldMapping{
	ID:         "uuid",
	Timestamp:  "timestamp",
	Priority:   "severity",
	Category:   "category",
	Action:     "action",
	SourceAddr: "source_ip",
	DestAddr:   "destination_ip",
	SourcePort: "source_port",
	DestPort:   "destination_port",
	Protocol:   "protocol",
	Rule:       "policy_name",
	Message:    "message",
	TenantID:   "tenant_id",
	CloudID:    "cloud_id",
}

// mappingFor returns the built-in JSON field mapping for a dialect.
func mappingFor(d Dialect) FieldMapping {
	if d == DialectV8 {
		return v8JSONMapping
	}
	return v7JSONMapping
}

// looksLikeJSON reports whether a raw unit should attempt structured
// parsing before any textual pattern.
func looksLikeJSON(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "{")
}

// parseJSONLine attempts structured parsing of a raw unit. Returns
// false when the unit is not a JSON object; malformed values inside a
// valid object degrade to defaults, never to an error.
func parseJSONLine(line string, m FieldMapping, now time.Time) (*models.Event, bool) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return nil, false
	}
	return extractRecord(record, line, m, now), true
}

// extractRecord builds a canonical event from a decoded JSON object
// using the dialect's field mapping.
func extractRecord(record map[string]any, raw string, m FieldMapping, now time.Time) *models.Event {
	e := &models.Event{}

	e.ID = stringField(record, m.ID)
	if ts, ok := ParseTimestamp(record[m.Timestamp]); ok {
		e.Timestamp = ts
	}
	if pri, ok := intField(record, m.Priority); ok {
		e.Severity = SeverityFromPriority(pri)
	}
	if code, ok := intField(record, m.Category); ok {
		e.Category = CategoryFromCode(code)
	} else if cat := stringField(record, m.Category); cat != "" {
		e.Category = CategoryFromKeyword(cat)
	}
	if actionText := stringField(record, m.Action); actionText != "" {
		if action, ok := ActionFromKeyword(actionText); ok {
			e.Action = action
		}
	} else if action, ok := ActionFromKeyword(stringField(record, m.Message)); ok {
		// No explicit verdict field; the message text decides, with
		// finalize applying the deny default when it too is silent.
		e.Action = action
	}
	e.SourceAddr = stringField(record, m.SourceAddr)
	e.DestAddr = stringField(record, m.DestAddr)
	e.SourcePort = CoercePort(record[m.SourcePort])
	e.DestPort = CoercePort(record[m.DestPort])
	if proto := stringField(record, m.Protocol); proto != "" {
		e.Protocol = ParseProtocol(proto)
	}
	e.Rule = stringField(record, m.Rule)
	e.Message = stringField(record, m.Message)
	e.TenantID = stringField(record, m.TenantID)
	e.CloudID = stringField(record, m.CloudID)

	return finalize(e, raw, now)
}

func stringField(record map[string]any, key string) string {
	if key == "" {
		return ""
	}
	switch v := record[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func intField(record map[string]any, key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	switch v := record[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
