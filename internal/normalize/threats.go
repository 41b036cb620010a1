package normalize

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// threatTypeKeywords map the appliance's threat classification strings
// onto the closed canonical type domain. Checked as substrings of the
// lowercased input; unrecognized classifications are suspicious.
var threatTypeKeywords = []struct {
	keyword string
	typ     models.ThreatType
}{
	{"malware", models.ThreatMalware},
	{"virus", models.ThreatMalware},
	{"trojan", models.ThreatMalware},
	{"ransom", models.ThreatMalware},
	{"intrusion", models.ThreatIntrusion},
	{"exploit", models.ThreatIntrusion},
	{"ips", models.ThreatIntrusion},
	{"botnet", models.ThreatBotnet},
	{"c2", models.ThreatBotnet},
	{"command and control", models.ThreatBotnet},
	{"spam", models.ThreatSpam},
	{"phish", models.ThreatSpam},
}

// ThreatTypeFromKeyword buckets a threat classification string.
func ThreatTypeFromKeyword(text string) models.ThreatType {
	lower := strings.ToLower(text)
	for _, k := range threatTypeKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.typ
		}
	}
	return models.ThreatSuspicious
}

// clampThreatSeverity narrows an event severity to the threat domain,
// which has no info level.
func clampThreatSeverity(s models.Severity) models.Severity {
	if s == models.SeverityInfo || !s.Valid() {
		return models.SeverityLow
	}
	return s
}

// ParseThreatRecords normalizes decoded threat records from either
// dialect's threat endpoint. Field names are tolerated across both
// generations; a malformed record still yields a best-effort threat.
func (e *Engine) ParseThreatRecords(records []map[string]any) []models.Threat {
	now := e.now()
	threats := make([]models.Threat, 0, len(records))
	for _, record := range records {
		threats = append(threats, *e.parseThreatRecord(record, now))
	}
	sort.SliceStable(threats, func(i, j int) bool {
		return threats[i].Timestamp.After(threats[j].Timestamp)
	})
	return threats
}

func (e *Engine) parseThreatRecord(record map[string]any, now time.Time) *models.Threat {
	t := &models.Threat{
		ID:         firstString(record, "uuid", "id", "threat_id"),
		Name:       firstString(record, "name", "threat", "threat_name"),
		SourceAddr: firstString(record, "source_ip", "src_ip", "src"),
		DestAddr:   firstString(record, "destination_ip", "dst_ip", "dst"),
		Message:    firstString(record, "message", "msg", "description"),
		Raw:        rawOf(record),
	}
	if t.ID == "" {
		t.ID = newEventID()
	}
	if t.SourceAddr == "" {
		t.SourceAddr = models.UnknownAddress
	}
	if t.DestAddr == "" {
		t.DestAddr = models.UnknownAddress
	}
	if t.Message == "" {
		t.Message = "unparsed threat entry"
	}

	if ts, ok := ParseTimestamp(firstValue(record, "timestamp", "time", "detected_at")); ok {
		t.Timestamp = ts
	} else {
		t.Timestamp = now.UTC()
	}

	severityText := firstString(record, "severity", "risk")
	if pri, ok := intField(record, "pri"); ok {
		t.Severity = clampThreatSeverity(SeverityFromPriority(pri))
	} else if severityText != "" {
		t.Severity = clampThreatSeverity(models.Severity(strings.ToLower(severityText)))
	} else {
		t.Severity = models.SeverityLow
	}

	t.Type = ThreatTypeFromKeyword(firstString(record, "type", "classification", "category") + " " + t.Name)

	// Blocked defaults to true: an ambiguous threat disposition must
	// not be reported as having gotten through.
	t.Blocked = true
	switch v := firstValue(record, "blocked", "action", "disposition").(type) {
	case bool:
		t.Blocked = v
	case string:
		if action, ok := ActionFromKeyword(v); ok {
			t.Blocked = action != models.ActionAllow
		}
	}
	return t
}

// rawOf re-serializes a decoded record so the Raw field of structured
// inputs is still populated. Encoding a map[string]any cannot fail.
func rawOf(record map[string]any) string {
	data, err := json.Marshal(record)
	if err != nil {
		return ""
	}
	return string(data)
}

func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstValue(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
