// Package normalize converts raw appliance log output, across both
// supported API dialects, into canonical events.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// severityByPriority maps appliance numeric priority codes onto
// severity buckets. Unknown codes fall through to info.
var severityByPriority = map[int]models.Severity{
	0: models.SeverityCritical,
	1: models.SeverityCritical,
	2: models.SeverityHigh,
	3: models.SeverityHigh,
	4: models.SeverityMedium,
	5: models.SeverityLow,
	6: models.SeverityInfo,
	7: models.SeverityInfo,
}

// SeverityFromPriority buckets a numeric priority code.
func SeverityFromPriority(code int) models.Severity {
	if s, ok := severityByPriority[code]; ok {
		return s
	}
	return models.SeverityInfo
}

// categoryByCode maps appliance numeric category codes. Unknown codes
// fall through to system.
var categoryByCode = map[int]models.Category{
	1: models.CategoryFirewall,
	2: models.CategoryVPN,
	3: models.CategoryIPS,
	4: models.CategoryAntivirus,
	5: models.CategorySystem,
}

// CategoryFromCode buckets a numeric category code.
func CategoryFromCode(code int) models.Category {
	if c, ok := categoryByCode[code]; ok {
		return c
	}
	return models.CategorySystem
}

// categoryKeywords map textual category markers onto buckets, checked
// as substrings of the lowercased input.
var categoryKeywords = []struct {
	keyword  string
	category models.Category
}{
	{"vpn", models.CategoryVPN},
	{"ike", models.CategoryVPN},
	{"ipsec", models.CategoryVPN},
	{"ips", models.CategoryIPS},
	{"intrusion", models.CategoryIPS},
	{"gav", models.CategoryAntivirus},
	{"anti-virus", models.CategoryAntivirus},
	{"antivirus", models.CategoryAntivirus},
	{"atp", models.CategoryAntivirus},
	{"virus", models.CategoryAntivirus},
	{"firewall", models.CategoryFirewall},
	{"connection", models.CategoryFirewall},
	{"system", models.CategorySystem},
}

// CategoryFromKeyword buckets a textual category field or message.
// Unrecognized input yields system.
func CategoryFromKeyword(text string) models.Category {
	lower := strings.ToLower(text)
	for _, k := range categoryKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.category
		}
	}
	return models.CategorySystem
}

// actionKeywords are scanned in order; the first hit wins. Anything
// unmatched normalizes to deny so an unparsed action is never reported
// as permitted.
var actionKeywords = []struct {
	keyword string
	action  models.Action
}{
	{"allowed", models.ActionAllow},
	{"allow", models.ActionAllow},
	{"permitted", models.ActionAllow},
	{"permit", models.ActionAllow},
	{"accepted", models.ActionAllow},
	{"accept", models.ActionAllow},
	{"dropped", models.ActionDrop},
	{"drop", models.ActionDrop},
	{"reset", models.ActionReset},
	{"rst", models.ActionReset},
	{"denied", models.ActionDeny},
	{"deny", models.ActionDeny},
	{"blocked", models.ActionDeny},
	{"block", models.ActionDeny},
	{"rejected", models.ActionDeny},
	{"reject", models.ActionDeny},
}

// ActionFromKeyword scans text for an action keyword. Returns the
// matched action and true, or (deny, false) when nothing matched.
func ActionFromKeyword(text string) (models.Action, bool) {
	lower := strings.ToLower(text)
	for _, k := range actionKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.action, true
		}
	}
	return models.ActionDeny, false
}

// ParseProtocol normalizes a protocol token. The appliance emits
// compound forms like "udp/dns"; only the transport part matters.
func ParseProtocol(text string) models.Protocol {
	token := strings.ToLower(strings.TrimSpace(text))
	if idx := strings.IndexByte(token, '/'); idx >= 0 {
		token = token[:idx]
	}
	switch token {
	case "tcp", "6":
		return models.ProtocolTCP
	case "udp", "17":
		return models.ProtocolUDP
	case "icmp", "1":
		return models.ProtocolICMP
	default:
		return models.ProtocolOther
	}
}

// CoercePort converts a numeric or string port representation to an
// optional port. Invalid or out-of-range values yield nil, never an
// error.
func CoercePort(v any) *int {
	var port int
	switch t := v.(type) {
	case nil:
		return nil
	case int:
		port = t
	case int64:
		port = int(t)
	case float64:
		port = int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		port = n
	default:
		return nil
	}
	if port < 1 || port > 65535 {
		return nil
	}
	return &port
}

// timestampLayouts are tried in order for textual timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05",
	"Jan _2 15:04:05 2006",
}

// ParseTimestamp converts the timestamp encodings seen across both
// dialects (RFC3339, appliance syslog form, bare syslog, epoch seconds
// or milliseconds as number or string) to a UTC time. Returns false
// when nothing applies; callers substitute ingestion time.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case float64:
		return epochToTime(int64(t)), true
	case int64:
		return epochToTime(t), true
	case int:
		return epochToTime(int64(t)), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochToTime(n), true
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		// Bare syslog timestamps carry no year; assume the current one.
		if parsed, err := time.Parse("Jan _2 15:04:05", s); err == nil {
			now := time.Now().UTC()
			return parsed.AddDate(now.Year(), 0, 0).UTC(), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// epochToTime interprets n as epoch milliseconds when it is too large
// to be a plausible epoch-seconds value.
func epochToTime(n int64) time.Time {
	const msThreshold = 1e12
	if n >= msThreshold {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

var ipv4Pattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// ScanIPv4 returns IPv4-looking substrings of text in order of
// appearance.
func ScanIPv4(text string) []string {
	return ipv4Pattern.FindAllString(text, -1)
}
