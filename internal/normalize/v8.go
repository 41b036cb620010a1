package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// v8Chain is the detection order for the v8 dialect. Capture ATP lines
// are the most specific, then plain ATP analysis lines, then the
// enhanced key=value syslog form carrying cloud/tenant fields, then
// the bare ALLOW/DENY pattern.
var v8Chain = []linePattern{
	{name: "v8-capture-atp", match: matchCaptureATP, extract: extractCaptureATP},
	{name: "v8-atp", match: matchATP, extract: extractATP},
	{name: "v8-syslog", match: matchKVSyslog, extract: extractSyslogV8},
	{name: "v8-minimal", match: matchMinimal, extract: extractMinimal},
}

func matchCaptureATP(line string) bool {
	return strings.Contains(line, "Capture ATP")
}

var (
	atpFilePattern     = regexp.MustCompile(`file\s+"([^"]+)"`)
	atpHashPattern     = regexp.MustCompile(`sha256=([0-9a-fA-F]{16,64})`)
	atpVerdictPattern  = regexp.MustCompile(`verdict=(\w+)`)
	atpThreatPattern   = regexp.MustCompile(`threat="([^"]+)"`)
	atpDurationPattern = regexp.MustCompile(`duration=([\d.]+m?s)`)
)

func extractCaptureATP(line string, now time.Time) *models.Event {
	e := &models.Event{
		Category: models.CategoryAntivirus,
		Message:  truncate(line, 200),
	}
	if m := atpHashPattern.FindStringSubmatch(line); m != nil {
		e.FileHash = strings.ToLower(m[1])
	}
	if m := atpThreatPattern.FindStringSubmatch(line); m != nil {
		e.ThreatName = m[1]
	}
	if m := atpFilePattern.FindStringSubmatch(line); m != nil && e.Rule == "" {
		e.Rule = "capture-atp:" + m[1]
	}
	if m := atpDurationPattern.FindStringSubmatch(line); m != nil {
		if d, err := time.ParseDuration(m[1]); err == nil {
			e.AnalysisDur = d
		}
	}
	verdict := ""
	if m := atpVerdictPattern.FindStringSubmatch(line); m != nil {
		verdict = strings.ToLower(m[1])
	}
	switch verdict {
	case "clean", "benign":
		e.Action = models.ActionAllow
		e.Severity = models.SeverityInfo
	case "malicious":
		e.Action = models.ActionDeny
		e.Severity = models.SeverityCritical
	case "suspicious":
		e.Action = models.ActionDeny
		e.Severity = models.SeverityHigh
	default:
		// Unknown verdicts stay fail-closed via the finalize default.
		e.Severity = models.SeverityMedium
	}
	ips := ScanIPv4(line)
	if len(ips) > 0 {
		e.SourceAddr = ips[0]
	}
	if len(ips) > 1 {
		e.DestAddr = ips[1]
	}
	return finalize(e, line, now)
}

func matchATP(line string) bool {
	return strings.Contains(line, "ATP Analysis") || strings.HasPrefix(line, "ATP:")
}

func extractATP(line string, now time.Time) *models.Event {
	e := &models.Event{
		Category: models.CategoryAntivirus,
		Severity: models.SeverityMedium,
		Message:  truncate(line, 200),
	}
	if m := atpVerdictPattern.FindStringSubmatch(line); m != nil {
		switch strings.ToLower(m[1]) {
		case "clean", "benign":
			e.Action = models.ActionAllow
			e.Severity = models.SeverityInfo
		case "malicious":
			e.Action = models.ActionDeny
			e.Severity = models.SeverityCritical
		case "suspicious":
			e.Action = models.ActionDeny
			e.Severity = models.SeverityHigh
		}
	}
	if m := atpThreatPattern.FindStringSubmatch(line); m != nil {
		e.ThreatName = m[1]
	}
	ips := ScanIPv4(line)
	if len(ips) > 0 {
		e.SourceAddr = ips[0]
	}
	if len(ips) > 1 {
		e.DestAddr = ips[1]
	}
	return finalize(e, line, now)
}

func extractSyslogV8(line string, now time.Time) *models.Event {
	return extractKVSyslog(line, now, true)
}
