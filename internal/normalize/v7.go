package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// v7Chain is the detection order for the v7 dialect: VPN and IPS lines
// are more specific than the general key=value syslog form, and the
// bare ALLOW/DENY pattern catches what remains. First match wins.
var v7Chain = []linePattern{
	{name: "v7-vpn", match: matchVPN, extract: extractVPN},
	{name: "v7-ips", match: matchIPS, extract: extractIPS},
	{name: "v7-syslog", match: matchKVSyslog, extract: extractSyslogV7},
	{name: "v7-minimal", match: matchMinimal, extract: extractMinimal},
}

func matchVPN(line string) bool {
	return strings.Contains(line, "IKE") || strings.Contains(line, "VPN policy")
}

var vpnPolicyPattern = regexp.MustCompile(`(?:VPN policy|policy)\s+"([^"]+)"`)

func extractVPN(line string, now time.Time) *models.Event {
	e := &models.Event{
		Category: models.CategoryVPN,
		Protocol: models.ProtocolUDP, // IKE
		Message:  truncate(line, 200),
	}
	ips := ScanIPv4(line)
	if len(ips) > 0 {
		e.SourceAddr = ips[0]
	}
	if len(ips) > 1 {
		e.DestAddr = ips[1]
	}
	if m := vpnPolicyPattern.FindStringSubmatch(line); m != nil {
		e.Rule = m[1]
	}
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "established"), strings.Contains(lower, "succeeded"):
		e.Action = models.ActionAllow
		e.Severity = models.SeverityInfo
	case strings.Contains(lower, "failed"), strings.Contains(lower, "aborted"), strings.Contains(lower, "timeout"):
		e.Action = models.ActionDeny
		e.Severity = models.SeverityMedium
	default:
		if action, ok := ActionFromKeyword(line); ok {
			e.Action = action
		}
	}
	return finalize(e, line, now)
}

func matchIPS(line string) bool {
	return strings.Contains(line, "IPS Detection Alert") ||
		strings.Contains(line, "IPS Prevention Alert")
}

var (
	ipsSIDPattern      = regexp.MustCompile(`SID:\s*(\d+)`)
	ipsPriorityPattern = regexp.MustCompile(`Priority:\s*(\d+)`)
	ipsEndpointPattern = regexp.MustCompile(`\b(src|dst)\s+((?:\d{1,3}\.){3}\d{1,3})(?::(\d+))?`)
)

func extractIPS(line string, now time.Time) *models.Event {
	e := &models.Event{
		Category: models.CategoryIPS,
		Severity: models.SeverityHigh,
		Message:  truncate(line, 200),
	}
	if m := ipsPriorityPattern.FindStringSubmatch(line); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			e.Severity = SeverityFromPriority(code)
		}
	}
	if m := ipsSIDPattern.FindStringSubmatch(line); m != nil {
		e.Rule = "SID:" + m[1]
	}
	for _, m := range ipsEndpointPattern.FindAllStringSubmatch(line, -1) {
		switch m[1] {
		case "src":
			e.SourceAddr = m[2]
			e.SourcePort = CoercePort(m[3])
		case "dst":
			e.DestAddr = m[2]
			e.DestPort = CoercePort(m[3])
		}
	}
	if strings.Contains(strings.ToLower(line), "proto tcp") {
		e.Protocol = models.ProtocolTCP
	} else if strings.Contains(strings.ToLower(line), "proto udp") {
		e.Protocol = models.ProtocolUDP
	}
	if action, ok := ActionFromKeyword(line); ok {
		e.Action = action
	}
	return finalize(e, line, now)
}

func matchKVSyslog(line string) bool {
	return strings.Contains(line, "src=") && strings.Contains(line, "dst=")
}

func extractSyslogV7(line string, now time.Time) *models.Event {
	return extractKVSyslog(line, now, false)
}

// extractKVSyslog handles the appliance's key=value syslog form, which
// both dialects share. The v8 generation additionally carries uuid,
// tenant and cloudId fields.
func extractKVSyslog(line string, now time.Time, enhanced bool) *models.Event {
	fields := parseKV(line)
	e := &models.Event{}

	if ts, ok := ParseTimestamp(fields["time"]); ok {
		e.Timestamp = ts
	}
	if pri, err := strconv.Atoi(fields["pri"]); err == nil {
		e.Severity = SeverityFromPriority(pri)
	}
	if code, err := strconv.Atoi(fields["c"]); err == nil {
		e.Category = CategoryFromCode(code)
	} else if cat := fields["cat"]; cat != "" {
		e.Category = CategoryFromKeyword(cat)
	}

	srcAddr, srcPort := splitEndpoint(fields["src"])
	dstAddr, dstPort := splitEndpoint(fields["dst"])
	e.SourceAddr = srcAddr
	e.DestAddr = dstAddr
	e.SourcePort = CoercePort(srcPort)
	e.DestPort = CoercePort(dstPort)

	if proto := fields["proto"]; proto != "" {
		e.Protocol = ParseProtocol(proto)
	}
	e.Rule = fields["rule"]
	e.Message = fields["msg"]

	// The verdict lives in the message text or an explicit field;
	// absent both, finalize applies the deny default.
	if fwAction := fields["fw_action"]; fwAction != "" {
		if action, ok := ActionFromKeyword(fwAction); ok {
			e.Action = action
		}
	} else if action, ok := ActionFromKeyword(e.Message); ok {
		e.Action = action
	}

	if enhanced {
		e.ID = fields["uuid"]
		e.TenantID = fields["tenant"]
		e.CloudID = fields["cloudId"]
	}
	return finalize(e, line, now)
}

var minimalActionPattern = regexp.MustCompile(`\b(ALLOW|DENY|DROP|RESET)\b`)

func matchMinimal(line string) bool {
	return minimalActionPattern.MatchString(line) && len(ScanIPv4(line)) > 0
}

func extractMinimal(line string, now time.Time) *models.Event {
	e := &models.Event{
		Category: models.CategoryFirewall,
		Message:  truncate(line, 200),
	}
	switch minimalActionPattern.FindString(line) {
	case "ALLOW":
		e.Action = models.ActionAllow
	case "DROP":
		e.Action = models.ActionDrop
	case "RESET":
		e.Action = models.ActionReset
	default:
		e.Action = models.ActionDeny
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
