package models

import "time"

// Severity buckets for canonical events, ordered from most to least severe.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityRank orders severities for sorting and filtering.
// Higher rank means more severe.
var severityRank = map[Severity]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityMedium:   3,
	SeverityLow:      2,
	SeverityInfo:     1,
}

// Rank returns the numeric order of the severity (critical highest).
// Unknown severities rank below info.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether s is one of the closed severity values.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Category classifies the appliance subsystem that produced an event.
type Category string

const (
	CategoryFirewall  Category = "firewall"
	CategoryVPN       Category = "vpn"
	CategoryIPS       Category = "ips"
	CategoryAntivirus Category = "antivirus"
	CategorySystem    Category = "system"
)

// Action is the verdict the appliance applied to the traffic.
// Ambiguous input normalizes to ActionDeny (fail-closed).
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
	ActionDrop  Action = "drop"
	ActionReset Action = "reset"
)

// Protocol is the transport protocol of the connection, where known.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolICMP  Protocol = "ICMP"
	ProtocolOther Protocol = "OTHER"
)

// UnknownAddress is the sentinel used when a source or destination
// address is absent from the raw record.
const UnknownAddress = "unknown"

// Event is the canonical representation every appliance dialect
// normalizes to. Events are immutable once constructed; Raw always
// holds the original payload verbatim so derived fields stay auditable.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Severity    Severity  `json:"severity"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	SourceAddr  string    `json:"source_address"`
	DestAddr    string    `json:"dest_address"`
	SourcePort  *int      `json:"source_port,omitempty"`
	DestPort    *int      `json:"dest_port,omitempty"`
	Protocol    Protocol  `json:"protocol"`
	Rule        string    `json:"rule"`
	Message     string    `json:"message"`
	Raw         string    `json:"raw"`
	Placeholder bool      `json:"placeholder,omitempty"`

	// Dialect-specific extensions; populated only by the dialect
	// that emits them.
	TenantID    string        `json:"tenant_id,omitempty"`
	CloudID     string        `json:"cloud_id,omitempty"`
	FileHash    string        `json:"file_hash,omitempty"`
	ThreatName  string        `json:"threat_name,omitempty"`
	AnalysisDur time.Duration `json:"analysis_duration,omitempty"`
}

// ThreatType is the closed domain of threat classifications.
type ThreatType string

const (
	ThreatMalware    ThreatType = "malware"
	ThreatIntrusion  ThreatType = "intrusion"
	ThreatBotnet     ThreatType = "botnet"
	ThreatSpam       ThreatType = "spam"
	ThreatSuspicious ThreatType = "suspicious"
)

// Threat is a normalized threat record. Its severity domain is narrower
// than Event's: info-level threats do not exist.
type Threat struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Severity    Severity   `json:"severity"`
	Type        ThreatType `json:"type"`
	Name        string     `json:"name"`
	SourceAddr  string     `json:"source_address"`
	DestAddr    string     `json:"dest_address"`
	Blocked     bool       `json:"blocked"`
	Message     string     `json:"message"`
	Raw         string     `json:"raw"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

// AddressCount pairs an endpoint address with an occurrence count.
type AddressCount struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

// PortCount pairs a destination port with an occurrence count.
type PortCount struct {
	Port  int `json:"port"`
	Count int `json:"count"`
}

// ThreatCount pairs a threat type with an occurrence count.
type ThreatCount struct {
	Type  ThreatType `json:"type"`
	Count int        `json:"count"`
}

// AggregateStats summarizes traffic seen over the queried window.
type AggregateStats struct {
	TotalConnections    int            `json:"total_connections"`
	BlockedConnections  int            `json:"blocked_connections"`
	AllowedConnections  int            `json:"allowed_connections"`
	TopBlockedAddresses []AddressCount `json:"top_blocked_addresses"`
	TopAllowedAddresses []AddressCount `json:"top_allowed_addresses"`
	PortSummary         []PortCount    `json:"port_summary"`
	ThreatSummary       []ThreatCount  `json:"threat_summary"`
	Degraded            bool           `json:"degraded,omitempty"`
}

// SystemCounters are the raw connection counters the appliance's
// system-stats endpoint reports.
type SystemCounters struct {
	TotalConnections   int    `json:"total_connections"`
	BlockedConnections int    `json:"blocked_connections"`
	AllowedConnections int    `json:"allowed_connections"`
	Uptime             string `json:"uptime,omitempty"`
	Placeholder        bool   `json:"placeholder,omitempty"`
}

// ConnectivityResult reports the outcome of an appliance health probe.
type ConnectivityResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
