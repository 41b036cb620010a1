package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

var testClock = func() time.Time {
	return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
}

func newV7Engine() *Engine {
	return NewEngine(DialectV7, WithClock(testClock))
}

func TestV7SyslogPriorityAndCategoryCodes(t *testing.T) {
	// Priority code 1 and category code 3 with no action keyword in
	// the message: severity critical, category ips, action deny.
	line := `time="2024-01-15 10:30:45" fw=203.0.113.1 pri=1 c=3 m=609 msg="Probe of inside host" src=10.0.0.5:52431:X0 dst=192.0.2.10:80:X1 proto=tcp rule="5 (LAN->WAN)"`

	e := newV7Engine().ParseLine(line)
	require.NotNil(t, e)
	assert.Equal(t, models.SeverityCritical, e.Severity)
	assert.Equal(t, models.CategoryIPS, e.Category)
	assert.Equal(t, models.ActionDeny, e.Action)
	assert.Equal(t, "10.0.0.5", e.SourceAddr)
	assert.Equal(t, "192.0.2.10", e.DestAddr)
	require.NotNil(t, e.SourcePort)
	assert.Equal(t, 52431, *e.SourcePort)
	require.NotNil(t, e.DestPort)
	assert.Equal(t, 80, *e.DestPort)
	assert.Equal(t, models.ProtocolTCP, e.Protocol)
	assert.Equal(t, "5 (LAN->WAN)", e.Rule)
	assert.Equal(t, "Probe of inside host", e.Message)
	assert.Equal(t, line, e.Raw)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), e.Timestamp)
}

func TestV7SyslogActionFromMessage(t *testing.T) {
	line := `time="2024-01-15 10:31:02" pri=6 c=1 msg="Connection allowed" src=10.0.0.7:1234 dst=8.8.8.8:53 proto=udp/dns`

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, models.ActionAllow, e.Action)
	assert.Equal(t, models.SeverityInfo, e.Severity)
	assert.Equal(t, models.CategoryFirewall, e.Category)
	assert.Equal(t, models.ProtocolUDP, e.Protocol)
}

func TestV7VPNPattern(t *testing.T) {
	line := `Jan 15 10:32:11 IKE negotiation aborted: VPN policy "Office" peer 203.0.113.7 local 198.51.100.2 timeout`

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, models.CategoryVPN, e.Category)
	assert.Equal(t, models.ActionDeny, e.Action)
	assert.Equal(t, models.SeverityMedium, e.Severity)
	assert.Equal(t, "Office", e.Rule)
	assert.Equal(t, "203.0.113.7", e.SourceAddr)
	assert.Equal(t, "198.51.100.2", e.DestAddr)
}

func TestV7VPNEstablished(t *testing.T) {
	line := `IKE SA established: VPN policy "Branch" peer 203.0.113.9 local 198.51.100.2`

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, models.ActionAllow, e.Action)
	assert.Equal(t, models.SeverityInfo, e.Severity)
}

func TestV7IPSPattern(t *testing.T) {
	line := `IPS Detection Alert: WEB-ATTACKS suspicious request, SID: 4027, Priority: 2, src 10.0.0.5:52431 dst 192.0.2.10:80, proto TCP, packet dropped`

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, models.CategoryIPS, e.Category)
	assert.Equal(t, models.SeverityHigh, e.Severity)
	assert.Equal(t, models.ActionDrop, e.Action)
	assert.Equal(t, "SID:4027", e.Rule)
	assert.Equal(t, "10.0.0.5", e.SourceAddr)
	require.NotNil(t, e.DestPort)
	assert.Equal(t, 80, *e.DestPort)
	assert.Equal(t, models.ProtocolTCP, e.Protocol)
}

func TestV7IPSBeatsSyslog(t *testing.T) {
	// A line matching both the IPS pattern and the key=value form goes
	// to the more specific IPS extractor.
	line := `IPS Detection Alert: SID: 99, Priority: 1, src 10.0.0.1:10 dst 10.0.0.2:20, src=ignored dst=ignored`

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, models.CategoryIPS, e.Category)
	assert.Equal(t, "10.0.0.1", e.SourceAddr)
}

func TestV7MinimalPattern(t *testing.T) {
	line := "DENY TCP 172.16.0.4 -> 198.51.100.20"

	e := newV7Engine().ParseLine(line)
	assert.Equal(t, models.ActionDeny, e.Action)
	assert.Equal(t, models.CategoryFirewall, e.Category)
	assert.Equal(t, "172.16.0.4", e.SourceAddr)
	assert.Equal(t, "198.51.100.20", e.DestAddr)
}

func TestV7MinimalAllow(t *testing.T) {
	e := newV7Engine().ParseLine("ALLOW 10.1.1.1 to 10.2.2.2")
	assert.Equal(t, models.ActionAllow, e.Action)
}
