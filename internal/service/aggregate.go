package service

import (
	"sort"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

const topN = 5

// aggregate builds the stats summary from the appliance counters plus
// the normalized events and threats. Counter totals prefer the
// appliance's own numbers; when those are placeholder data the event
// batch fills in.
func aggregate(counters *models.SystemCounters, events []models.Event, threats []models.Threat) *models.AggregateStats {
	stats := &models.AggregateStats{
		TotalConnections:   counters.TotalConnections,
		BlockedConnections: counters.BlockedConnections,
		AllowedConnections: counters.AllowedConnections,
		Degraded:           counters.Placeholder || degradedEvents(events),
	}

	blockedBySource := make(map[string]int)
	allowedBySource := make(map[string]int)
	byPort := make(map[int]int)
	eventTotal, eventBlocked, eventAllowed := 0, 0, 0

	for i := range events {
		e := &events[i]
		eventTotal++
		if e.Action == models.ActionAllow {
			eventAllowed++
			if e.SourceAddr != models.UnknownAddress {
				allowedBySource[e.SourceAddr]++
			}
		} else {
			eventBlocked++
			if e.SourceAddr != models.UnknownAddress {
				blockedBySource[e.SourceAddr]++
			}
		}
		if e.DestPort != nil {
			byPort[*e.DestPort]++
		}
	}

	if stats.TotalConnections == 0 {
		stats.TotalConnections = eventTotal
		stats.BlockedConnections = eventBlocked
		stats.AllowedConnections = eventAllowed
	}

	stats.TopBlockedAddresses = topAddresses(blockedBySource)
	stats.TopAllowedAddresses = topAddresses(allowedBySource)
	stats.PortSummary = topPorts(byPort)
	stats.ThreatSummary = threatSummary(threats)
	return stats
}

func topAddresses(counts map[string]int) []models.AddressCount {
	out := make([]models.AddressCount, 0, len(counts))
	for addr, count := range counts {
		out = append(out, models.AddressCount{Address: addr, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Address < out[j].Address
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topPorts(counts map[int]int) []models.PortCount {
	out := make([]models.PortCount, 0, len(counts))
	for port, count := range counts {
		out = append(out, models.PortCount{Port: port, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Port < out[j].Port
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func threatSummary(threats []models.Threat) []models.ThreatCount {
	counts := make(map[models.ThreatType]int)
	for i := range threats {
		if threats[i].Placeholder {
			continue
		}
		counts[threats[i].Type]++
	}
	out := make([]models.ThreatCount, 0, len(counts))
	for typ, count := range counts {
		out = append(out, models.ThreatCount{Type: typ, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
