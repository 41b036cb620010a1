package appliance

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// placeholderBatchSize bounds the synthetic batch served during an
// outage; there is no point mimicking a full result.
const placeholderBatchSize = 10

const placeholderNote = "placeholder entry: appliance temporarily unavailable"

// placeholderEvents synthesizes a clearly-labeled event batch for the
// unrecoverable-failure path. Every event carries the Placeholder
// marker and an explanatory message so callers can distinguish it from
// real appliance data.
func placeholderEvents(limit int) []models.Event {
	n := placeholderBatchSize
	if limit < n {
		n = limit
	}
	faker := gofakeit.New(0)
	now := time.Now().UTC()

	events := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		port := faker.IntRange(1024, 65535)
		dstPort := faker.IntRange(1, 1023)
		events = append(events, models.Event{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-time.Duration(i) * time.Minute),
			Severity:    models.SeverityInfo,
			Category:    models.CategoryFirewall,
			Action:      models.ActionDeny,
			SourceAddr:  faker.IPv4Address(),
			DestAddr:    faker.IPv4Address(),
			SourcePort:  &port,
			DestPort:    &dstPort,
			Protocol:    models.ProtocolTCP,
			Rule:        "placeholder",
			Message:     placeholderNote,
			Raw:         placeholderNote,
			Placeholder: true,
		})
	}
	return events
}

// placeholderThreats synthesizes a labeled threat batch for the
// unrecoverable-failure path.
func placeholderThreats() []models.Threat {
	faker := gofakeit.New(0)
	now := time.Now().UTC()

	threats := make([]models.Threat, 0, 3)
	for i := 0; i < 3; i++ {
		threats = append(threats, models.Threat{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-time.Duration(i) * time.Minute),
			Severity:    models.SeverityLow,
			Type:        models.ThreatSuspicious,
			Name:        fmt.Sprintf("placeholder-threat-%d", i+1),
			SourceAddr:  faker.IPv4Address(),
			DestAddr:    faker.IPv4Address(),
			Blocked:     true,
			Message:     placeholderNote,
			Raw:         placeholderNote,
			Placeholder: true,
		})
	}
	return threats
}

// placeholderCounters synthesizes labeled system counters for the
// unrecoverable-failure path.
func placeholderCounters() *models.SystemCounters {
	return &models.SystemCounters{Placeholder: true}
}
