package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgegate-systems/fwbridge/internal/cache"
	"github.com/ridgegate-systems/fwbridge/internal/logging"
	"github.com/ridgegate-systems/fwbridge/internal/models"
	"github.com/ridgegate-systems/fwbridge/internal/service"
	"github.com/ridgegate-systems/fwbridge/internal/session"
)

type stubRetriever struct {
	events       []models.Event
	eventsErr    error
	threats      []models.Threat
	threatsErr   error
	counters     *models.SystemCounters
	connectivity *models.ConnectivityResult
}

func (s *stubRetriever) GetLogs(context.Context, *models.EventFilter) ([]models.Event, error) {
	return s.events, s.eventsErr
}

func (s *stubRetriever) GetThreats(context.Context) ([]models.Threat, error) {
	return s.threats, s.threatsErr
}

func (s *stubRetriever) GetSystemStats(context.Context) (*models.SystemCounters, error) {
	if s.counters != nil {
		return s.counters, nil
	}
	return &models.SystemCounters{}, nil
}

func (s *stubRetriever) TestConnectivity(context.Context) *models.ConnectivityResult {
	if s.connectivity != nil {
		return s.connectivity
	}
	return &models.ConnectivityResult{Success: true, Message: "ok"}
}

func newTestHandler(t *testing.T, r service.Retriever) *Handler {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	return New(service.New(r, store, logger))
}

func TestEventsDefaultsToLastHour(t *testing.T) {
	r := &stubRetriever{events: []models.Event{{
		ID: "e-1", Timestamp: time.Now().UTC(),
		Action: models.ActionDeny, Severity: models.SeverityHigh,
		Category: models.CategoryFirewall,
	}}}
	h := newTestHandler(t, r)

	rec := httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []models.Event `json:"events"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "e-1", body.Events[0].ID)
}

func TestEventsExplicitWindow(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/events?start=2024-01-15T10:00:00Z&end=1705316400", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventsRejectsMalformedTimestamps(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?start=yesterday&end=now", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsRejectsInvertedWindow(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/events?start=2024-01-15T11:00:00Z&end=2024-01-15T10:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsRejectsInvalidSeverity(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?severities=high,bogus", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid severity")
}

func TestEventsRejectsInvalidPort(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?port=-1", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsRejectsNonGet(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})

	rec := httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEventsAuthFailureMapsToBadGateway(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{eventsErr: session.ErrAuthFailed})

	rec := httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot authenticate")
}

func TestThreats(t *testing.T) {
	r := &stubRetriever{threats: []models.Threat{
		{ID: "t-1", Type: models.ThreatMalware, Blocked: true},
	}}
	h := newTestHandler(t, r)

	rec := httptest.NewRecorder()
	h.Threats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/threats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestStats(t *testing.T) {
	r := &stubRetriever{counters: &models.SystemCounters{
		TotalConnections: 50, BlockedConnections: 10, AllowedConnections: 40,
	}}
	h := newTestHandler(t, r)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.AggregateStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 50, stats.TotalConnections)
}

func TestConnectivityStatusCodes(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})
	rec := httptest.NewRecorder()
	h.Connectivity(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = newTestHandler(t, &stubRetriever{
		connectivity: &models.ConnectivityResult{Success: false, Message: "unreachable"},
	})
	rec = httptest.NewRecorder()
	h.Connectivity(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthProbe(t *testing.T) {
	h := newTestHandler(t, &stubRetriever{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
