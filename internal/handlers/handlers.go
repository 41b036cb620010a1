// Package handlers exposes the bridge operations over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/httputil"
	"github.com/ridgegate-systems/fwbridge/internal/models"
	"github.com/ridgegate-systems/fwbridge/internal/normalize"
	"github.com/ridgegate-systems/fwbridge/internal/service"
	"github.com/ridgegate-systems/fwbridge/internal/session"
)

// Handler serves the bridge API.
type Handler struct {
	bridge *service.Bridge
}

// New constructs a Handler.
func New(bridge *service.Bridge) *Handler {
	return &Handler{bridge: bridge}
}

// Events handles GET /api/v1/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.bridge.GetEvents(r.Context(), filter)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// Threats handles GET /api/v1/threats.
func (h *Handler) Threats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	threats, err := h.bridge.GetThreats(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"threats": threats,
		"count":   len(threats),
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.bridge.GetAggregateStats(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// Connectivity handles GET /api/v1/health, reporting appliance
// reachability.
func (h *Handler) Connectivity(w http.ResponseWriter, r *http.Request) {
	result := h.bridge.TestConnectivity(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, result)
}

// Health handles the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles the readiness probe; ready means the appliance
// responds within a short deadline.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	h.Connectivity(w, r.WithContext(ctx))
}

func writeBridgeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrAuthFailed):
		httputil.WriteError(w, http.StatusBadGateway, "cannot authenticate against appliance")
	case errors.Is(err, models.ErrInvertedWindow), errors.Is(err, models.ErrEmptyWindow):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// filterFromQuery decodes the event filter from query parameters.
// Timestamps accept RFC3339 or epoch seconds; start/end default to the
// last hour when both are absent.
func filterFromQuery(r *http.Request) (*models.EventFilter, error) {
	q := r.URL.Query()
	filter := &models.EventFilter{
		Category:   models.Category(q.Get("category")),
		SourceAddr: q.Get("source"),
		DestAddr:   q.Get("destination"),
		Action:     models.Action(q.Get("action")),
		Limit:      httputil.ParseIntParam(q.Get("limit"), 0),
	}

	if q.Get("start") == "" && q.Get("end") == "" {
		now := time.Now().UTC()
		filter.StartTime = now.Add(-time.Hour)
		filter.EndTime = now
	} else {
		start, ok := normalize.ParseTimestamp(q.Get("start"))
		if !ok {
			return nil, errors.New("invalid start time")
		}
		end, ok := normalize.ParseTimestamp(q.Get("end"))
		if !ok {
			return nil, errors.New("invalid end time")
		}
		filter.StartTime = start
		filter.EndTime = end
	}

	if port := q.Get("port"); port != "" {
		p := httputil.ParseIntParam(port, -1)
		if p < 0 {
			return nil, errors.New("invalid port")
		}
		filter.Port = &p
	}

	if sevs := q.Get("severities"); sevs != "" {
		for _, s := range strings.Split(sevs, ",") {
			sev := models.Severity(strings.TrimSpace(strings.ToLower(s)))
			if !sev.Valid() {
				return nil, errors.New("invalid severity: " + s)
			}
			filter.Severities = append(filter.Severities, sev)
		}
	}

	return filter, nil
}
