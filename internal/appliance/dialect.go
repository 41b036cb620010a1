// Package appliance implements the authenticated retrieval client for
// the RidgeGate firewall API, covering both supported dialects.
package appliance

import (
	"strconv"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
	"github.com/ridgegate-systems/fwbridge/internal/normalize"
)

// dialectSpec captures everything that differs between the two API
// generations: endpoint paths and query parameter names. It is
// resolved once at client construction.
type dialectSpec struct {
	authPath    string
	logsPath    string
	threatsPath string
	statsPath   string
	pingPath    string

	paramStart    string
	paramEnd      string
	paramCategory string
	paramLimit    string

	// timeFormat encodes window bounds; v7 predates RFC3339 support.
	timeFormat func(time.Time) string
}

var v7Spec = dialectSpec{
	authPath:    "/api/v7/auth",
	logsPath:    "/api/v7/log/view",
	threatsPath: "/api/v7/threats",
	statsPath:   "/api/v7/system/stats",
	pingPath:    "/api/v7/system/status",

	paramStart:    "startTime",
	paramEnd:      "endTime",
	paramCategory: "cat",
	paramLimit:    "max",

	timeFormat: func(t time.Time) string {
		return strconv.FormatInt(t.Unix(), 10)
	},
}

var v8Spec = dialectSpec{
	authPath:    "/api/v8/auth/login",
	logsPath:    "/api/v8/logs",
	threatsPath: "/api/v8/threats",
	statsPath:   "/api/v8/system/statistics",
	pingPath:    "/api/v8/system/health",

	paramStart:    "from",
	paramEnd:      "to",
	paramCategory: "category",
	paramLimit:    "limit",

	timeFormat: func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}

func specFor(d normalize.Dialect) dialectSpec {
	if d == normalize.DialectV8 {
		return v8Spec
	}
	return v7Spec
}

// queryParams translates a filter into the dialect's parameter names.
// The limit is clamped to the hard ceiling here, independent of what
// the caller asked for.
func (s dialectSpec) queryParams(f *models.EventFilter) map[string]string {
	params := map[string]string{
		s.paramStart: s.timeFormat(f.StartTime),
		s.paramEnd:   s.timeFormat(f.EndTime),
		s.paramLimit: strconv.Itoa(f.EffectiveLimit()),
	}
	if f.Category != "" {
		params[s.paramCategory] = string(f.Category)
	}
	return params
}
