package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// Key builds the deterministic cache key for a logical operation and
// its semantic query parameters. Equal filters always map to the same
// key regardless of how the caller populated them.
func Key(op string, filter *models.EventFilter) string {
	if filter == nil {
		return op
	}

	parts := []string{
		"start=" + strconv.FormatInt(filter.StartTime.UTC().Unix(), 10),
		"end=" + strconv.FormatInt(filter.EndTime.UTC().Unix(), 10),
		"limit=" + strconv.Itoa(filter.EffectiveLimit()),
	}
	if filter.Category != "" {
		parts = append(parts, "cat="+string(filter.Category))
	}
	if filter.SourceAddr != "" {
		parts = append(parts, "src="+filter.SourceAddr)
	}
	if filter.DestAddr != "" {
		parts = append(parts, "dst="+filter.DestAddr)
	}
	if filter.Port != nil {
		parts = append(parts, "port="+strconv.Itoa(*filter.Port))
	}
	if filter.Action != "" {
		parts = append(parts, "action="+string(filter.Action))
	}
	if len(filter.Severities) > 0 {
		sevs := make([]string, 0, len(filter.Severities))
		for _, s := range filter.Severities {
			sevs = append(sevs, string(s))
		}
		sort.Strings(sevs)
		parts = append(parts, "sev="+strings.Join(sevs, ","))
	}

	return fmt.Sprintf("%s?%s", op, strings.Join(parts, "&"))
}

// WindowKey builds a key for operations parameterized only by a time
// window.
func WindowKey(op string, start, end time.Time) string {
	return fmt.Sprintf("%s?start=%d&end=%d", op, start.UTC().Unix(), end.UTC().Unix())
}
