package appliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/logging"
	"github.com/ridgegate-systems/fwbridge/internal/metrics"
	"github.com/ridgegate-systems/fwbridge/internal/models"
	"github.com/ridgegate-systems/fwbridge/internal/normalize"
	"github.com/ridgegate-systems/fwbridge/internal/session"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetryAfter = 2 * time.Second
	maxRetryAfter     = 30 * time.Second
)

// Config holds the retrieval client configuration. Dialect selection
// is static: it is fixed here and never renegotiated per call.
type Config struct {
	BaseURL  string
	Dialect  normalize.Dialect
	Username string
	Password string
	Timeout  time.Duration
}

// Client retrieves logs, threats and system stats from the appliance,
// applying the session, retry and degradation policy around each raw
// call. On unrecoverable failures it degrades to clearly-labeled
// placeholder results instead of propagating errors, keeping dependent
// tooling responsive during appliance outages.
type Client struct {
	baseURL    string
	spec       dialectSpec
	httpClient *http.Client
	sessions   *session.Manager
	engine     *normalize.Engine
	logger     *slog.Logger

	// sleep is swapped out by tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Client and its session manager.
func New(cfg Config, engine *normalize.Engine, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	spec := specFor(cfg.Dialect)

	auth := &Authenticator{
		baseURL:    cfg.BaseURL,
		spec:       spec,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		spec:       spec,
		httpClient: httpClient,
		sessions:   session.NewManager(auth, cfg.Dialect),
		engine:     engine,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Sessions exposes the session manager, mainly for tests.
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// GetLogs retrieves and normalizes log events for the filter window.
// The returned slice is sorted most recent first. It never returns an
// error other than session.ErrAuthFailed; other failures degrade to a
// placeholder batch.
func (c *Client) GetLogs(ctx context.Context, filter *models.EventFilter) ([]models.Event, error) {
	body, err := c.get(ctx, "logs", c.spec.logsPath, c.spec.queryParams(filter))
	if err != nil {
		if isAuthFailure(err) {
			return nil, err
		}
		c.logger.WarnContext(ctx, "log retrieval failed, serving placeholder batch", logging.Operation("logs"), slog.Any("error", err))
		metrics.PlaceholderResults.WithLabelValues("logs").Inc()
		return placeholderEvents(filter.EffectiveLimit()), nil
	}

	events, err := c.decodeLogPayload(body)
	if err != nil {
		c.logger.WarnContext(ctx, "malformed log payload, serving placeholder batch", logging.Operation("logs"), slog.Any("error", err))
		metrics.PlaceholderResults.WithLabelValues("logs").Inc()
		return placeholderEvents(filter.EffectiveLimit()), nil
	}
	return events, nil
}

// GetThreats retrieves and normalizes the current threat records.
func (c *Client) GetThreats(ctx context.Context) ([]models.Threat, error) {
	body, err := c.get(ctx, "threats", c.spec.threatsPath, nil)
	if err != nil {
		if isAuthFailure(err) {
			return nil, err
		}
		c.logger.WarnContext(ctx, "threat retrieval failed, serving placeholder batch", logging.Operation("threats"), slog.Any("error", err))
		metrics.PlaceholderResults.WithLabelValues("threats").Inc()
		return placeholderThreats(), nil
	}

	var payload struct {
		Threats []map[string]any `json:"threats"`
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.WarnContext(ctx, "malformed threat payload, serving placeholder batch", logging.Operation("threats"), slog.Any("error", err))
		metrics.PlaceholderResults.WithLabelValues("threats").Inc()
		return placeholderThreats(), nil
	}
	records := payload.Threats
	if records == nil {
		records = payload.Entries
	}
	return c.engine.ParseThreatRecords(records), nil
}

// GetSystemStats retrieves the appliance's connection counters.
func (c *Client) GetSystemStats(ctx context.Context) (*models.SystemCounters, error) {
	body, err := c.get(ctx, "stats", c.spec.statsPath, nil)
	if err != nil {
		if isAuthFailure(err) {
			return nil, err
		}
		c.logger.WarnContext(ctx, "stats retrieval failed, serving placeholder counters", logging.Operation("stats"), slog.Any("error", err))
		metrics.PlaceholderResults.WithLabelValues("stats").Inc()
		return placeholderCounters(), nil
	}

	var counters models.SystemCounters
	if err := json.Unmarshal(body, &counters); err != nil {
		c.logger.WarnContext(ctx, "malformed stats payload, serving placeholder counters", logging.Operation("stats"), slog.Any("error", err))
		metrics.PlaceholderResults.WithLabelValues("stats").Inc()
		return placeholderCounters(), nil
	}
	return &counters, nil
}

// TestConnectivity probes the appliance health endpoint. It reports
// rather than errors, for use in health endpoints.
func (c *Client) TestConnectivity(ctx context.Context) *models.ConnectivityResult {
	_, err := c.get(ctx, "ping", c.spec.pingPath, nil)
	if err != nil {
		return &models.ConnectivityResult{
			Success: false,
			Message: fmt.Sprintf("appliance unreachable: %v", err),
		}
	}
	return &models.ConnectivityResult{
		Success: true,
		Message: fmt.Sprintf("appliance reachable (dialect %s)", c.engine.Dialect()),
	}
}

// get issues one authenticated GET, applying the full call policy:
// ensure a session, re-authenticate exactly once on a 401, wait and
// retry once on a 429. The two retry budgets are independent.
func (c *Client) get(ctx context.Context, op, path string, params map[string]string) ([]byte, error) {
	if err := c.sessions.Ensure(ctx); err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, ensureOutcome(err)).Inc()
		return nil, err
	}

	reauthBudget := 1
	rateBudget := 1
	for {
		status, body, err := c.doOnce(ctx, path, params)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues(op, "network_error").Inc()
			return nil, err
		}

		switch {
		case status == http.StatusOK:
			metrics.UpstreamRequests.WithLabelValues(op, "ok").Inc()
			return body, nil

		case status == http.StatusUnauthorized:
			if reauthBudget == 0 {
				metrics.UpstreamRequests.WithLabelValues(op, "auth_error").Inc()
				return nil, fmt.Errorf("%w: credential rejected twice", session.ErrAuthFailed)
			}
			reauthBudget--
			c.sessions.Invalidate()
			metrics.Reauthentications.Inc()
			if err := c.sessions.Ensure(ctx); err != nil {
				metrics.UpstreamRequests.WithLabelValues(op, ensureOutcome(err)).Inc()
				return nil, err
			}

		case status == http.StatusTooManyRequests:
			if rateBudget == 0 {
				metrics.UpstreamRequests.WithLabelValues(op, "rate_limited").Inc()
				return nil, fmt.Errorf("rate limited after retry")
			}
			rateBudget--
			metrics.RateLimitWaits.Inc()
			if err := c.sleep(ctx, c.retryAfter(body)); err != nil {
				return nil, err
			}

		default:
			metrics.UpstreamRequests.WithLabelValues(op, "http_error").Inc()
			return nil, fmt.Errorf("appliance response status %d", status)
		}
	}
}

func (c *Client) doOnce(ctx context.Context, path string, params map[string]string) (int, []byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return 0, nil, fmt.Errorf("build url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	c.sessions.Attach(request)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		// Propagate the Retry-After header through the body slot.
		return resp.StatusCode, []byte(resp.Header.Get("Retry-After")), nil
	}
	return resp.StatusCode, body, nil
}

// retryAfter interprets an upstream Retry-After value in seconds,
// bounded by maxRetryAfter, defaulting when unspecified or malformed.
func (c *Client) retryAfter(header []byte) time.Duration {
	seconds, err := strconv.Atoi(string(header))
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRetryAfter {
		return maxRetryAfter
	}
	return wait
}

// decodeLogPayload handles the two payload shapes the log endpoints
// emit: arrays of raw syslog strings and arrays of structured objects,
// possibly mixed.
func (c *Client) decodeLogPayload(body []byte) ([]models.Event, error) {
	var payload struct {
		Logs    []json.RawMessage `json:"logs"`
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode log payload: %w", err)
	}
	items := payload.Logs
	if items == nil {
		items = payload.Entries
	}
	if items == nil {
		return nil, fmt.Errorf("log payload missing entries")
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		var line string
		if err := json.Unmarshal(item, &line); err != nil {
			// Structured object; feed the JSON text through the same
			// chain, which attempts structured parsing first.
			line = string(item)
		}
		lines = append(lines, line)
	}
	return c.engine.ParseBatch(lines), nil
}

func isAuthFailure(err error) bool {
	return errors.Is(err, session.ErrAuthFailed)
}

// ensureOutcome distinguishes a rejected credential from a failure to
// reach the auth endpoint at all.
func ensureOutcome(err error) string {
	if isAuthFailure(err) {
		return "auth_error"
	}
	return "network_error"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
