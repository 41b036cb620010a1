package appliance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/session"
)

// Authenticator exchanges the configured appliance credentials for a
// bearer token. It implements session.Authenticator.
type Authenticator struct {
	baseURL    string
	spec       dialectSpec
	username   string
	password   string
	httpClient *http.Client
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"` // seconds; 0 means unspecified
}

// Authenticate performs the credential exchange against the dialect's
// auth endpoint.
func (a *Authenticator) Authenticate(ctx context.Context) (*session.Token, error) {
	bodyBytes, err := json.Marshal(authRequest{Username: a.username, Password: a.password})
	if err != nil {
		return nil, fmt.Errorf("marshal auth request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+a.spec.authPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("send auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: auth response status %d", session.ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth response status %d", resp.StatusCode)
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("auth response missing token")
	}

	return &session.Token{
		Bearer:    result.Token,
		SessionID: result.SessionID,
		ExpiresIn: time.Duration(result.ExpiresIn) * time.Second,
	}, nil
}
