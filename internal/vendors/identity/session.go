package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

// The vendor does not publish a token lifetime; tokens are short-lived, so
// the cache expiry stays well inside the observed validity window.
const sessionTTL = 5 * time.Minute

// Session is the ephemeral authenticated context for one call chain.
type Session struct {
	Token      string
	AcquiredAt time.Time
}

// sessionManager caches a login token behind a mutex and re-authenticates
// only when the cached token has expired or was invalidated by a 401.
type sessionManager struct {
	client *Client

	mu      sync.Mutex
	current *Session
}

func newSessionManager(client *Client) *sessionManager {
	return &sessionManager{client: client}
}

// Session returns the cached session, logging in first when there is none
// or the cached one has aged out.
func (m *sessionManager) Session(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && time.Since(m.current.AcquiredAt) < sessionTTL {
		return m.current, nil
	}

	session, err := m.login(ctx)
	if err != nil {
		return nil, err
	}
	m.current = session
	return session, nil
}

// Invalidate drops the cached session so the next call re-authenticates.
func (m *sessionManager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *sessionManager) login(ctx context.Context) (*Session, error) {
	c := m.client
	url := fmt.Sprintf("%s/otv/token/v1/login/%s/%s", c.baseURL, c.loginID, c.username)

	payload, err := json.Marshal(map[string]interface{}{
		"serviceAccount": true,
		"password":       c.password,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("identity: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, vendors.WrapTransport(Name, "login", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, vendors.WrapTransport(Name, "login", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &vendors.AuthError{Vendor: Name, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var body struct {
		Detail struct {
			Token string `json:"token"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &vendors.AuthError{Vendor: Name, Reason: "malformed login response", Err: err}
	}
	if body.Detail.Token == "" {
		return nil, &vendors.AuthError{Vendor: Name, Reason: "login response carried no token"}
	}

	c.logger.Debug("identity vendor session acquired", zap.String("vendor", Name))
	return &Session{Token: body.Detail.Token, AcquiredAt: time.Now()}, nil
}
