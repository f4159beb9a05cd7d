package loansys

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

const sessionTTL = 5 * time.Minute

// Session is the authenticated context the loan-management system expects on
// every protected call.
type Session struct {
	LoginToken string
	UserID     int64
	BranchID   int64
	MleID      int64
	AcquiredAt time.Time
}

type loginResponse struct {
	ReturnCode   int    `json:"return_code"`
	ReturnReason string `json:"return_reason"`
	LoginToken   string `json:"login_token"`
	UserID       int64  `json:"user_id"`
	BranchID     int64  `json:"branch_id"`
	MleID        int64  `json:"mle_id"`
}

// sessionManager caches the login token behind a mutex and re-authenticates
// when it has expired or was invalidated.
type sessionManager struct {
	client *Client

	mu      sync.Mutex
	current *Session
}

func newSessionManager(client *Client) *sessionManager {
	return &sessionManager{client: client}
}

// Session returns the cached session, logging in first when needed.
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

// Invalidate drops the cached session.
func (m *sessionManager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *sessionManager) login(ctx context.Context) (*Session, error) {
	c := m.client

	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return nil, fmt.Errorf("loansys: marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/MaxIntegrate/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("loansys: build login request: %w", err)
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

	var body loginResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &vendors.AuthError{Vendor: Name, Reason: "malformed login response", Err: err}
	}
	// A non-zero return code is a domain failure regardless of HTTP status.
	if body.ReturnCode != 0 {
		return nil, &vendors.AuthError{Vendor: Name, Reason: body.ReturnReason}
	}
	if body.LoginToken == "" {
		return nil, &vendors.AuthError{Vendor: Name, Reason: "login response carried no token"}
	}

	c.logger.Debug("loan system session acquired",
		zap.Int64("user_id", body.UserID),
		zap.Int64("branch_id", body.BranchID))

	return &Session{
		LoginToken: body.LoginToken,
		UserID:     body.UserID,
		BranchID:   body.BranchID,
		MleID:      body.MleID,
		AcquiredAt: time.Now(),
	}, nil
}
