// Package identity wraps the identity vendor's bearer-token API: demographic
// enquiry, account verification (bureau-avs), cellphone match, deceased
// status and the one-time verification PIN flow.
package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"

	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

// Name is the vendor name written to the audit trail.
const Name = "verifid"

const requestTimeout = 30 * time.Second

// Client is the identity vendor API client. All protected calls go through
// the cached session (see session.go).
type Client struct {
	baseURL  string
	loginID  string
	username string
	password string

	httpClient *http.Client
	logger     *zap.Logger

	sessions *sessionManager
}

// NewClient creates a new identity vendor client
func NewClient(baseURL, loginID, username, password string, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:  baseURL,
		loginID:  loginID,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
	c.sessions = newSessionManager(c)
	return c
}

// envelope is the vendor's common response wrapper. A non-zero code is a
// domain-level answer, not a transport failure.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

// post performs an authenticated POST and returns the raw body plus the
// decoded envelope. Non-2xx statuses other than 401 are returned as errors
// with the body preserved for the audit payload.
func (c *Client) post(ctx context.Context, path string, body interface{}) (*envelope, []byte, error) {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("identity: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, vendors.WrapTransport(Name, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, vendors.WrapTransport(Name, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessions.Invalidate()
		return nil, raw, &vendors.AuthError{Vendor: Name, Reason: "bearer token rejected"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, raw, fmt.Errorf("identity %s: unexpected status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, raw, fmt.Errorf("identity %s: malformed response: %w", path, err)
	}
	return &env, raw, nil
}

// DemographicDetail is the decoded body of a demographic enquiry.
type DemographicDetail struct {
	Verified    bool   `json:"verified"`
	FirstName   string `json:"firstName"`
	Surname     string `json:"surname"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
}

// DemographicEnquiry verifies the subject's demographic record by ID number.
func (c *Client) DemographicEnquiry(ctx context.Context, idNumber string) (*DemographicDetail, []byte, error) {
	env, raw, err := c.post(ctx, "/otv/enquiry/v1/demographic", map[string]string{
		"idNumber": idNumber,
	})
	if err != nil {
		return nil, raw, err
	}
	if env.Code != 0 {
		return nil, raw, fmt.Errorf("identity demographic enquiry rejected: %s (code %d)", env.Message, env.Code)
	}

	var detail DemographicDetail
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return nil, raw, fmt.Errorf("identity demographic enquiry: malformed detail: %w", err)
	}
	return &detail, raw, nil
}

// AccountVerificationRequest carries the fields the bureau-avs endpoint wants.
type AccountVerificationRequest struct {
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
	BranchCode    string `json:"branchCode"`
	AccountType   string `json:"accountType"`
	Bank          string `json:"bank"`
	FirstName     string `json:"firstName"`
	Surname       string `json:"surname"`
}

// AccountVerificationDetail is the decoded bureau-avs answer.
type AccountVerificationDetail struct {
	AccountExists  bool `json:"accountExists"`
	AccountOpen    bool `json:"accountOpen"`
	IDNumberMatch  bool `json:"idNumberMatch"`
	NameMatch      bool `json:"nameMatch"`
	AcceptsCredits bool `json:"acceptsCredits"`
}

// VerifyAccount runs account verification (bureau-avs) for the subject.
func (c *Client) VerifyAccount(ctx context.Context, req AccountVerificationRequest) (*AccountVerificationDetail, []byte, error) {
	env, raw, err := c.post(ctx, "/otv/enquiry/v1/bureau-avs", req)
	if err != nil {
		return nil, raw, err
	}
	if env.Code != 0 {
		return nil, raw, fmt.Errorf("identity account verification rejected: %s (code %d)", env.Message, env.Code)
	}

	var detail AccountVerificationDetail
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return nil, raw, fmt.Errorf("identity account verification: malformed detail: %w", err)
	}
	return &detail, raw, nil
}

// CellphoneMatchDetail is the decoded cellphone match answer. Score is a
// 0-100 confidence value.
type CellphoneMatchDetail struct {
	Match bool `json:"match"`
	Score int  `json:"score"`
}

// CellphoneMatch checks whether the cellphone number is linked to the ID.
func (c *Client) CellphoneMatch(ctx context.Context, idNumber, cellphoneNumber string) (*CellphoneMatchDetail, []byte, error) {
	env, raw, err := c.post(ctx, "/otv/enquiry/v1/cellphone", map[string]string{
		"idNumber":        idNumber,
		"cellphoneNumber": cellphoneNumber,
	})
	if err != nil {
		return nil, raw, err
	}
	if env.Code != 0 {
		return nil, raw, fmt.Errorf("identity cellphone match rejected: %s (code %d)", env.Message, env.Code)
	}

	var detail CellphoneMatchDetail
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return nil, raw, fmt.Errorf("identity cellphone match: malformed detail: %w", err)
	}
	return &detail, raw, nil
}

// CodeServiceUnavailable is the vendor code meaning the upstream deceased
// status service itself is down. Callers must surface this as a distinct
// "temporarily unavailable" condition rather than a generic failure.
const CodeServiceUnavailable = 10084

// DeceasedStatusDetail is the decoded deceased status answer.
type DeceasedStatusDetail struct {
	Deceased    bool   `json:"deceased"`
	DateOfDeath string `json:"dateOfDeath,omitempty"`
}

// DeceasedStatusResponse pairs the vendor code with the decoded detail so
// callers can distinguish the unavailable condition.
type DeceasedStatusResponse struct {
	Code    int
	Message string
	Detail  *DeceasedStatusDetail
}

// DeceasedStatus checks the national deceased register for the subject.
// The request purpose and source are fixed by the vendor contract.
func (c *Client) DeceasedStatus(ctx context.Context, idNumber string) (*DeceasedStatusResponse, []byte, error) {
	env, raw, err := c.post(ctx, "/otv/enquiry/v1/deceased", map[string]string{
		"idNumber": idNumber,
		"purpose":  "credit_application",
		"source":   "home_affairs",
	})
	if err != nil {
		return nil, raw, err
	}

	out := &DeceasedStatusResponse{Code: env.Code, Message: env.Message}
	if env.Code != 0 {
		return out, raw, nil
	}

	var detail DeceasedStatusDetail
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return nil, raw, fmt.Errorf("identity deceased status: malformed detail: %w", err)
	}
	out.Detail = &detail
	return out, raw, nil
}

// PinDetail is the decoded request-pin answer.
type PinDetail struct {
	Pin         string `json:"pin"`
	ReferenceID string `json:"referenceId"`
}

// RequestPin starts a one-time (liveness/selfie) verification and returns
// the PIN protecting the verification link.
func (c *Client) RequestPin(ctx context.Context, idNumber, cellphoneNumber string) (*PinDetail, []byte, error) {
	env, raw, err := c.post(ctx, "/otv/pin/v1/request", map[string]string{
		"idNumber":        idNumber,
		"cellphoneNumber": cellphoneNumber,
	})
	if err != nil {
		return nil, raw, err
	}
	if env.Code != 0 {
		return nil, raw, fmt.Errorf("identity pin request rejected: %s (code %d)", env.Message, env.Code)
	}

	var detail PinDetail
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return nil, raw, fmt.Errorf("identity pin request: malformed detail: %w", err)
	}
	return &detail, raw, nil
}

// PinResultsResponse is the decoded results-poll answer. A non-zero code is
// a verification failure, not a transport failure.
type PinResultsResponse struct {
	Code       int
	Message    string
	Status     string
	MatchScore float64
}

// PinResults polls the outcome of a one-time verification by its PIN.
func (c *Client) PinResults(ctx context.Context, idNumber, pin string) (*PinResultsResponse, []byte, error) {
	env, raw, err := c.post(ctx, "/otv/pin/v1/results", map[string]string{
		"idNumber": idNumber,
		"pin":      pin,
	})
	if err != nil {
		return nil, raw, err
	}

	out := &PinResultsResponse{Code: env.Code, Message: env.Message}
	if env.Code != 0 {
		return out, raw, nil
	}

	var detail struct {
		Status     string  `json:"status"`
		MatchScore float64 `json:"matchScore"`
	}
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return nil, raw, fmt.Errorf("identity pin results: malformed detail: %w", err)
	}
	out.Status = detail.Status
	out.MatchScore = detail.MatchScore
	return out, raw, nil
}
