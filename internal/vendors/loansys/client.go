// Package loansys wraps the external loan-management system: login,
// client_create, create_loan_application and multipart file_upload. The
// system answers HTTP 200 even for rejections; return_code carries the
// real outcome.
package loansys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

// Name is the vendor name written to the audit trail and logs.
const Name = "maxintegrate"

const requestTimeout = 30 * time.Second

// Client is the loan-management system API client
type Client struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	logger     *zap.Logger

	sessions *sessionManager
}

// NewClient creates a new loan-management system client
func NewClient(baseURL, username, password string, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:  baseURL,
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

// Session exposes the cached session for callers that need the identifiers.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	return c.sessions.Session(ctx)
}

// ValidationErrors maps offending payload fields to the vendor's messages.
type ValidationErrors map[string]string

// Response is the common answer shape for protected calls.
type Response struct {
	ReturnCode       int              `json:"return_code"`
	ReturnReason     string           `json:"return_reason"`
	ClientNo         string           `json:"client_no,omitempty"`
	LoanNo           string           `json:"loan_no,omitempty"`
	ValidationErrors ValidationErrors `json:"validation_errors,omitempty"`
}

// authFields injects the session identifiers every protected call requires.
func authFields(session *Session, payload map[string]interface{}) map[string]interface{} {
	payload["mle_id"] = session.MleID
	payload["mbr_id"] = session.BranchID
	payload["user_id"] = session.UserID
	payload["login_token"] = session.LoginToken
	return payload
}

func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}) (*Response, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("loansys: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("loansys: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		return nil, raw, &vendors.AuthError{Vendor: Name, Reason: "session rejected"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, raw, fmt.Errorf("loansys %s: unexpected status %d", path, resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, raw, fmt.Errorf("loansys %s: malformed response: %w", path, err)
	}
	return &out, raw, nil
}

// CreateClient registers a client record. The payload must already carry the
// vendor's numeric codes; the response's validation_errors are populated when
// return_code is non-zero because of payload problems.
func (c *Client) CreateClient(ctx context.Context, payload map[string]interface{}) (*Response, []byte, error) {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c.post(ctx, "/MaxIntegrate/client_create", authFields(session, payload))
}

// CreateLoanApplication registers a loan application for an existing client.
func (c *Client) CreateLoanApplication(ctx context.Context, payload map[string]interface{}) (*Response, []byte, error) {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c.post(ctx, "/MaxIntegrate/create_loan_application", authFields(session, payload))
}

// FileUploadRequest describes one document upload.
type FileUploadRequest struct {
	ClientNo     string
	FileTypeCode string
	FileName     string
	Content      []byte
}

// UploadFile pushes one document via multipart form. Session identifiers
// travel as form fields alongside the file part.
func (c *Client) UploadFile(ctx context.Context, req FileUploadRequest) (*Response, error) {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"mle_id":      strconv.FormatInt(session.MleID, 10),
		"mbr_id":      strconv.FormatInt(session.BranchID, 10),
		"user_id":     strconv.FormatInt(session.UserID, 10),
		"login_token": session.LoginToken,
		"client_no":   req.ClientNo,
		"file_type":   req.FileTypeCode,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("loansys: write form field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("loansys: create file part: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, fmt.Errorf("loansys: write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("loansys: finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/MaxIntegrate/file_upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("loansys: build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, vendors.WrapTransport(Name, "file_upload", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, vendors.WrapTransport(Name, "file_upload", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessions.Invalidate()
		return nil, &vendors.AuthError{Vendor: Name, Reason: "session rejected"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("loansys file_upload: unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("loansys file_upload: malformed response: %w", err)
	}
	return &out, nil
}
