// Package fraud wraps the fraud "normal search" vendor: a single POST with a
// full demographic payload answered by a completion flag and a base64 ZIP of
// supporting documents.
package fraud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

// Name is the vendor name written to the audit trail.
const Name = "tracescan"

const requestTimeout = 30 * time.Second

// Client is the fraud vendor API client
type Client struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new fraud vendor client
func NewClient(baseURL, username, password string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// SearchRequest is the demographic payload for a normal search.
type SearchRequest struct {
	IDNumber    string `json:"pIdNumber"`
	FirstName   string `json:"pFirstName"`
	Surname     string `json:"pSurname"`
	DateOfBirth string `json:"pDateOfBirth"`
	Address     string `json:"pAddress"`
	HomePhone   string `json:"pHomePhone,omitempty"`
	WorkPhone   string `json:"pWorkPhone,omitempty"`
	CellPhone   string `json:"pCellPhone,omitempty"`
}

// searchPayload adds the fixed search-criteria flags the vendor requires.
type searchPayload struct {
	SearchRequest
	Username        string `json:"pUsername"`
	Password        string `json:"pPassword"`
	SearchID        bool   `json:"pSearchId"`
	SearchName      bool   `json:"pSearchName"`
	SearchAddress   bool   `json:"pSearchAddress"`
	SearchTelephone bool   `json:"pSearchTelephone"`
}

// SearchResponse is the vendor's answer. RetData is a base64-encoded ZIP
// archive of supporting documents, passed through undecoded.
type SearchResponse struct {
	TransactionCompleted bool   `json:"pTransactionCompleted"`
	RetData              string `json:"pRetData"`
}

// NormalSearch runs a fraud normal search for the subject.
func (c *Client) NormalSearch(ctx context.Context, req SearchRequest) (*SearchResponse, []byte, error) {
	payload, err := json.Marshal(searchPayload{
		SearchRequest:   req,
		Username:        c.username,
		Password:        c.password,
		SearchID:        true,
		SearchName:      true,
		SearchAddress:   true,
		SearchTelephone: false,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fraud: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/normalsearch", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("fraud: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, vendors.WrapTransport(Name, "normalsearch", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, vendors.WrapTransport(Name, "normalsearch", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, raw, fmt.Errorf("fraud normalsearch: unexpected status %d", resp.StatusCode)
	}

	var body SearchResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, raw, fmt.Errorf("fraud normalsearch: malformed response: %w", err)
	}
	return &body, raw, nil
}

// HasUsableArchive reports whether RetData decodes to a ZIP archive.
// Extraction is a client-layer concern; only the signature is checked here.
func (r *SearchResponse) HasUsableArchive() bool {
	if r.RetData == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(r.RetData)
	if err != nil || len(decoded) < 2 {
		return false
	}
	return bytes.HasPrefix(decoded, []byte("PK"))
}
