// Package bureau wraps the credit bureau scoring API. The bureau has no
// login handshake; credentials travel in the request path.
package bureau

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

// Name is the vendor name written to the audit trail.
const Name = "compuscore"

const requestTimeout = 30 * time.Second

// Client is the credit bureau API client
type Client struct {
	baseURL  string
	username string
	password string
	origin   string

	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new credit bureau client
func NewClient(baseURL, username, password, origin string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		origin:   origin,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// ScoreResponse is the bureau's outer wrapper. ReturnData is itself a JSON
// string that still needs parsing.
type ScoreResponse struct {
	TransactionCompleted bool   `json:"transactionCompleted"`
	HasErrors            bool   `json:"hasErrors"`
	ErrorDescription     string `json:"errorDescription"`
	ReturnData           string `json:"returnData"`
}

// ReturnData is the parsed inner payload of a score enquiry.
type ReturnData struct {
	IDNumber string        `json:"idNumber"`
	Results  []ScoreResult `json:"results"`
}

// ScoreResult is one scoring result with its reason codes.
type ScoreResult struct {
	ResultType string   `json:"resultType"`
	Score      int      `json:"score"`
	Reasons    []Reason `json:"reasons"`
}

// Reason is a bureau reason code attached to a score.
type Reason struct {
	ReasonCode        string `json:"reasonCode"`
	ReasonDescription string `json:"reasonDescription"`
}

func (c *Client) get(ctx context.Context, endpoint, idNumber string) (*ScoreResponse, []byte, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/3.0/%s/%s",
		c.baseURL, c.username, c.password, c.origin, endpoint, idNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("bureau: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, vendors.WrapTransport(Name, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, vendors.WrapTransport(Name, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, raw, fmt.Errorf("bureau %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var body ScoreResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, raw, fmt.Errorf("bureau %s: malformed response: %w", endpoint, err)
	}
	return &body, raw, nil
}

// Score runs a score enquiry for the subject.
func (c *Client) Score(ctx context.Context, idNumber string) (*ScoreResponse, []byte, error) {
	return c.get(ctx, "Json", idNumber)
}

// ParseReturnData decodes the inner returnData JSON string.
func (r *ScoreResponse) ParseReturnData() (*ReturnData, error) {
	if r.ReturnData == "" {
		return nil, fmt.Errorf("bureau: response carried no returnData")
	}
	var data ReturnData
	if err := json.Unmarshal([]byte(r.ReturnData), &data); err != nil {
		return nil, fmt.Errorf("bureau: malformed returnData: %w", err)
	}
	return &data, nil
}

// DebtReviewData is the parsed inner payload of a debt review enquiry.
type DebtReviewData struct {
	IDNumber        string `json:"idNumber"`
	UnderDebtReview bool   `json:"underDebtReview"`
	ReviewDate      string `json:"reviewDate,omitempty"`
}

// DebtReview checks whether the subject is flagged under debt review.
func (c *Client) DebtReview(ctx context.Context, idNumber string) (*ScoreResponse, *DebtReviewData, []byte, error) {
	body, raw, err := c.get(ctx, "DebtReview", idNumber)
	if err != nil {
		return nil, nil, raw, err
	}
	if body.HasErrors || !body.TransactionCompleted || body.ReturnData == "" {
		return body, nil, raw, nil
	}

	var data DebtReviewData
	if err := json.Unmarshal([]byte(body.ReturnData), &data); err != nil {
		return body, nil, raw, fmt.Errorf("bureau: malformed debt review returnData: %w", err)
	}
	return body, &data, raw, nil
}
