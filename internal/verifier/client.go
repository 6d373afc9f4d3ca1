package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to the external transaction verification API. The engine
// treats this collaborator as slow and fallible; every call carries a context
// and failures are retried by the payment watcher, never here.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new verifier API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Result is the verifier's view of one transaction.
type Result struct {
	Confirmed bool
	Failed    bool
	Amount    decimal.Decimal
	Age       time.Duration
}

type verifyResponse struct {
	Confirmed  bool   `json:"confirmed"`
	Failed     bool   `json:"failed"`
	Amount     string `json:"amount"`
	AgeSeconds int64  `json:"age_seconds"`
}

// Verify asks the external verifier about a transaction hash on the given
// network.
func (c *Client) Verify(ctx context.Context, txHash, cryptoType string) (*Result, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s?network=%s", c.baseURL, txHash, cryptoType)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("verifier error: %s - %s", resp.Status, string(body))
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if vr.Amount != "" {
		amount, err = decimal.NewFromString(vr.Amount)
		if err != nil {
			return nil, fmt.Errorf("verifier returned bad amount %q: %w", vr.Amount, err)
		}
	}

	return &Result{
		Confirmed: vr.Confirmed,
		Failed:    vr.Failed,
		Amount:    amount,
		Age:       time.Duration(vr.AgeSeconds) * time.Second,
	}, nil
}
