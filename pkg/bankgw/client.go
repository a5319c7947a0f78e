package bankgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plateful/plateful-backend/pkg/config"
	"github.com/plateful/plateful-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("bank gateway base url is required")
	errAPIKeyRequired  = errors.New("bank gateway api key is required")
)

// PayableRef is the gateway-issued descriptor a customer pays against. The
// reference embeds the order number so inbound transfers can be matched back.
type PayableRef struct {
	Reference string `json:"reference"`
	QRCode    string `json:"qr_code"`
}

// PayableRequester is the surface the payment service depends on.
type PayableRequester interface {
	RequestPayable(ctx context.Context, orderNumber int64, amountCents int) (*PayableRef, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the bank gateway's payable/QR endpoint.
type Client struct {
	http        httpDoer
	baseURL     string
	apiKey      string
	accountName string
}

// NewClient validates config and builds the gateway client.
func NewClient(ctx context.Context, cfg config.BankGatewayConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, "bank gateway client initialized")
	}

	return &Client{
		http:        &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		accountName: cfg.AccountName,
	}, nil
}

type payableRequest struct {
	Reference   string `json:"reference"`
	AmountCents int    `json:"amount_cents"`
	AccountName string `json:"account_name,omitempty"`
}

type payableResponse struct {
	Reference string `json:"reference"`
	QRCode    string `json:"qr_code"`
	Message   string `json:"message,omitempty"`
}

// RequestPayable asks the gateway for a transfer reference and QR descriptor
// bound to the order number and exact amount. One retry on transport errors;
// any remaining failure is returned so payment creation can fail cleanly
// instead of leaving a half-created payment.
func (c *Client) RequestPayable(ctx context.Context, orderNumber int64, amountCents int) (*PayableRef, error) {
	if orderNumber <= 0 {
		return nil, errors.New("order number must be positive")
	}
	if amountCents <= 0 {
		return nil, errors.New("amount must be positive")
	}

	body := payableRequest{
		Reference:   fmt.Sprintf("DH%d", orderNumber),
		AmountCents: amountCents,
		AccountName: c.accountName,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		ref, err := c.postPayable(ctx, body)
		if err == nil {
			return ref, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("request payable: %w", lastErr)
}

func (c *Client) postPayable(ctx context.Context, body payableRequest) (*PayableRef, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payables", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded payableResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode payable response: %w", err)
	}
	if decoded.Reference == "" || decoded.QRCode == "" {
		return nil, errors.New("gateway response missing reference or qr code")
	}

	return &PayableRef{Reference: decoded.Reference, QRCode: decoded.QRCode}, nil
}
