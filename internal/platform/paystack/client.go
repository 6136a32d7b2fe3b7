// Package paystack is the payment gateway adapter. It initializes hosted
// checkout transactions, verifies their settlement and authenticates
// webhook deliveries.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Paystack API root.
const DefaultBaseURL = "https://api.paystack.co"

// SignatureHeader carries the hex HMAC-SHA512 of a webhook body.
const SignatureHeader = "X-Paystack-Signature"

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

var (
	// ErrGateway reports a transport failure or an unexpected gateway response.
	ErrGateway = errors.New("payment gateway error")

	// ErrTransactionNotFound reports that the gateway has no transaction for a reference.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidSignature reports a webhook whose signature does not match its body.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Transaction statuses reported by the verify endpoint.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// InitializeRequest describes a checkout to start. Amount is in the
// currency's minor unit.
type InitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
	Reference   string `json:"reference"`
}

// Initialization is the gateway's answer to InitializeRequest.
type Initialization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Verification is the settled state of a transaction.
type Verification struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// Succeeded reports whether the transaction settled.
func (v *Verification) Succeeded() bool {
	return v.Status == StatusSuccess
}

// Event is a webhook delivery.
type Event struct {
	Event string       `json:"event"`
	Data  Verification `json:"data"`
}

// envelope is the wrapper around every Paystack API response.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the Paystack API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	secret     []byte
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. The secret key authenticates API calls as a
// bearer token and signs webhooks.
func NewClient(cfg config.PaystackConfig, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("paystack secret key cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.SecretKey})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(cfg.SecretKey),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src},
		},
		logger: logger.With(slog.String("component", "paystack_client")),
	}, nil
}

// Initialize starts a checkout and returns where to send the payer.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrGateway, err)
	}

	var out Initialization
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &out); err != nil {
		return nil, err
	}
	if out.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: no authorization URL returned", ErrGateway)
	}

	c.logger.InfoContext(ctx, "payment initialized", slog.String("reference", req.Reference))
	return &out, nil
}

// Verify fetches the settled state of the transaction with reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrTransactionNotFound)
	}

	var out Verification
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "payment verified",
		slog.String("reference", reference),
		slog.String("status", out.Status))
	return &out, nil
}

// VerifySignature checks signature against the HMAC-SHA512 of body.
func (c *Client) VerifySignature(body []byte, signature string) error {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha512.New, c.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseEvent authenticates and decodes a webhook delivery.
func (c *Client) ParseEvent(body []byte, signature string) (*Event, error) {
	if err := c.VerifySignature(body, signature); err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", ErrGateway, err)
	}
	return &ev, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrGateway, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "paystack request failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, env.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "paystack returned an error",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", env.Message))
		return fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGateway, decodeErr)
	}
	if !env.Status {
		return fmt.Errorf("%w: %s", ErrGateway, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrGateway, err)
	}
	return nil
}
