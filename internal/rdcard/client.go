package rdcard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/berniyo/rdcard-lambda/internal/logger"
)

const (
	SandboxBaseURL = "https://sandbox.checkout.rdcard.net/api/v1"
	LiveBaseURL    = "https://checkout.rdcard.net/api/v1"

	DefaultTimeout = 15 * time.Second
)

const (
	headerAPIKey    = "X-API-KEY"
	headerSignature = "X-SIGNATURE"
	headerTimestamp = "X-TIMESTAMP"
)

// Environment selects one of the gateway's hosted base URLs.
type Environment string

const (
	EnvironmentSandbox Environment = "sandbox"
	EnvironmentLive    Environment = "live"
)

var environmentBaseURLs = map[Environment]string{
	EnvironmentSandbox: SandboxBaseURL,
	EnvironmentLive:    LiveBaseURL,
}

// Config holds construction-time settings for a Client.
type Config struct {
	APIKey      string
	APISecret   string
	Environment Environment
	// BaseURL overrides the Environment mapping when set.
	BaseURL string
	// Signer overrides the HMAC signer derived from APISecret.
	Signer  Signer
	Timeout time.Duration
	// SendTimestamp adds an X-TIMESTAMP header with the Unix time in seconds.
	SendTimestamp bool
	// HTTPClient is used as-is when set; Timeout is then ignored.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is an RD Card checkout API client. It holds no per-call state and
// is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	signer        Signer
	sendTimestamp bool
	logger        *zap.Logger
	now           func() time.Time
}

// NewClient validates cfg and resolves the base URL and signer.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &ConfigurationError{Kind: KindInvalidConfig, Message: "api key is required"}
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		env := cfg.Environment
		if env == "" {
			env = EnvironmentSandbox
		}
		var ok bool
		baseURL, ok = environmentBaseURLs[env]
		if !ok {
			return nil, &ConfigurationError{
				Kind:    KindInvalidConfig,
				Message: fmt.Sprintf("unknown environment %q", env),
			}
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	signer := cfg.Signer
	if signer == nil && cfg.APISecret != "" {
		signer = NewHMACSigner(cfg.APISecret)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.L()
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		apiKey:        apiKey,
		signer:        signer,
		sendTimestamp: cfg.SendTimestamp,
		logger:        log.Named("rdcard"),
		now:           time.Now,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallOption customises a single API call.
type CallOption func(*callOptions)

type callOptions struct {
	signature string
}

// WithSignature sends sig verbatim as X-SIGNATURE; the configured signer is
// not invoked. An empty sig is ignored.
func WithSignature(sig string) CallOption {
	return func(o *callOptions) {
		o.signature = sig
	}
}

// CreateSession creates a checkout session. The signature covers the exact
// JSON bytes sent as the request body.
func (c *Client) CreateSession(ctx context.Context, payload PaymentSessionRequest, opts ...CallOption) (*PaymentSessionResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	signature, err := c.signature(body, opts)
	if err != nil {
		return nil, err
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/sessions", body, signature)
	if err != nil {
		return nil, err
	}

	var session PaymentSessionResponse
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	return &session, nil
}

// GetPayment fetches a payment by session id. The signature covers the bare
// identifier, not a JSON envelope.
func (c *Client) GetPayment(ctx context.Context, paymentID string, opts ...CallOption) (*RetrievePaymentResponse, error) {
	if paymentID == "" {
		return nil, errors.New("payment id is required")
	}

	signature, err := c.signature([]byte(paymentID), opts)
	if err != nil {
		return nil, err
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/sessions/"+url.PathEscape(paymentID), nil, signature)
	if err != nil {
		return nil, err
	}

	var payment RetrievePaymentResponse
	if err := json.Unmarshal(data, &payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return &payment, nil
}

func (c *Client) signature(payload []byte, opts []CallOption) (string, error) {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.signature != "" {
		return o.signature, nil
	}
	if c.signer == nil {
		return "", ErrMissingSignature
	}
	return c.signer.Sign(payload), nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte, signature string) ([]byte, error) {
	endpoint := c.baseURL + path
	log := logger.FromCtx(ctx, c.logger).With(
		zap.String("method", method),
		zap.String("path", path),
	)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerSignature, signature)
	if c.sendTimestamp {
		req.Header.Set(headerTimestamp, strconv.FormatInt(c.now().Unix(), 10))
	}

	log.Debug("sending rdcard request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("rdcard request failed", zap.Error(err))
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read rdcard response", zap.Error(err))
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp, data)
		log.Warn("rdcard returned non-success status",
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	return data, nil
}
