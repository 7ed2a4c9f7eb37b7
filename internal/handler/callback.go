package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/berniyo/rdcard-lambda/internal/rdcard"
)

const defaultCallbackTimeout = 15 * time.Second

// HTTPSCallbackSender posts checkout outcomes to an HTTPS endpoint. When a
// secret is configured the body is signed the same way the gateway signs
// session requests: X-SIGNATURE carries the HMAC-SHA256 hex of the exact body.
type HTTPSCallbackSender struct {
	url        string
	signer     rdcard.Signer
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPSCallbackSender builds an HTTPS callback client.
func NewHTTPSCallbackSender(url, secret string, client *http.Client) (*HTTPSCallbackSender, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("callback URL is required")
	}

	if client == nil {
		client = &http.Client{Timeout: defaultCallbackTimeout}
	}

	var signer rdcard.Signer
	if secret != "" {
		signer = rdcard.NewHMACSigner(secret)
	}

	return &HTTPSCallbackSender{
		url:        url,
		signer:     signer,
		httpClient: client,
		now:        time.Now,
	}, nil
}

// Send transmits the checkout response as JSON to the configured endpoint.
func (h *HTTPSCallbackSender) Send(ctx context.Context, payload CheckoutResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-TIMESTAMP", strconv.FormatInt(h.now().Unix(), 10))
	if h.signer != nil {
		req.Header.Set("X-SIGNATURE", h.signer.Sign(body))
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send callback request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("callback endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}
