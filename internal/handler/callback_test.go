package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berniyo/rdcard-lambda/internal/rdcard"
)

func TestNewHTTPSCallbackSenderRequiresURL(t *testing.T) {
	_, err := NewHTTPSCallbackSender("  ", "secret", nil)
	require.EqualError(t, err, "callback URL is required")
}

func TestHTTPSCallbackSenderSignsBody(t *testing.T) {
	payload := CheckoutResponse{Action: ActionStatus, SessionID: "pay_1", Status: "succeeded", Settled: true}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "1763200800", r.Header.Get("X-TIMESTAMP"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, rdcard.NewHMACSigner("cb-secret").Sign(body), r.Header.Get("X-SIGNATURE"))

		var got CheckoutResponse
		assert.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "pay_1", got.SessionID)
		assert.True(t, got.Settled)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender, err := NewHTTPSCallbackSender(server.URL, "cb-secret", server.Client())
	require.NoError(t, err)
	sender.now = func() time.Time { return time.Unix(1763200800, 0) }

	require.NoError(t, sender.Send(context.Background(), payload))
}

func TestHTTPSCallbackSenderWithoutSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-SIGNATURE"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, err := NewHTTPSCallbackSender(server.URL, "", nil)
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), CheckoutResponse{SessionID: "pay_1"}))
}

func TestHTTPSCallbackSenderRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	sender, err := NewHTTPSCallbackSender(server.URL, "secret", nil)
	require.NoError(t, err)

	err = sender.Send(context.Background(), CheckoutResponse{SessionID: "pay_1"})
	require.EqualError(t, err, "callback endpoint returned 401: nope")
}
