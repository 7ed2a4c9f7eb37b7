package rdcard

import (
	"encoding/json"
	"fmt"
)

// CustomerInfo identifies the payer of a checkout session.
type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// ServiceItem is a line item attached to a session request. Prices are in
// minor currency units; a zero Quantity is left to the gateway default of 1.
type ServiceItem struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
}

// PaymentSessionRequest is the body of POST /sessions.
//
// Extra carries additional top-level keys that are merged into the encoded
// JSON. Typed fields take precedence when a key appears in both.
type PaymentSessionRequest struct {
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	Customer      CustomerInfo   `json:"customer"`
	Description   string         `json:"description,omitempty"`
	CallbackURL   string         `json:"callbackUrl,omitempty"`
	CancelURL     string         `json:"cancelUrl,omitempty"`
	SuccessURL    string         `json:"successUrl,omitempty"`
	TransactionID string         `json:"transactionId,omitempty"`
	Services      []ServiceItem  `json:"services,omitempty"`
	Extra         map[string]any `json:"-"`
}

// MarshalJSON encodes the typed fields and merges Extra into the result.
func (r PaymentSessionRequest) MarshalJSON() ([]byte, error) {
	type plain PaymentSessionRequest
	typed, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return typed, nil
	}

	merged := make(map[string]any, len(r.Extra))
	for k, v := range r.Extra {
		merged[k] = v
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, fmt.Errorf("merge extra fields: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}

	return json.Marshal(merged)
}

// UnmarshalJSON decodes the typed fields and collects every other top-level
// key into Extra.
func (r *PaymentSessionRequest) UnmarshalJSON(data []byte) error {
	type plain PaymentSessionRequest
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var extra map[string]any
	for k, raw := range fields {
		if _, ok := sessionRequestKeys[k]; ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode extra field %q: %w", k, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}

	*r = PaymentSessionRequest(typed)
	r.Extra = extra
	return nil
}

var sessionRequestKeys = map[string]struct{}{
	"amount": {}, "currency": {}, "customer": {}, "description": {},
	"callbackUrl": {}, "cancelUrl": {}, "successUrl": {}, "transactionId": {},
	"services": {},
}

// PaymentSessionResponse is returned by POST /sessions.
type PaymentSessionResponse struct {
	ID          string       `json:"id"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	Description string       `json:"description,omitempty"`
	CheckoutURL string       `json:"checkoutUrl"`
	Customer    CustomerInfo `json:"customer"`
	CreatedAt   string       `json:"createdAt"`
}

// PaymentStatus is the gateway's classification of a session outcome.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "P"
	StatusSucceeded PaymentStatus = "S"
	StatusCanceled  PaymentStatus = "C"
)

// Terminal reports whether the status will no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusCanceled
}

// Label returns a lowercase, human readable name for the status.
func (s PaymentStatus) Label() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// PaymentCustomer is the payer as reported by GET /sessions/{id}.
type PaymentCustomer struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// PaymentService is a line item as reported by GET /sessions/{id}.
type PaymentService struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	Currency    *string   `json:"currency"`
	SessionID   string    `json:"sessionId"`
	CreatedAt   string    `json:"createdAt"`
}

// RetrievePaymentResponse is returned by GET /sessions/{id}.
type RetrievePaymentResponse struct {
	ID            string           `json:"id"`
	Amount        int64            `json:"amount"`
	Currency      string           `json:"currency"`
	Description   *string          `json:"description"`
	TransactionID string           `json:"transactionId"`
	Customer      PaymentCustomer  `json:"customer"`
	CreatedAt     string           `json:"createdAt"`
	Expired       bool             `json:"expired"`
	Services      []PaymentService `json:"services"`
	Status        PaymentStatus    `json:"status"`
}
