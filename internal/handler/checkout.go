package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/berniyo/rdcard-lambda/internal/logger"
	"github.com/berniyo/rdcard-lambda/internal/rdcard"
)

const (
	ActionCreate = "create"
	ActionStatus = "status"
)

// PaymentClient defines the subset of the RD Card client used by the processor.
type PaymentClient interface {
	CreateSession(ctx context.Context, payload rdcard.PaymentSessionRequest, opts ...rdcard.CallOption) (*rdcard.PaymentSessionResponse, error)
	GetPayment(ctx context.Context, paymentID string, opts ...rdcard.CallOption) (*rdcard.RetrievePaymentResponse, error)
}

// CheckoutEvent represents the payload sent to the Lambda function.
type CheckoutEvent struct {
	Action    string                        `json:"action,omitempty"`
	Session   *rdcard.PaymentSessionRequest `json:"session,omitempty"`
	PaymentID string                        `json:"paymentId,omitempty"`
	// Signature is forwarded to the gateway as a precomputed X-SIGNATURE.
	Signature string `json:"signature,omitempty"`
	// Await polls the created session until it settles or the timeout elapses.
	Await bool `json:"await,omitempty"`
}

// redacted returns a copy of e safe to echo back to callers and callbacks.
func (e CheckoutEvent) redacted() CheckoutEvent {
	e.Signature = ""
	return e
}

// CheckoutResponse is emitted after processing completes.
type CheckoutResponse struct {
	Action      string                          `json:"action"`
	SessionID   string                          `json:"sessionId"`
	CheckoutURL string                          `json:"checkoutUrl,omitempty"`
	Status      string                          `json:"status"`
	Settled     bool                            `json:"settled"`
	Payment     *rdcard.RetrievePaymentResponse `json:"payment,omitempty"`
	Message     string                          `json:"message,omitempty"`
	Request     CheckoutEvent                   `json:"request"`
}

// CallbackSender delivers checkout outcomes to downstream systems.
type CallbackSender interface {
	Send(ctx context.Context, payload CheckoutResponse) error
}

// Processor creates checkout sessions and reports payment status.
type Processor struct {
	client       PaymentClient
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
	callback     CallbackSender
	newID        func() string
}

// Option customizes the processor.
type Option func(*Processor)

// WithPollInterval adjusts the delay between status calls.
func WithPollInterval(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithTimeout overrides the total polling timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger lets callers supply a custom logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCallbackSender wires a callback destination invoked after processing concludes.
func WithCallbackSender(sender CallbackSender) Option {
	return func(p *Processor) {
		p.callback = sender
	}
}

// NewProcessor builds a Processor with sane defaults.
func NewProcessor(client PaymentClient, opts ...Option) *Processor {
	p := &Processor{
		client:       client,
		pollInterval: 5 * time.Second,
		timeout:      5 * time.Minute,
		logger:       logger.L(),
		newID:        uuid.NewString,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Handle implements the AWS Lambda handler entry point.
func (p *Processor) Handle(ctx context.Context, event CheckoutEvent) (CheckoutResponse, error) {
	action := strings.ToLower(strings.TrimSpace(event.Action))
	if action == "" {
		action = ActionCreate
	}
	event.Action = action

	switch action {
	case ActionCreate:
		return p.handleCreate(ctx, event)
	case ActionStatus:
		return p.handleStatus(ctx, event)
	default:
		return CheckoutResponse{}, fmt.Errorf("unknown action %q", event.Action)
	}
}

func (p *Processor) handleCreate(ctx context.Context, event CheckoutEvent) (CheckoutResponse, error) {
	if err := validateSession(event.Session); err != nil {
		return CheckoutResponse{}, err
	}

	payload := *event.Session
	if payload.TransactionID == "" {
		payload.TransactionID = p.newID()
	}
	event.Session = &payload

	log := logger.FromCtx(ctx, p.logger).With(zap.String("transaction_id", payload.TransactionID))
	log.Info("creating checkout session",
		zap.Int64("amount", payload.Amount),
		zap.String("currency", payload.Currency),
	)

	session, err := p.client.CreateSession(ctx, payload, rdcard.WithSignature(event.Signature))
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("create session failed: %w", err)
	}

	resp := CheckoutResponse{
		Action:      ActionCreate,
		SessionID:   session.ID,
		CheckoutURL: session.CheckoutURL,
		Status:      rdcard.StatusPending.Label(),
		Request:     event.redacted(),
	}

	if !event.Await {
		p.emitCallback(ctx, resp)
		return resp, nil
	}

	log.Info("session created; polling for settlement", zap.String("session_id", session.ID))

	payment, err := p.pollPayment(ctx, session.ID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			resp.Message = fmt.Sprintf("payment not settled within %s", p.timeout)
			p.emitCallback(ctx, resp)
			return resp, nil
		}
		// The session exists at the gateway; report it with the polling failure.
		log.Warn("status polling failed", zap.String("session_id", session.ID), zap.Error(err))
		resp.Message = fmt.Sprintf("status polling failed: %v", err)
		p.emitCallback(ctx, resp)
		return resp, nil
	}

	applyPayment(&resp, payment)
	p.emitCallback(ctx, resp)
	return resp, nil
}

func (p *Processor) handleStatus(ctx context.Context, event CheckoutEvent) (CheckoutResponse, error) {
	id := strings.TrimSpace(event.PaymentID)
	if id == "" {
		return CheckoutResponse{}, errors.New("paymentId is required")
	}

	payment, err := p.client.GetPayment(ctx, id, rdcard.WithSignature(event.Signature))
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("get payment failed: %w", err)
	}

	resp := CheckoutResponse{
		Action:    ActionStatus,
		SessionID: id,
		Request:   event.redacted(),
	}
	applyPayment(&resp, payment)
	p.emitCallback(ctx, resp)
	return resp, nil
}

func (p *Processor) pollPayment(ctx context.Context, id string) (*rdcard.RetrievePaymentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	log := logger.FromCtx(ctx, p.logger).With(zap.String("session_id", id))

	for {
		payment, err := p.client.GetPayment(ctx, id)
		switch {
		case err == nil && settled(payment):
			log.Info("payment settled", zap.String("status", payment.Status.Label()), zap.Bool("expired", payment.Expired))
			return payment, nil
		case err == nil:
			log.Debug("payment pending", zap.Duration("wait", p.pollInterval))
		case rdcard.IsNotFound(err):
			log.Debug("session not visible yet", zap.Duration("wait", p.pollInterval))
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			return nil, fmt.Errorf("get payment failed: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func settled(payment *rdcard.RetrievePaymentResponse) bool {
	return payment.Status.Terminal() || payment.Expired
}

func applyPayment(resp *CheckoutResponse, payment *rdcard.RetrievePaymentResponse) {
	resp.Payment = payment
	resp.Status = payment.Status.Label()
	resp.Settled = settled(payment)
	if payment.Expired && !payment.Status.Terminal() {
		resp.Status = "expired"
	}
}

func validateSession(session *rdcard.PaymentSessionRequest) error {
	if session == nil {
		return errors.New("session is required")
	}
	if session.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if strings.TrimSpace(session.Currency) == "" {
		return errors.New("currency is required")
	}
	if strings.TrimSpace(session.Customer.Email) == "" {
		return errors.New("customer email is required")
	}
	return nil
}

func (p *Processor) emitCallback(ctx context.Context, resp CheckoutResponse) {
	if p.callback == nil {
		return
	}
	if err := p.callback.Send(ctx, resp); err != nil {
		logger.FromCtx(ctx, p.logger).Warn("callback delivery failed", zap.Error(err))
	}
}
