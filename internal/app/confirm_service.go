package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tacck/line-api-use-case-smart-retail/internal/clock"
	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

// PaymentStatusClient is the minimal provider surface needed to confirm a payment.
type PaymentStatusClient interface {
	GetPaymentStatus(ctx context.Context, merchantPaymentID string) (domain.PaymentStatus, error)
	GetPaymentDetails(ctx context.Context, merchantPaymentID string) (json.RawMessage, error)
}

type OrderRepository interface {
	GetByOrderID(ctx context.Context, orderID string) (domain.Order, error)
	UpdateSettlement(ctx context.Context, orderID string, transactionID int64, settledAt, expiresAt time.Time) error
}

// ReceiptNotifier delivers a receipt for a settled order. The settledAt string
// is already formatted for display.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, order domain.Order, settledAt string) error
}

// jst is the display time zone for receipts.
var jst = time.FixedZone("JST", 9*60*60)

const receiptTimeLayout = "2006/01/02 15:04:05"

const (
	defaultPollInterval   = 2 * time.Second
	defaultConfirmTimeout = 100 * time.Second
	defaultOrderTTL       = 24 * time.Hour
)

// ConfirmService drives payment confirmation: it polls the provider until the
// payment reaches a terminal status, records the settlement, and pushes the
// receipt. One invocation is a single linear pass; repeated invocations for an
// already-settled order run the full pass again (no dedup across calls).
type ConfirmService struct {
	repo     OrderRepository
	provider PaymentStatusClient
	notifier ReceiptNotifier
	clock    clock.Clock

	pollInterval   time.Duration
	confirmTimeout time.Duration
	orderTTL       time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewConfirmService(repo OrderRepository, provider PaymentStatusClient, notifier ReceiptNotifier, clk clock.Clock, opts ...ConfirmServiceOption) *ConfirmService {
	svc := &ConfirmService{
		repo:           repo,
		provider:       provider,
		notifier:       notifier,
		clock:          clk,
		pollInterval:   defaultPollInterval,
		confirmTimeout: defaultConfirmTimeout,
		orderTTL:       defaultOrderTTL,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ConfirmServiceOption func(*ConfirmService)

// WithPollInterval overrides the pause between status queries.
func WithPollInterval(d time.Duration) ConfirmServiceOption {
	return func(s *ConfirmService) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithConfirmTimeout overrides the overall polling window.
func WithConfirmTimeout(d time.Duration) ConfirmServiceOption {
	return func(s *ConfirmService) {
		if d > 0 {
			s.confirmTimeout = d
		}
	}
}

// WithOrderTTL overrides the storage retention window applied on settlement.
func WithOrderTTL(d time.Duration) ConfirmServiceOption {
	return func(s *ConfirmService) {
		if d > 0 {
			s.orderTTL = d
		}
	}
}

// WithSleep replaces the inter-poll wait (useful for tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ConfirmServiceOption {
	return func(s *ConfirmService) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

type ConfirmOutcome string

const (
	ConfirmOutcomeCompleted ConfirmOutcome = "completed"
	ConfirmOutcomeFailed    ConfirmOutcome = "failed"
)

type ConfirmResult struct {
	Outcome ConfirmOutcome
	Order   domain.Order
	// Details is the raw provider payload; only set on a completed payment.
	Details   json.RawMessage
	SettledAt time.Time
}

// Confirm polls the provider for the payment tied to orderID until it reaches
// COMPLETED or FAILED, or the polling window closes (domain.ErrConfirmTimeout).
// On COMPLETED it fetches the full payment details, records the settlement, and
// sends the receipt; a failure in any of those steps aborts the call without
// rolling back earlier steps. A FAILED payment is a normal outcome: no
// mutation, no notification.
func (s *ConfirmService) Confirm(ctx context.Context, orderID string) (ConfirmResult, error) {
	order, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return ConfirmResult{}, err
	}

	status, err := s.pollUntilTerminal(ctx, orderID)
	if err != nil {
		return ConfirmResult{}, err
	}
	if status == domain.PaymentStatusFailed {
		return ConfirmResult{Outcome: ConfirmOutcomeFailed, Order: order}, nil
	}

	details, err := s.provider.GetPaymentDetails(ctx, orderID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("get payment details: %w", err)
	}

	settledAt := s.clock.Now()
	expiresAt := settledAt.Add(s.orderTTL)
	if err := s.repo.UpdateSettlement(ctx, orderID, domain.PlaceholderTransactionID, settledAt, expiresAt); err != nil {
		return ConfirmResult{}, fmt.Errorf("update settlement: %w", err)
	}

	order.TransactionID = domain.PlaceholderTransactionID
	order.SettledAt = &settledAt
	order.ExpiresAt = expiresAt

	if err := s.notifier.SendReceipt(ctx, order, settledAt.In(jst).Format(receiptTimeLayout)); err != nil {
		return ConfirmResult{}, fmt.Errorf("send receipt: %w", err)
	}

	return ConfirmResult{
		Outcome:   ConfirmOutcomeCompleted,
		Order:     order,
		Details:   details,
		SettledAt: settledAt,
	}, nil
}

// pollUntilTerminal runs the bounded polling loop. Transient provider errors
// and non-terminal statuses keep the loop going; with interval I and window T
// it issues at most T/I+1 status queries.
func (s *ConfirmService) pollUntilTerminal(ctx context.Context, orderID string) (domain.PaymentStatus, error) {
	deadline := s.clock.Now().Add(s.confirmTimeout)
	for {
		status, err := s.provider.GetPaymentStatus(ctx, orderID)
		if err != nil {
			status = domain.PaymentStatusUnknown
		}
		if status.Terminal() {
			return status, nil
		}
		if !s.clock.Now().Before(deadline) {
			return "", domain.ErrConfirmTimeout
		}
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return "", err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
