package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

// PaymentCodeClient is the minimal provider surface needed to issue a QR code.
type PaymentCodeClient interface {
	CreateQRCode(ctx context.Context, req QRCodeRequest) (json.RawMessage, error)
}

// QRCodeRequest is the provider-neutral shape of a code creation request; the
// provider client maps it onto its wire format.
type QRCodeRequest struct {
	MerchantPaymentID string
	Amount            int64
	Currency          string
	RedirectURL       string
	Description       string
	ItemName          string
}

const (
	fixedCurrency           = "JPY"
	defaultOrderDescription = "Use Caseストア新宿店"
	defaultItemName         = "購入商品"
)

// PaymentRequestService builds the provider-facing QR code creation request
// for an order and returns the raw provider response.
type PaymentRequestService struct {
	repo        OrderRepository
	codes       PaymentCodeClient
	confirmURL  string
	description string
	itemName    string
}

func NewPaymentRequestService(repo OrderRepository, codes PaymentCodeClient, confirmURL string, opts ...PaymentRequestServiceOption) *PaymentRequestService {
	svc := &PaymentRequestService{
		repo:        repo,
		codes:       codes,
		confirmURL:  confirmURL,
		description: defaultOrderDescription,
		itemName:    defaultItemName,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PaymentRequestServiceOption func(*PaymentRequestService)

// WithOrderDescription overrides the store description shown in the payment app.
func WithOrderDescription(desc string) PaymentRequestServiceOption {
	return func(s *PaymentRequestService) {
		if desc != "" {
			s.description = desc
		}
	}
}

// CreateRequest resolves the order amount and asks the provider for a payment
// QR code. The redirect URL sends the payer back to the confirm page with the
// order reference embedded.
func (s *PaymentRequestService) CreateRequest(ctx context.Context, orderID string) (json.RawMessage, error) {
	order, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	redirect := fmt.Sprintf("%s?transactionId=%d&orderId=%s",
		s.confirmURL, domain.PlaceholderTransactionID, url.QueryEscape(orderID))

	resp, err := s.codes.CreateQRCode(ctx, QRCodeRequest{
		MerchantPaymentID: orderID,
		Amount:            order.Amount,
		Currency:          fixedCurrency,
		RedirectURL:       redirect,
		Description:       s.description,
		ItemName:          s.itemName,
	})
	if err != nil {
		return nil, fmt.Errorf("create qr code: %w", err)
	}
	return resp, nil
}
