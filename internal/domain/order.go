package domain

import "time"

// PlaceholderTransactionID is the transaction reference written on settlement.
// The provider does not hand back a numeric transaction ID for QR payments, so
// the register writes a fixed placeholder, same value the frontend embeds in
// the redirect URL.
const PlaceholderTransactionID int64 = 999999

// Order is a register order awaiting (or past) payment settlement.
type Order struct {
	OrderID       string
	UserID        string
	Amount        int64
	Currency      string
	TransactionID int64
	// SettledAt is set at most once, by the confirmation flow after the
	// provider reports the payment completed.
	SettledAt *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Settled reports whether the order has a recorded settlement.
func (o Order) Settled() bool {
	return o.SettledAt != nil
}
