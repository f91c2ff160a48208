package domain

// PaymentStatus is the provider-reported state of a QR payment.
type PaymentStatus string

const (
	// PaymentStatusPending covers every non-terminal provider state
	// (CREATED, AUTHORIZED, ...); the confirmation flow keeps polling.
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	// PaymentStatusUnknown marks an absent or malformed provider payload,
	// treated as transient until the polling window closes.
	PaymentStatusUnknown PaymentStatus = "UNKNOWN"
)

// Terminal reports whether the status ends the polling loop.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}
