package payment

import "context"

// Verification statuses reported by the gateway.
const (
	VerifyStatusComplete = "complete"
	VerifyStatusFailed   = "failed"
	VerifyStatusPending  = "pending"
)

// CheckoutSession is the gateway-issued session the client is redirected to.
// The reference doubles as the payment's idempotency key.
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
	Reference string `json:"reference"`
}

// VerificationResult is the gateway's answer for a reference.
type VerificationResult struct {
	Status     string `json:"status"` // complete | failed | pending
	PayerEmail string `json:"payerEmail,omitempty"`
}

// Gateway is the payment provider contract. Amounts cross this boundary in
// minor currency units only.
type Gateway interface {
	CreateSession(ctx context.Context, amountMinor int64, currency, description string) (*CheckoutSession, error)
	Verify(ctx context.Context, reference string) (*VerificationResult, error)
}
