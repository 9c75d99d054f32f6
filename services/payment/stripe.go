package payment

import (
	"context"
	"fmt"

	"servana/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// StripeGateway implements Gateway on Stripe Checkout Sessions. The session
// id is used as the payment reference; Stripe guarantees its uniqueness.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (g *StripeGateway) CreateSession(ctx context.Context, amountMinor int64, currency, description string) (*CheckoutSession, error) {
	base := config.AppConfig.CheckoutBaseURL
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(base + "/payment/return?reference={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base + "/payment/cancelled?reference={CHECKOUT_SESSION_ID}"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}
	return &CheckoutSession{
		URL:       sess.URL,
		SessionID: sess.ID,
		Reference: sess.ID,
	}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, reference string) (*VerificationResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to retrieve session %s: %w", reference, err)
	}

	result := &VerificationResult{Status: VerifyStatusPending}
	if sess.CustomerDetails != nil {
		result.PayerEmail = sess.CustomerDetails.Email
	}
	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		result.Status = VerifyStatusComplete
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		result.Status = VerifyStatusFailed
	}
	return result, nil
}
