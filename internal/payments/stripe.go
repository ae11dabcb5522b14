// Package payments takes card payments for orders through Stripe Checkout.
package payments

import (
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// CheckoutGateway is the slice of the Stripe API this package uses.
type CheckoutGateway interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeGateway struct {
	sc *client.API
}

// NewStripeGateway returns nil when secretKey is empty.
func NewStripeGateway(secretKey string) CheckoutGateway {
	if secretKey == "" {
		return nil
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return stripeGateway{sc: sc}
}

func (g stripeGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.sc.CheckoutSessions.New(params)
}
