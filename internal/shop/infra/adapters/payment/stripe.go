// Package payment creates hosted checkout sessions.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

var (
	_ ports.PaymentGateway = (*Stripe)(nil)
	_ ports.PaymentGateway = Offline{}
)

// Currencies without a minor unit.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true, "krw": true,
	"mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true, "vuv": true, "xaf": true,
	"xof": true, "xpf": true,
}

// MinorUnits converts a major-unit amount to the integer amount Stripe
// expects, rounding half away from zero.
func MinorUnits(amount float64, currency string) int64 {
	d := decimal.NewFromFloat(amount)
	if !zeroDecimal[strings.ToLower(currency)] {
		d = d.Shift(2)
	}
	return d.Round(0).IntPart()
}

type Stripe struct {
	client session.Client
}

type Option func(*Stripe)

// WithBackend replaces the Stripe API backend.
func WithBackend(b stripe.Backend) Option {
	return func(s *Stripe) { s.client.B = b }
}

func NewStripe(secretKey string, opts ...Option) *Stripe {
	s := &Stripe{client: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req entity.CheckoutRequest) (entity.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if req.Reference != "" {
		params.ClientReferenceID = stripe.String(req.Reference)
	}
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(it.UnitPrice, req.Currency)),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}
	params.Context = ctx

	sess, err := s.client.New(params)
	if err != nil {
		return entity.CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return entity.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// Offline stands in for Stripe when no secret key is configured. Sessions
// point straight at the success URL.
type Offline struct{}

func (Offline) CreateCheckoutSession(_ context.Context, req entity.CheckoutRequest) (entity.CheckoutSession, error) {
	return entity.CheckoutSession{ID: "cs_offline_" + uuid.NewString(), URL: req.SuccessURL}, nil
}
