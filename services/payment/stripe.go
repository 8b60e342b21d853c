// Package paymentsvc relays fee checkouts to Stripe. No card data or
// processor state is stored locally; the fee record is only updated once a
// session is confirmed paid.
package paymentsvc

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/tmaswali/shule/core"
)

var ErrAmountTooSmall = errors.New("amount below the processor minimum")

type stripeService struct {
	api  *client.API
	conf core.StripeConfig
}

var _ core.PaymentService = (*stripeService)(nil)

func NewStripeService(conf *core.Config) *stripeService {
	api := &client.API{}
	api.Init(conf.Stripe.SecretKey, nil)
	return &stripeService{api: api, conf: conf.Stripe}
}

func (svc stripeService) CreateCheckoutSession(req core.CheckoutRequest) (core.CheckoutSession, error) {
	if req.Amount < float64(svc.conf.MinAmount) {
		return core.CheckoutSession{}, ErrAmountTooSmall
	}

	currency := req.Currency
	if currency == "" {
		currency = svc.conf.Currency
	}
	name := "School Fee Payment"
	if req.FeeType != "" {
		name = req.FeeType
	}
	desc := "Fee payment"
	if req.StudentName != "" {
		desc = fmt.Sprintf("Fee payment for %s", req.StudentName)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(name),
					Description: stripe.String(desc),
				},
				// Stripe wants minor units
				UnitAmount: stripe.Int64(int64(math.Round(req.Amount * 100))),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(svc.conf.SuccessURL),
		CancelURL:  stripe.String(svc.conf.CancelURL),
	}
	params.AddMetadata("feeId", req.FeeID)
	params.AddMetadata("studentName", req.StudentName)

	sess, err := svc.api.CheckoutSessions.New(params)
	if err != nil {
		return core.CheckoutSession{}, errors.Wrap(err, "creating checkout session")
	}
	return core.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (svc stripeService) GetSession(id string) (core.PaymentSession, error) {
	sess, err := svc.api.CheckoutSessions.Get(id, nil)
	if err != nil {
		return core.PaymentSession{}, errors.Wrap(err, "retrieving checkout session")
	}
	return core.PaymentSession{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Status:        string(sess.Status),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}, nil
}
