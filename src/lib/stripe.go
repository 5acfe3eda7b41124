package lib

import (
	"context"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// CreateReservationIntent opens a PaymentIntent for the up-front
// reservation fee. Amount is in the currency's smallest unit; metadata
// must carry the reservation id so the webhook can map the intent back.
func CreateReservationIntent(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return sc.V1PaymentIntents.Create(context.Background(), params)
}

func RetrieveIntent(intentId string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	return sc.V1PaymentIntents.Retrieve(context.Background(), intentId, nil)
}

// RefundIntent refunds part or all of a captured PaymentIntent.
func RefundIntent(intentId string, amount int64) (*stripe.Refund, error) {
	sc := GetStripeClient()
	return sc.V1Refunds.Create(context.Background(), &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(intentId),
		Amount:        stripe.Int64(amount),
	})
}
