package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"plm/src/config"
	"plm/src/db"
	"plm/src/lib"
	"plm/src/lib/mailer"
	"plm/src/lifecycle"
	"plm/src/models"
	"plm/src/types"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func subscriptionStatus(s stripe.SubscriptionStatus) types.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return types.SUBSCRIPTION_ACTIVE
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return types.SUBSCRIPTION_PAST_DUE
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return types.SUBSCRIPTION_CANCELED
	default:
		return types.SUBSCRIPTION_PENDING
	}
}

func handlePaymentIntentSucceeded(event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		log.Printf("Error parsing webhook payload: %s\n", err.Error())
		return
	}
	rid, ok := intent.Metadata["reservation_id"]
	if !ok {
		log.Printf("PaymentIntent %s carries no reservation_id. Skipping\n", intent.ID)
		return
	}
	id, err := uuid.Parse(rid)
	if err != nil {
		log.Printf("PaymentIntent %s carries a malformed reservation_id %q. Skipping\n", intent.ID, rid)
		return
	}
	reservation, err := lifecycle.Confirm(id, intent.ID)
	if err != nil {
		log.Printf("Error confirming reservation %s: %s\n", rid, err.Error())
		return
	}
	go func() {
		db := db.GetDb()
		var user models.User
		if err := db.
			Where(&models.User{ID: reservation.UserID}).
			First(&user).
			Error; err != nil {
			log.Printf("Could not load user %d for confirmation email: %s\n", reservation.UserID, err.Error())
			return
		}
		var lot models.ParkingLot
		db.Where(&models.ParkingLot{ID: reservation.LotID}).First(&lot)
		mailer.SendReservationConfirmation(user.Email, reservation.Summary(&lot, config.Currency()))
	}()
}

func handlePaymentIntentFailed(event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		log.Printf("Error parsing webhook payload: %s\n", err.Error())
		return
	}
	rid, ok := intent.Metadata["reservation_id"]
	if !ok {
		log.Printf("PaymentIntent %s carries no reservation_id. Skipping\n", intent.ID)
		return
	}
	id, err := uuid.Parse(rid)
	if err != nil {
		log.Printf("PaymentIntent %s carries a malformed reservation_id %q. Skipping\n", intent.ID, rid)
		return
	}
	if err := lifecycle.Fail(id, intent.ID); err != nil {
		log.Printf("Error recording failed payment for reservation %s: %s\n", rid, err.Error())
		return
	}
	go func() {
		db := db.GetDb()
		var reservation models.Reservation
		if err := db.
			Where(&models.Reservation{ID: id}).
			Preload("User").
			First(&reservation).
			Error; err != nil || reservation.User == nil {
			return
		}
		mailer.SendPaymentFailure(reservation.User.Email, rid)
	}()
}

func handleSubscriptionEvent(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		log.Printf("Error parsing webhook payload: %s\n", err.Error())
		return
	}
	updates := map[string]any{
		"status": subscriptionStatus(sub.Status),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		periodEnd := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0)
		updates["current_period_end"] = periodEnd
	}
	db := db.GetDb()
	res := db.
		Model(&models.OperatorSubscription{}).
		Where("stripe_subscription_id = ?", sub.ID).
		Updates(updates)
	if res.Error != nil {
		log.Printf("Error syncing subscription %s: %s\n", sub.ID, res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		log.Printf("No local record for subscription %s. Skipping\n", sub.ID)
	}
}

// stripeWebhookRoute registers the payment provider callback. After the
// signature checks out, processing failures still acknowledge with 200
// so the provider does not retry forever; redeliveries are deduped on
// the event id.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		const MaxBodyBytes = int64(65536)
		body := http.MaxBytesReader(ctx.Writer, ctx.Request.Body, MaxBodyBytes)
		payload, err := io.ReadAll(body)
		if err != nil {
			log.Printf("Error reading webhook body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		endpointSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		sigHeader := ctx.Request.Header.Get("Stripe-Signature")
		event, err := webhook.ConstructEvent(payload, sigHeader, endpointSecret)
		if err != nil {
			log.Printf("Webhook signature verification failed: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}

		if !lib.MarkEventProcessed(ctx, event.ID) {
			log.Printf("Event %s already processed. Skipping\n", event.ID)
			ctx.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			handlePaymentIntentSucceeded(event)
		case "payment_intent.payment_failed":
			handlePaymentIntentFailed(event)
		case "customer.subscription.created",
			"customer.subscription.updated",
			"customer.subscription.deleted":
			handleSubscriptionEvent(event)
		default:
			log.Printf("Unhandled event type: %s\n", event.Type)
		}

		ctx.JSON(http.StatusOK, gin.H{"received": true})
	})
	return apiv1
}
