package main

import (
	"errors"
	"log"
	"net/http"
	"plm/src/config"
	"plm/src/db"
	"plm/src/lib"
	"plm/src/lifecycle"
	"plm/src/models"
	"plm/src/types"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

func lifecycleErrorStatus(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func bindReservationID(ctx *gin.Context) (uuid.UUID, bool) {
	var params types.ReservationURIParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(params.ID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return uuid.Nil, false
	}
	return id, true
}

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			reservation, err := lifecycle.Create(userId, &body)
			if err != nil {
				log.Printf("Error creating reservation: %s\n", err.Error())
				ctx.JSON(lifecycleErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation.Summary(reservation.Lot, config.Currency())})
		}).
		POST("/reservations/:id/pay", func(ctx *gin.Context) {
			id, ok := bindReservationID(ctx)
			if !ok {
				return
			}
			userId := ctx.GetUint("id")
			reservation, clientSecret, err := lifecycle.Pay(id, userId)
			if err != nil {
				log.Printf("Error opening payment for reservation %s: %s\n", id, err.Error())
				ctx.JSON(lifecycleErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"client_secret": clientSecret,
				"amount":        reservation.ReservationFee,
				"currency":      config.Currency(),
			})
		}).
		POST("/reservations/:id/confirm", func(ctx *gin.Context) {
			// Fallback for clients that finish payment before the webhook
			// lands; the provider is asked directly whether the intent
			// settled.
			id, ok := bindReservationID(ctx)
			if !ok {
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Where(&models.Reservation{ID: id, UserID: userId}).
				First(&reservation).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
				return
			}
			if reservation.PaymentIntentId == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "reservation has no payment attempt"})
				return
			}
			intent, err := lib.RetrieveIntent(*reservation.PaymentIntentId)
			if err != nil {
				log.Printf("Error retrieving intent for reservation %s: %s\n", id, err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
				return
			}
			if intent.Status != stripe.PaymentIntentStatusSucceeded {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "payment has not settled"})
				return
			}
			confirmed, err := lifecycle.Confirm(id, intent.ID)
			if err != nil {
				log.Printf("Error confirming reservation %s: %s\n", id, err.Error())
				ctx.JSON(lifecycleErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"state": confirmed.State})
		}).
		POST("/reservations/:id/cancel", func(ctx *gin.Context) {
			id, ok := bindReservationID(ctx)
			if !ok {
				return
			}
			userId := ctx.GetUint("id")
			reservation, refund, err := lifecycle.Cancel(id, userId, time.Now())
			if err != nil {
				log.Printf("Error cancelling reservation %s: %s\n", id, err.Error())
				ctx.JSON(lifecycleErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"state":  reservation.State,
				"refund": refund,
			})
		}).
		POST("/reservations/:id/checkin", func(ctx *gin.Context) {
			id, ok := bindReservationID(ctx)
			if !ok {
				return
			}
			userId := ctx.GetUint("id")
			reservation, err := lifecycle.CheckIn(id, userId, time.Now())
			if err != nil {
				log.Printf("Error checking in reservation %s: %s\n", id, err.Error())
				payload := gin.H{"error": err.Error()}
				if reservation != nil && reservation.State == types.RESERVATION_NO_SHOW {
					payload["state"] = reservation.State
				}
				ctx.JSON(lifecycleErrorStatus(err), payload)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"state":      reservation.State,
				"checkin_at": reservation.CheckinAt,
			})
		}).
		POST("/reservations/:id/checkout", func(ctx *gin.Context) {
			id, ok := bindReservationID(ctx)
			if !ok {
				return
			}
			userId := ctx.GetUint("id")
			reservation, breakdown, err := lifecycle.CheckOut(id, userId, time.Now())
			if err != nil {
				log.Printf("Error checking out reservation %s: %s\n", id, err.Error())
				ctx.JSON(lifecycleErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"state":   reservation.State,
				"billing": breakdown,
			})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var reservations []models.Reservation
			db := db.GetDb()
			if err := db.
				Model(&models.Reservation{}).
				Where(&models.Reservation{UserID: userId}).
				Preload("Lot").
				Order("created_at DESC").
				Limit(20).
				Find(&reservations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			id, ok := bindReservationID(ctx)
			if !ok {
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Where(&models.Reservation{ID: id, UserID: userId}).
				Preload("Lot").
				First(&reservation).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		})
	return g
}
