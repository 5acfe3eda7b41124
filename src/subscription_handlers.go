package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"plm/src/db"
	"plm/src/lib"
	"plm/src/models"
	"plm/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

func subscriptionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/plans", func(ctx *gin.Context) {
			var plans []models.SubscriptionPlan
			db := db.GetDb()
			if err := db.
				Model(&models.SubscriptionPlan{}).
				Order("price_monthly asc").
				Find(&plans).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": plans})
		}).
		POST("/subscriptions", func(ctx *gin.Context) {
			var body types.CreateSubscriptionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			operatorId := ctx.GetUint("id")
			var subscription models.OperatorSubscription
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var plan models.SubscriptionPlan
				if err := tx.
					Where(&models.SubscriptionPlan{ID: body.PlanID}).
					First(&plan).
					Error; err != nil {
					return err
				}
				if plan.StripePriceId == nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "plan is not open for subscription"})
					return gorm.ErrInvalidData
				}
				var operator models.User
				if err := tx.
					Where(&models.User{ID: operatorId}).
					First(&operator).
					Error; err != nil {
					return err
				}
				sc := lib.GetStripeClient()
				customerId := operator.StripeCustomerId
				if customerId == nil {
					customer, err := sc.V1Customers.Create(context.Background(), &stripe.CustomerCreateParams{
						Email: stripe.String(operator.Email),
						Name:  stripe.String(operator.Name),
					})
					if err != nil {
						return err
					}
					if err := tx.
						Model(&models.User{}).
						Where(&models.User{ID: operatorId}).
						Update("stripe_customer_id", customer.ID).
						Error; err != nil {
						return err
					}
					customerId = &customer.ID
				}
				sub, err := sc.V1Subscriptions.Create(context.Background(), &stripe.SubscriptionCreateParams{
					Customer: customerId,
					Items: []*stripe.SubscriptionCreateItemParams{
						{Price: plan.StripePriceId},
					},
					PaymentBehavior: stripe.String("default_incomplete"),
					Metadata: map[string]string{
						"operator_id": fmt.Sprint(operatorId),
					},
				})
				if err != nil {
					return err
				}
				subscription = models.OperatorSubscription{
					OperatorID:           operatorId,
					PlanID:               plan.ID,
					Status:               types.SUBSCRIPTION_PENDING,
					StripeSubscriptionId: &sub.ID,
				}
				return tx.Create(&subscription).Error
			})
			if err != nil {
				log.Printf("Error creating subscription: %s\n", err.Error())
				if !ctx.Writer.Written() {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": subscription})
		}).
		GET("/subscriptions", func(ctx *gin.Context) {
			operatorId := ctx.GetUint("id")
			var subscriptions []models.OperatorSubscription
			db := db.GetDb()
			if err := db.
				Model(&models.OperatorSubscription{}).
				Where(&models.OperatorSubscription{OperatorID: operatorId}).
				Preload("Plan").
				Order("created_at DESC").
				Find(&subscriptions).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": subscriptions})
		})
	return g
}
