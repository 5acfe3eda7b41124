package models

import (
	"plm/src/types"
	"time"

	"github.com/google/uuid"
)

type SubscriptionPlan struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `json:"name,omitempty"`
	PriceMonthly  float64         `json:"price_monthly"`
	Currency      string          `json:"currency,omitempty"`
	MaxLots       uint            `json:"max_lots,omitempty"`
	StripePriceId *string         `json:"-"`
	Features      *types.Metadata `gorm:"type:jsonb" json:"features,omitempty"`

	types.Timestamps
}

type OperatorSubscription struct {
	ID                   uuid.UUID                `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	OperatorID           uint                     `json:"operator_id,omitempty"`
	PlanID               uint                     `json:"plan_id,omitempty"`
	Status               types.SubscriptionStatus `gorm:"default:'pending'" json:"status,omitempty"`
	StripeSubscriptionId *string                  `json:"-"`
	CurrentPeriodEnd     *time.Time               `json:"current_period_end,omitempty"`

	Operator *User             `gorm:"foreignKey:operator_id" json:"-"`
	Plan     *SubscriptionPlan `gorm:"foreignKey:plan_id" json:"plan,omitempty"`

	types.Timestamps
}
