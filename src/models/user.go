package models

import (
	"plm/src/types"
	"time"
)

type User struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	Name             string          `json:"name,omitempty"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Role             string          `gorm:"default:'driver'" json:"role,omitempty"`
	UID              string          `json:"uid,omitempty"`
	EmailVerified    bool            `json:"email_verified,omitempty"`
	LastActive       *time.Time      `json:"last_active,omitempty"`
	StripeCustomerId *string         `json:"-"`
	Metadata         *types.Metadata `gorm:"type:jsonb" json:"-"`

	Reservations []Reservation `gorm:"foreignKey:user_id" json:"reservations,omitempty"`
	Lots         []ParkingLot  `gorm:"foreignKey:operator_id" json:"lots,omitempty"`

	types.Timestamps
}
