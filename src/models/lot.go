package models

import (
	"plm/src/types"
)

// ParkingLot carries a fixed capacity and a mutable free-spot counter.
// AvailabilityManual is only ever written through the lifecycle package,
// clamped to [0, capacity].
type ParkingLot struct {
	ID                 uint            `gorm:"primarykey" json:"id"`
	Name               string          `json:"name,omitempty"`
	Slug               string          `gorm:"uniqueIndex" json:"slug"`
	Address            string          `json:"address,omitempty"`
	Latitude           *float64        `json:"latitude,omitempty"`
	Longitude          *float64        `json:"longitude,omitempty"`
	Capacity           uint            `json:"capacity"`
	AvailabilityManual int             `json:"availability_manual"`
	Hourly             float64         `json:"hourly"`
	DailyMax           *float64        `json:"daily_max,omitempty"`
	Status             types.LotStatus `gorm:"default:'active'" json:"status,omitempty"`
	OperatorID         uint            `json:"operator_id,omitempty"`
	Metadata           *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	Operator     *User         `gorm:"foreignKey:operator_id" json:"-"`
	Reservations []Reservation `gorm:"foreignKey:lot_id" json:"-"`

	types.Timestamps
}
