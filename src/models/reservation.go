package models

import (
	"plm/src/types"
	"time"

	"github.com/google/uuid"
)

// Reservation is the central record. Fee fields are frozen at creation
// and never recomputed; checkin/checkout timestamps are set once.
type Reservation struct {
	ID     uuid.UUID              `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID uint                   `json:"user_id,omitempty"`
	LotID  uint                   `json:"lot_id,omitempty"`
	State  types.ReservationState `gorm:"default:'pending_payment'" json:"state,omitempty"`

	CarPlate      string    `json:"car_plate,omitempty"`
	ArrivalStart  time.Time `json:"arrival_start,omitempty"`
	ArrivalEnd    time.Time `json:"arrival_end,omitempty"`
	ExpectedHours uint      `json:"expected_hours,omitempty"`

	// Snapshot of lot pricing at booking time; informational for the
	// estimate, authoritative for the frozen fee.
	Hourly         float64 `json:"hourly,omitempty"`
	ReservationPct float64 `json:"reservation_pct,omitempty"`
	ReservationFee float64 `json:"reservation_fee,omitempty"`
	RefundAmount   float64 `json:"refund_amount,omitempty"`

	PaymentProvider string              `gorm:"default:'stripe'" json:"payment_provider,omitempty"`
	PaymentIntentId *string             `json:"-"`
	PaymentStatus   types.PaymentStatus `gorm:"default:'requires_payment'" json:"payment_status,omitempty"`

	CheckinAt  *time.Time      `json:"checkin_at,omitempty"`
	CheckoutAt *time.Time      `json:"checkout_at,omitempty"`
	Metadata   *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	User *User       `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Lot  *ParkingLot `gorm:"foreignKey:lot_id" json:"lot,omitempty"`

	types.Timestamps
}

func (r *Reservation) Summary(lot *ParkingLot, currency string) *types.ReservationSummary {
	s := &types.ReservationSummary{
		ID:             r.ID.String(),
		State:          string(r.State),
		LotID:          r.LotID,
		CarPlate:       r.CarPlate,
		ArrivalStart:   r.ArrivalStart,
		ArrivalEnd:     r.ArrivalEnd,
		Hourly:         r.Hourly,
		ExpectedHours:  r.ExpectedHours,
		ReservationPct: r.ReservationPct,
		ReservationFee: r.ReservationFee,
		Currency:       currency,
	}
	if lot != nil {
		s.LotName = lot.Name
		s.LotAddress = lot.Address
	}
	return s
}
