package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type Metadata map[string]any

func (a Metadata) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *Metadata) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// ReservationState is the closed set of lifecycle states. Transitions
// between them are owned by the lifecycle package; nothing else writes
// the state column.
type ReservationState string

const (
	RESERVATION_PENDING_PAYMENT ReservationState = "pending_payment"
	RESERVATION_CONFIRMED       ReservationState = "confirmed"
	RESERVATION_EXPIRED         ReservationState = "expired"
	RESERVATION_CANCELLED       ReservationState = "cancelled"
	RESERVATION_NO_SHOW         ReservationState = "no_show"
	RESERVATION_CHECKED_IN      ReservationState = "checked_in"
	RESERVATION_CHECKED_OUT     ReservationState = "checked_out"
)

// Terminal reports whether no transition may leave the state.
func (s ReservationState) Terminal() bool {
	switch s {
	case RESERVATION_EXPIRED, RESERVATION_CANCELLED, RESERVATION_NO_SHOW, RESERVATION_CHECKED_OUT:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PAYMENT_REQUIRED PaymentStatus = "requires_payment"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
	PAYMENT_FAILED   PaymentStatus = "failed"
)

type LotStatus string

const (
	LOT_ACTIVE   LotStatus = "active"
	LOT_INACTIVE LotStatus = "inactive"
)

type SubscriptionStatus string

const (
	SUBSCRIPTION_PENDING  SubscriptionStatus = "pending"
	SUBSCRIPTION_ACTIVE   SubscriptionStatus = "active"
	SUBSCRIPTION_PAST_DUE SubscriptionStatus = "past_due"
	SUBSCRIPTION_CANCELED SubscriptionStatus = "canceled"
)

type CreateReservationRequestBody struct {
	LotID         uint    `json:"lot_id" binding:"required"`
	CarPlate      string  `json:"car_plate" binding:"required"`
	ExpectedHours uint    `json:"expected_hours,omitempty" binding:"omitempty,min=1,max=24"`
	ArrivalTime   *string `json:"arrival_time,omitempty" binding:"omitempty,arrivaldate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type CreateLotRequestBody struct {
	Name      string   `json:"name" binding:"required"`
	Address   string   `json:"address" binding:"required"`
	Capacity  uint     `json:"capacity" binding:"required,min=1"`
	Hourly    float64  `json:"hourly" binding:"required,gt=0"`
	DailyMax  *float64 `json:"daily_max,omitempty" binding:"omitempty,gt=0"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type UpdateLotRequestBody struct {
	Name     *string  `json:"name,omitempty"`
	Address  *string  `json:"address,omitempty"`
	Hourly   *float64 `json:"hourly,omitempty" binding:"omitempty,gt=0"`
	DailyMax *float64 `json:"daily_max,omitempty" binding:"omitempty,gt=0"`
}

type AdjustAvailabilityRequestBody struct {
	Delta int `json:"delta" binding:"required"`
}

type CreateSubscriptionRequestBody struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

type NearbyLotsQuery struct {
	Latitude  float64 `form:"lat" binding:"required"`
	Longitude float64 `form:"lng" binding:"required"`
	RadiusKm  float64 `form:"radius_km,omitempty" binding:"omitempty,gt=0"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type ReservationURIParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ReservationSummary is the booking response payload: lot snapshot,
// arrival window and the frozen fee breakdown.
type ReservationSummary struct {
	ID             string    `json:"id"`
	State          string    `json:"state"`
	LotID          uint      `json:"lot_id"`
	LotName        string    `json:"lot_name"`
	LotAddress     string    `json:"lot_address"`
	CarPlate       string    `json:"car_plate"`
	ArrivalStart   time.Time `json:"arrival_start"`
	ArrivalEnd     time.Time `json:"arrival_end"`
	Hourly         float64   `json:"hourly"`
	ExpectedHours  uint      `json:"expected_hours"`
	ReservationPct float64   `json:"reservation_pct"`
	ReservationFee float64   `json:"reservation_fee"`
	Currency       string    `json:"currency"`
}

type CheckoutBreakdown struct {
	ParkingHours    uint    `json:"parking_hours"`
	HourlyRate      float64 `json:"hourly_rate"`
	TotalAmount     float64 `json:"total_amount"`
	FeePaid         float64 `json:"fee_paid"`
	RemainingAmount float64 `json:"remaining_amount"`
}

type RefundBreakdown struct {
	FeePaid      float64 `json:"fee_paid"`
	RefundAmount float64 `json:"refund_amount"`
	RefundPct    float64 `json:"refund_pct"`
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)
