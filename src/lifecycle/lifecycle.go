package lifecycle

import (
	"errors"
	"fmt"
	"log"
	"math"
	"plm/src/config"
	"plm/src/db"
	"plm/src/lib"
	"plm/src/models"
	"plm/src/types"
	"plm/src/utils"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound       = errors.New("reservation not found")
	ErrInvalidState   = errors.New("operation not allowed in current state")
	ErrLotUnavailable = errors.New("parking lot is not accepting reservations")
	ErrNoCapacity     = errors.New("parking lot has no free spots")
	ErrValidation     = errors.New("invalid request")
	ErrUpstream       = errors.New("payment provider error")
)

// transitions is the only authority on which state changes are legal.
// Availability side effects happen on the confirmed edge (decrement) and
// on checked_out or cancelled-from-confirmed (increment). A no_show
// deliberately leaves the counter alone.
var transitions = map[types.ReservationState][]types.ReservationState{
	types.RESERVATION_PENDING_PAYMENT: {types.RESERVATION_CONFIRMED, types.RESERVATION_EXPIRED, types.RESERVATION_CANCELLED},
	types.RESERVATION_CONFIRMED:       {types.RESERVATION_CHECKED_IN, types.RESERVATION_CANCELLED, types.RESERVATION_NO_SHOW},
	types.RESERVATION_CHECKED_IN:      {types.RESERVATION_CHECKED_OUT},
}

func CanTransition(from, to types.ReservationState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ComputeFee is the up-front reservation fee: a fixed fraction of one
// hour of parking, frozen on the record at booking time.
func ComputeFee(hourly, pct float64) float64 {
	return utils.RoundMoney(hourly * pct)
}

// ComputeRefund applies the cancellation tiers. The lead-time tier is
// checked before the creation-grace tier, so an early cancel made well
// ahead of arrival settles at 50% even inside the grace period.
func ComputeRefund(feePaid float64, createdAt, arrivalStart, now time.Time) types.RefundBreakdown {
	pct := 0.0
	if arrivalStart.Sub(now) >= config.HalfRefundLeadTime {
		pct = 0.5
	} else if now.Sub(createdAt) <= config.FreeCancelGrace {
		pct = 1.0
	}
	return types.RefundBreakdown{
		FeePaid:      feePaid,
		RefundAmount: utils.RoundMoney(feePaid * pct),
		RefundPct:    pct,
	}
}

// ComputeCheckout bills the stay: hours are rounded up with a one hour
// minimum, and the fee already paid is credited against the total. The
// remainder never goes below zero.
func ComputeCheckout(hourly, feePaid float64, checkin, checkout time.Time) types.CheckoutBreakdown {
	hours := uint(math.Ceil(checkout.Sub(checkin).Hours()))
	if hours < 1 {
		hours = 1
	}
	total := utils.RoundMoney(float64(hours) * hourly)
	remaining := utils.RoundMoney(total - feePaid)
	if remaining < 0 {
		remaining = 0
	}
	return types.CheckoutBreakdown{
		ParkingHours:    hours,
		HourlyRate:      hourly,
		TotalAmount:     total,
		FeePaid:         feePaid,
		RemainingAmount: remaining,
	}
}

// Create opens a reservation in pending_payment. Pricing is snapshotted
// from the lot so later rate changes never touch an existing booking.
// No spot is held until payment confirms.
func Create(userId uint, params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	arrivalStart := time.Now()
	if params.ArrivalTime != nil {
		parsed, err := time.Parse(config.TIME_PARSE_FORMAT, *params.ArrivalTime)
		if err != nil {
			log.Printf("Error parsing arrival_time: %s\n", err.Error())
			return nil, fmt.Errorf("%w: bad arrival_time", ErrValidation)
		}
		if parsed.Before(time.Now()) {
			return nil, fmt.Errorf("%w: arrival_time is in the past", ErrValidation)
		}
		arrivalStart = parsed
	}
	expectedHours := params.ExpectedHours
	if expectedHours == 0 {
		expectedHours = config.DefaultExpectedHours
	}

	var reservation models.Reservation
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var lot models.ParkingLot
		if err := tx.
			Where(&models.ParkingLot{ID: params.LotID}).
			First(&lot).
			Error; err != nil {
			return ErrNotFound
		}
		if lot.Status != types.LOT_ACTIVE {
			return ErrLotUnavailable
		}
		if lot.AvailabilityManual <= 0 {
			return ErrNoCapacity
		}
		pct := config.ReservationFeePct()
		reservation = models.Reservation{
			UserID:         userId,
			LotID:          lot.ID,
			State:          types.RESERVATION_PENDING_PAYMENT,
			CarPlate:       params.CarPlate,
			ArrivalStart:   arrivalStart,
			ArrivalEnd:     arrivalStart.Add(config.ArrivalGraceWindow),
			ExpectedHours:  expectedHours,
			Hourly:         lot.Hourly,
			ReservationPct: pct,
			ReservationFee: ComputeFee(lot.Hourly, pct),
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		reservation.Lot = &lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Pay opens a PaymentIntent for the frozen fee and pins its id to the
// reservation. Calling it again before the intent settles returns the
// same intent instead of opening a new one.
func Pay(id uuid.UUID, userId uint) (*models.Reservation, string, error) {
	var reservation models.Reservation
	db := db.GetDb()
	if err := db.
		Where(&models.Reservation{ID: id, UserID: userId}).
		First(&reservation).
		Error; err != nil {
		return nil, "", ErrNotFound
	}
	if reservation.State != types.RESERVATION_PENDING_PAYMENT {
		return nil, "", ErrInvalidState
	}

	intent, err := lib.CreateReservationIntent(
		utils.ToCents(reservation.ReservationFee),
		config.Currency(),
		map[string]string{
			"reservation_id": reservation.ID.String(),
			"lot_id":         fmt.Sprint(reservation.LotID),
		},
	)
	if err != nil {
		log.Printf("Error creating PaymentIntent for reservation %s: %s\n", id, err.Error())
		return nil, "", ErrUpstream
	}
	if err := db.
		Model(&models.Reservation{}).
		Where(&models.Reservation{ID: id}).
		Update("payment_intent_id", intent.ID).
		Error; err != nil {
		return nil, "", err
	}
	reservation.PaymentIntentId = &intent.ID
	return &reservation, intent.ClientSecret, nil
}

// Confirm settles a paid reservation and takes one spot off the lot.
// State flip and counter decrement commit in the same transaction with
// the lot row locked, so two payments for the last spot cannot both
// land. Redelivery of an already applied intent is a no-op.
func Confirm(id uuid.UUID, intentId string) (*models.Reservation, error) {
	var reservation models.Reservation
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			return ErrNotFound
		}
		if reservation.State == types.RESERVATION_CONFIRMED &&
			reservation.PaymentIntentId != nil && *reservation.PaymentIntentId == intentId {
			return nil
		}
		if !CanTransition(reservation.State, types.RESERVATION_CONFIRMED) {
			return ErrInvalidState
		}

		var lot models.ParkingLot
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.ParkingLot{ID: reservation.LotID}).
			First(&lot).
			Error; err != nil {
			return err
		}
		if lot.AvailabilityManual <= 0 {
			return ErrNoCapacity
		}
		if err := tx.
			Model(&models.ParkingLot{}).
			Where(&models.ParkingLot{ID: lot.ID}).
			Update("availability_manual", gorm.Expr("GREATEST(availability_manual - 1, 0)")).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Updates(map[string]any{
				"state":             types.RESERVATION_CONFIRMED,
				"payment_status":    types.PAYMENT_PAID,
				"payment_intent_id": intentId,
			}).Error; err != nil {
			return err
		}
		reservation.State = types.RESERVATION_CONFIRMED
		reservation.PaymentStatus = types.PAYMENT_PAID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Fail settles a failed payment attempt: the reservation expires and
// the failure is recorded on the payment status. Redelivery of the
// failure event for an already expired reservation is a no-op.
func Fail(id uuid.UUID, intentId string) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			return ErrNotFound
		}
		if reservation.State == types.RESERVATION_EXPIRED {
			return nil
		}
		if !CanTransition(reservation.State, types.RESERVATION_EXPIRED) {
			return ErrInvalidState
		}
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Updates(map[string]any{
				"state":             types.RESERVATION_EXPIRED,
				"payment_status":    types.PAYMENT_FAILED,
				"payment_intent_id": intentId,
			}).Error
	})
}

// CheckIn admits the car. Arriving early is fine; arriving after the
// window closes settles the reservation as no_show. That flip has to
// commit, so it returns nil from the transaction and the caller gets
// the state error afterwards. The fee is kept and the spot is not
// released back, since it was held for the whole window.
func CheckIn(id uuid.UUID, userId uint, now time.Time) (*models.Reservation, error) {
	var reservation models.Reservation
	noShow := false
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id, UserID: userId}).
			First(&reservation).
			Error; err != nil {
			return ErrNotFound
		}
		if !CanTransition(reservation.State, types.RESERVATION_CHECKED_IN) {
			return ErrInvalidState
		}
		if now.After(reservation.ArrivalEnd) {
			if err := tx.
				Model(&models.Reservation{}).
				Where(&models.Reservation{ID: id}).
				Update("state", types.RESERVATION_NO_SHOW).
				Error; err != nil {
				return err
			}
			reservation.State = types.RESERVATION_NO_SHOW
			noShow = true
			return nil
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Updates(map[string]any{
				"state":      types.RESERVATION_CHECKED_IN,
				"checkin_at": now,
			}).Error; err != nil {
			return err
		}
		reservation.State = types.RESERVATION_CHECKED_IN
		reservation.CheckinAt = &now
		return nil
	})
	if err != nil {
		return &reservation, err
	}
	if noShow {
		return &reservation, fmt.Errorf("%w: arrival window has closed", ErrInvalidState)
	}
	return &reservation, nil
}

// CheckOut closes the stay, releases the spot and returns the billing
// breakdown. The stay is billed at the lot's current hourly rate; the
// snapshot on the reservation is informational and only the fee is
// frozen. The counter increment is clamped at capacity.
func CheckOut(id uuid.UUID, userId uint, now time.Time) (*models.Reservation, *types.CheckoutBreakdown, error) {
	var reservation models.Reservation
	var breakdown types.CheckoutBreakdown
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id, UserID: userId}).
			First(&reservation).
			Error; err != nil {
			return ErrNotFound
		}
		if !CanTransition(reservation.State, types.RESERVATION_CHECKED_OUT) {
			return ErrInvalidState
		}

		var lot models.ParkingLot
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.ParkingLot{ID: reservation.LotID}).
			First(&lot).
			Error; err != nil {
			return err
		}
		checkin := reservation.ArrivalStart
		if reservation.CheckinAt != nil {
			checkin = *reservation.CheckinAt
		}
		breakdown = ComputeCheckout(lot.Hourly, reservation.ReservationFee, checkin, now)
		if err := tx.
			Model(&models.ParkingLot{}).
			Where(&models.ParkingLot{ID: lot.ID}).
			Update("availability_manual", gorm.Expr("LEAST(availability_manual + 1, capacity)")).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Updates(map[string]any{
				"state":       types.RESERVATION_CHECKED_OUT,
				"checkout_at": now,
			}).Error; err != nil {
			return err
		}
		reservation.State = types.RESERVATION_CHECKED_OUT
		reservation.CheckoutAt = &now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &reservation, &breakdown, nil
}

// Cancel aborts a reservation. Cancelling a confirmed booking gives the
// spot back and settles the fee per the refund tiers; the provider
// refund runs after commit so an upstream failure never rolls back the
// local cancellation.
func Cancel(id uuid.UUID, userId uint, now time.Time) (*models.Reservation, *types.RefundBreakdown, error) {
	var reservation models.Reservation
	var refund types.RefundBreakdown
	wasConfirmed := false
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id, UserID: userId}).
			First(&reservation).
			Error; err != nil {
			return ErrNotFound
		}
		if !CanTransition(reservation.State, types.RESERVATION_CANCELLED) {
			return ErrInvalidState
		}
		wasConfirmed = reservation.State == types.RESERVATION_CONFIRMED
		updates := map[string]any{
			"state": types.RESERVATION_CANCELLED,
		}
		if wasConfirmed {
			refund = ComputeRefund(reservation.ReservationFee, reservation.CreatedAt, reservation.ArrivalStart, now)
			updates["refund_amount"] = refund.RefundAmount
			if refund.RefundAmount > 0 {
				updates["payment_status"] = types.PAYMENT_REFUNDED
			}
			var lot models.ParkingLot
			if err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where(&models.ParkingLot{ID: reservation.LotID}).
				First(&lot).
				Error; err != nil {
				return err
			}
			if err := tx.
				Model(&models.ParkingLot{}).
				Where(&models.ParkingLot{ID: lot.ID}).
				Update("availability_manual", gorm.Expr("LEAST(availability_manual + 1, capacity)")).
				Error; err != nil {
				return err
			}
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Updates(updates).
			Error; err != nil {
			return err
		}
		reservation.State = types.RESERVATION_CANCELLED
		reservation.RefundAmount = refund.RefundAmount
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if wasConfirmed && refund.RefundAmount > 0 && reservation.PaymentIntentId != nil {
		go func(intentId string, amount float64) {
			if _, err := lib.RefundIntent(intentId, utils.ToCents(amount)); err != nil {
				log.Printf("Error refunding intent %s for reservation %s: %s\n", intentId, id, err.Error())
			}
		}(*reservation.PaymentIntentId, refund.RefundAmount)
	}
	return &reservation, &refund, nil
}

// ExpireStalePending sweeps reservations that never paid within the
// hold window. Runs from the scheduler; no availability to give back
// since pending bookings never held a spot.
func ExpireStalePending(ttl time.Duration) {
	db := db.GetDb()
	cutoff := time.Now().Add(-ttl)
	res := db.
		Model(&models.Reservation{}).
		Where("state = ? AND created_at < ?", types.RESERVATION_PENDING_PAYMENT, cutoff).
		Update("state", types.RESERVATION_EXPIRED)
	if res.Error != nil {
		log.Printf("Error expiring stale reservations: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Expired %d stale reservations\n", res.RowsAffected)
	}
}
