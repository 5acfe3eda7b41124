package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// Booking policy. Arrival window and cancellation tiers are fixed; the
// reservation fee percentage is per-deployment.
const (
	ArrivalGraceWindow   = 30 * time.Minute
	FreeCancelGrace      = 5 * time.Minute
	HalfRefundLeadTime   = 15 * time.Minute
	PendingPaymentTTL    = 10 * time.Minute
	DefaultExpectedHours = 2
)

const DefaultReservationFeePct = 0.12

// ReservationFeePct is the fraction of the hourly rate charged up front
// at booking time. Frozen onto the reservation record at creation.
func ReservationFeePct() float64 {
	v := os.Getenv("RESERVATION_FEE_PCT")
	pct, err := strconv.ParseFloat(v, 64)
	if err != nil || pct <= 0 || pct >= 1 {
		return DefaultReservationFeePct
	}
	return pct
}

func Currency() string {
	c := os.Getenv("PAYMENT_CURRENCY")
	if c == "" {
		return "brl"
	}
	return c
}

func GAPIKey() string {
	return os.Getenv("GAPI_API_KEY")
}
