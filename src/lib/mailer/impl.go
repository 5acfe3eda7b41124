package mailer

import (
	"fmt"
	"log"
	"os"
	"plm/src/lib"
	"plm/src/types"
)

func sender() (string, string) {
	from := os.Getenv("SMTP_FROM")
	fromName := os.Getenv("SMTP_FROM_NAME")
	if fromName == "" {
		fromName = "Parking"
	}
	return from, fromName
}

// SendReservationConfirmation mails the driver after payment settles.
// Delivery failures are logged and swallowed; the reservation is already
// confirmed by the time this runs.
func SendReservationConfirmation(email string, summary *types.ReservationSummary) {
	from, fromName := sender()
	body := fmt.Sprintf(
		"Your reservation at %s is confirmed.\n\nPlate: %s\nArrive between %s and %s.\nReservation fee paid: %.2f %s\n",
		summary.LotName,
		summary.CarPlate,
		summary.ArrivalStart.Format("2006-01-02 15:04"),
		summary.ArrivalEnd.Format("2006-01-02 15:04"),
		summary.ReservationFee,
		summary.Currency,
	)
	if err := lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       []string{email},
		Subject:  fmt.Sprintf("Reservation confirmed: %s", summary.LotName),
		Body:     body,
	}); err != nil {
		log.Printf("Error sending confirmation email to %s: %s\n", email, err.Error())
	}
}

// SendPaymentFailure notifies the driver that the fee payment failed
// and the reservation has expired.
func SendPaymentFailure(email string, reservationId string) {
	from, fromName := sender()
	body := fmt.Sprintf(
		"We could not process the payment for reservation %s and it has expired. Please book again if you still need the spot.\n",
		reservationId,
	)
	if err := lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       []string{email},
		Subject:  "Payment failed for your reservation",
		Body:     body,
	}); err != nil {
		log.Printf("Error sending payment failure email to %s: %s\n", email, err.Error())
	}
}
