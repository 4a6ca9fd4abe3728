package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"agency-backend/models"
	"agency-backend/paystack"
	"agency-backend/utils"
)

var (
	// ErrPaymentNotSuccessful is returned by VerifyAndReconcile when the
	// gateway reports a terminal state other than success.
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	// ErrIncompleteBooking is returned when a booking is missing a field a
	// notification needs.
	ErrIncompleteBooking = errors.New("booking is missing a required field")
	// ErrNotificationFailed wraps email send failures on paths where the
	// caller is told about them.
	ErrNotificationFailed = errors.New("failed to send notification email")
)

var emailRx = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// BookingStore is the slice of the consultation store reconciliation writes
// through. All booking mutations go through it; there are no ad-hoc queries
// from this layer.
type BookingStore interface {
	Insert(b *models.ConsultationBooking) (uint, error)
	GetByID(id uint) (models.ConsultationBooking, error)
	UpdateDateTime(id uint, date, timeStr string) error
}

// EventRecorder persists webhook audit rows. Failures here are logged, never
// allowed to interfere with reconciliation itself.
type EventRecorder interface {
	Record(eventType, reference string, transactionID int64, sourceIP string, payload []byte) error
	MarkProcessed(eventType, reference string, procErr error) error
}

// Notifier is the outbound email contract. Send failures come back as
// values; they never abort the operation that triggered them.
type Notifier interface {
	Send(kind utils.NotificationKind, recipient string, data utils.BookingEmailData) error
}

// Gateway is the part of the payment client the verify path needs.
type Gateway interface {
	Verify(ctx context.Context, reference string) (*paystack.TransactionData, error)
}

// ReconciliationService turns confirmed payment events into durable bookings
// plus notifications. It is the only writer on the payment path; the store's
// unique payment_reference index keeps the insert at-most-once under
// concurrent webhook deliveries and verify calls.
type ReconciliationService struct {
	Bookings   BookingStore
	Events     EventRecorder
	Notifier   Notifier
	Gateway    Gateway
	AdminEmail string
}

func NewReconciliationService(bookings BookingStore, events EventRecorder, notifier Notifier, gateway Gateway, adminEmail string) *ReconciliationService {
	return &ReconciliationService{
		Bookings:   bookings,
		Events:     events,
		Notifier:   notifier,
		Gateway:    gateway,
		AdminEmail: adminEmail,
	}
}

// ProcessChargeSuccess handles an authenticated webhook event. Anything other
// than charge.success with an inner success status is recorded and ignored.
// The HTTP ack has already gone out by the time this runs, so failures are
// logged rather than returned upstream; a lost booking after confirmed
// payment is an operational alert, not something the gateway can fix by
// retrying forever.
func (r *ReconciliationService) ProcessChargeSuccess(event paystack.Event, sourceIP string) error {
	if r.Events != nil {
		payload, _ := json.Marshal(event)
		if err := r.Events.Record(event.Event, event.Data.Reference, event.Data.ID, sourceIP, payload); err != nil {
			log.Printf("warning: %v", err)
		}
	}

	if event.Event != "charge.success" || event.Data.Status != "success" {
		log.Printf("Ignored webhook event %q with status %q", event.Event, event.Data.Status)
		return nil
	}

	booking, err := bookingFromTransaction(event.Data)
	if err != nil {
		log.Printf("ALERT: cannot build booking from webhook %s: %v", event.Data.Reference, err)
		r.markProcessed(event, err)
		return err
	}

	if _, err := r.Bookings.Insert(&booking); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			log.Printf("Webhook for reference %s already processed, skipping", event.Data.Reference)
			r.markProcessed(event, nil)
			return nil
		}
		log.Printf("ALERT: booking insert failed for paid reference %s: %v", event.Data.Reference, err)
		r.markProcessed(event, err)
		return err
	}

	r.notifyBookingConfirmed(booking)
	r.markProcessed(event, nil)
	return nil
}

// VerificationResult is the display payload the redirect page shows after a
// synchronous verify.
type VerificationResult struct {
	Reference string            `json:"reference"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Customer  paystack.Customer `json:"customer"`
	Metadata  paystack.Metadata `json:"metadata"`
}

// VerifyAndReconcile is the fallback confirmation path for customers coming
// back from the gateway redirect. The webhook remains the primary writer, but
// this path performs the same idempotent insert as a safety net so a lost
// webhook cannot leave a paid customer without a booking. Whichever writer
// lands first sends the notifications; the loser hits the unique key and does
// nothing.
func (r *ReconciliationService) VerifyAndReconcile(ctx context.Context, reference string) (*VerificationResult, error) {
	data, err := r.Gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{
		Reference: data.Reference,
		Amount:    float64(data.Amount) / 100,
		Currency:  data.Currency,
		Status:    data.Status,
		Customer:  data.Customer,
		Metadata:  data.Metadata,
	}

	if data.Status != "success" {
		return result, ErrPaymentNotSuccessful
	}

	booking, buildErr := bookingFromTransaction(*data)
	if buildErr != nil {
		log.Printf("warning: verify path cannot build booking for %s: %v", reference, buildErr)
		return result, nil
	}
	if _, err := r.Bookings.Insert(&booking); err != nil {
		if !errors.Is(err, ErrAlreadyProcessed) {
			log.Printf("ALERT: verify-path booking insert failed for %s: %v", reference, err)
		}
		return result, nil
	}

	r.notifyBookingConfirmed(booking)
	return result, nil
}

// RescheduleResult reports a reschedule that may have succeeded only
// partially: the new slot is persisted but the notification bounced.
type RescheduleResult struct {
	Booking  models.ConsultationBooking
	EmailErr error
}

func (r *ReconciliationService) Reschedule(id uint, date, timeStr string) (RescheduleResult, error) {
	var result RescheduleResult

	if err := r.Bookings.UpdateDateTime(id, date, timeStr); err != nil {
		return result, err
	}

	booking, err := r.Bookings.GetByID(id)
	if err != nil {
		return result, err
	}
	result.Booking = booking

	if err := r.Notifier.Send(utils.NotificationConsultationRescheduled, booking.Email, emailDataFor(booking)); err != nil {
		// the update stands; the caller just gets told the email bounced
		result.EmailErr = err
	}
	return result, nil
}

// PrepareConsultation emails the customer their meeting link. The booking
// must already carry everything the email renders.
func (r *ReconciliationService) PrepareConsultation(id uint, link string) error {
	booking, err := r.Bookings.GetByID(id)
	if err != nil {
		return err
	}

	if field := missingBookingField(booking); field != "" {
		return fmt.Errorf("%w: %s", ErrIncompleteBooking, field)
	}

	data := emailDataFor(booking)
	data.ConsultationLink = link

	if err := r.Notifier.Send(utils.NotificationConsultationPrepared, booking.Email, data); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

func (r *ReconciliationService) notifyBookingConfirmed(booking models.ConsultationBooking) {
	data := emailDataFor(booking)

	if emailRx.MatchString(booking.Email) {
		if err := r.Notifier.Send(utils.NotificationBookingConfirmation, booking.Email, data); err != nil {
			log.Printf("warning: confirmation email to %s failed: %v", booking.Email, err)
		}
	} else {
		log.Printf("warning: no valid customer email for reference %s, skipping confirmation", booking.PaymentReference)
	}

	if r.AdminEmail != "" {
		if err := r.Notifier.Send(utils.NotificationAdminBookingNotice, r.AdminEmail, data); err != nil {
			log.Printf("warning: admin notification email failed: %v", err)
		}
	}
}

func (r *ReconciliationService) markProcessed(event paystack.Event, procErr error) {
	if r.Events == nil {
		return
	}
	if err := r.Events.MarkProcessed(event.Event, event.Data.Reference, procErr); err != nil {
		log.Printf("warning: %v", err)
	}
}

// bookingFromTransaction rebuilds the booking from the metadata the gateway
// echoed back. The amount the gateway confirmed wins over whatever cost the
// form carried.
func bookingFromTransaction(data paystack.TransactionData) (models.ConsultationBooking, error) {
	md := data.Metadata

	date, err := parseBookingDate(md.Date)
	if err != nil {
		return models.ConsultationBooking{}, fmt.Errorf("invalid metadata date %q: %w", md.Date, err)
	}

	return models.ConsultationBooking{
		FullName:          md.FullName,
		Email:             data.Customer.Email,
		Company:           md.Company,
		Role:              md.Role,
		Phone:             md.Phone,
		Whatsapp:          md.Whatsapp,
		Country:           md.Country,
		Location:          md.Location,
		Address:           md.Address,
		Mode:              md.Mode,
		Date:              date,
		Time:              md.Time,
		Duration:          md.Duration,
		Cost:              float64(data.Amount) / 100,
		Status:            1,
		PaymentReference:  data.Reference,
		TransactionID:     data.ID,
		ReferenceWebsites: md.ReferenceWebsites,
		ProjectDetails:    md.ProjectDetails,
	}, nil
}

func parseBookingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "T"); i > 0 {
		raw = raw[:i]
	}
	return time.Parse("2006-01-02", raw)
}

func missingBookingField(b models.ConsultationBooking) string {
	switch {
	case strings.TrimSpace(b.FullName) == "":
		return "full_name"
	case strings.TrimSpace(b.Email) == "":
		return "email"
	case b.Date.IsZero():
		return "date"
	case strings.TrimSpace(b.Time) == "":
		return "time"
	case strings.TrimSpace(b.Duration) == "":
		return "duration"
	case strings.TrimSpace(b.Mode) == "":
		return "mode"
	case b.Cost <= 0:
		return "cost"
	}
	return ""
}

func emailDataFor(b models.ConsultationBooking) utils.BookingEmailData {
	return utils.BookingEmailData{
		FullName:      b.FullName,
		Email:         b.Email,
		Date:          b.Date.Format("2006-01-02"),
		Time:          b.Time,
		Duration:      b.Duration,
		Mode:          b.Mode,
		Cost:          b.Cost,
		TransactionID: b.TransactionID,
	}
}
