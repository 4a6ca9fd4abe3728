package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency-backend/models"
	"agency-backend/paystack"
	"agency-backend/utils"
)

type fakeStore struct {
	inserted  []models.ConsultationBooking
	byRef     map[string]bool
	byID      map[uint]models.ConsultationBooking
	nextID    uint
	insertErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byRef:  make(map[string]bool),
		byID:   make(map[uint]models.ConsultationBooking),
		nextID: 1,
	}
}

func (s *fakeStore) Insert(b *models.ConsultationBooking) (uint, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	if b.PaymentReference != "" && s.byRef[b.PaymentReference] {
		return 0, ErrAlreadyProcessed
	}
	b.ID = s.nextID
	s.nextID++
	s.byRef[b.PaymentReference] = true
	s.byID[b.ID] = *b
	s.inserted = append(s.inserted, *b)
	return b.ID, nil
}

func (s *fakeStore) GetByID(id uint) (models.ConsultationBooking, error) {
	b, ok := s.byID[id]
	if !ok {
		return models.ConsultationBooking{}, ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) UpdateDateTime(id uint, date, timeStr string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	b, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return err
	}
	b.Date = d
	b.Time = timeStr
	s.byID[id] = b
	return nil
}

type sentMail struct {
	kind      utils.NotificationKind
	recipient string
	data      utils.BookingEmailData
}

type fakeNotifier struct {
	sent    []sentMail
	failFor map[utils.NotificationKind]error
}

func (n *fakeNotifier) Send(kind utils.NotificationKind, recipient string, data utils.BookingEmailData) error {
	if err, ok := n.failFor[kind]; ok {
		return err
	}
	n.sent = append(n.sent, sentMail{kind: kind, recipient: recipient, data: data})
	return nil
}

func (n *fakeNotifier) countKind(kind utils.NotificationKind) int {
	count := 0
	for _, m := range n.sent {
		if m.kind == kind {
			count++
		}
	}
	return count
}

type fakeGateway struct {
	data *paystack.TransactionData
	err  error
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*paystack.TransactionData, error) {
	return g.data, g.err
}

func chargeSuccessEvent() paystack.Event {
	return paystack.Event{
		Event: "charge.success",
		Data: paystack.TransactionData{
			ID:        4099260516,
			Status:    "success",
			Reference: "ref_123",
			Amount:    1500000,
			Currency:  "NGN",
			Customer:  paystack.Customer{Email: "jane@x.com"},
			Metadata: paystack.Metadata{
				FullName: "Jane Doe",
				Company:  "Acme",
				Role:     "CTO",
				Phone:    "+2348000000000",
				Country:  "Nigeria",
				Location: "Lagos",
				Address:  "1 Marina Rd",
				Mode:     "Google Meeting",
				Date:     "2025-12-01",
				Time:     "10:00",
				Duration: "30 Minutes",
				Cost:     "15000",
			},
		},
	}
}

func newTestService(store *fakeStore, notifier *fakeNotifier, gateway *fakeGateway) *ReconciliationService {
	return NewReconciliationService(store, nil, notifier, gateway, "admin@agency.com")
}

func TestProcessChargeSuccessPersistsBookingAndNotifies(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	if err := svc.ProcessChargeSuccess(chargeSuccessEvent(), "52.31.139.75"); err != nil {
		t.Fatalf("ProcessChargeSuccess: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(store.inserted))
	}
	b := store.inserted[0]
	if b.Cost != 15000 {
		t.Errorf("cost = %v, want 15000 (amount / 100)", b.Cost)
	}
	if b.Status != 1 {
		t.Errorf("status = %d, want 1", b.Status)
	}
	if b.PaymentReference != "ref_123" {
		t.Errorf("payment_reference = %q", b.PaymentReference)
	}
	if b.TransactionID != 4099260516 {
		t.Errorf("transaction_id = %d", b.TransactionID)
	}
	if b.Email != "jane@x.com" {
		t.Errorf("email = %q, want the gateway customer email", b.Email)
	}
	if b.Date.Format("2006-01-02") != "2025-12-01" {
		t.Errorf("date = %s", b.Date.Format("2006-01-02"))
	}

	if got := notifier.countKind(utils.NotificationBookingConfirmation); got != 1 {
		t.Errorf("confirmation emails = %d, want 1", got)
	}
	if got := notifier.countKind(utils.NotificationAdminBookingNotice); got != 1 {
		t.Errorf("admin notices = %d, want 1", got)
	}
}

func TestProcessChargeSuccessIsIdempotent(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	event := chargeSuccessEvent()
	if err := svc.ProcessChargeSuccess(event, "52.31.139.75"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.ProcessChargeSuccess(event, "52.31.139.75"); err != nil {
		t.Fatalf("retry delivery should be a no-op, got %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected exactly 1 booking after duplicate delivery, got %d", len(store.inserted))
	}
	if got := notifier.countKind(utils.NotificationBookingConfirmation); got != 1 {
		t.Errorf("confirmation emails = %d, want 1 after retry", got)
	}
}

func TestProcessIgnoresNonSuccessEvents(t *testing.T) {
	cases := []paystack.Event{
		{Event: "charge.failed", Data: paystack.TransactionData{Status: "failed", Reference: "ref_f"}},
		{Event: "charge.success", Data: paystack.TransactionData{Status: "abandoned", Reference: "ref_a"}},
		{Event: "transfer.success", Data: paystack.TransactionData{Status: "success", Reference: "ref_t"}},
	}

	for _, event := range cases {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := newTestService(store, notifier, nil)

		if err := svc.ProcessChargeSuccess(event, "52.31.139.75"); err != nil {
			t.Errorf("event %s/%s: unexpected error %v", event.Event, event.Data.Status, err)
		}
		if len(store.inserted) != 0 {
			t.Errorf("event %s/%s: booking was inserted", event.Event, event.Data.Status)
		}
		if len(notifier.sent) != 0 {
			t.Errorf("event %s/%s: emails were sent", event.Event, event.Data.Status)
		}
	}
}

func TestProcessSkipsCustomerEmailWhenAddressInvalid(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	event := chargeSuccessEvent()
	event.Data.Customer.Email = "not-an-email"

	if err := svc.ProcessChargeSuccess(event, "52.31.139.75"); err != nil {
		t.Fatalf("ProcessChargeSuccess: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("booking should still be inserted")
	}
	if got := notifier.countKind(utils.NotificationBookingConfirmation); got != 0 {
		t.Errorf("confirmation emails = %d, want 0 for invalid address", got)
	}
	if got := notifier.countKind(utils.NotificationAdminBookingNotice); got != 1 {
		t.Errorf("admin notice should go out regardless, got %d", got)
	}
}

func TestProcessEmailFailureDoesNotUndoBooking(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{failFor: map[utils.NotificationKind]error{
		utils.NotificationBookingConfirmation: errors.New("smtp down"),
	}}
	svc := newTestService(store, notifier, nil)

	if err := svc.ProcessChargeSuccess(chargeSuccessEvent(), "52.31.139.75"); err != nil {
		t.Fatalf("email failure must not fail reconciliation: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("booking must remain persisted")
	}
	if got := notifier.countKind(utils.NotificationAdminBookingNotice); got != 1 {
		t.Errorf("admin notice should still be attempted, got %d", got)
	}
}

func TestVerifyAndReconcileInsertsDefensively(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	event := chargeSuccessEvent()
	gateway := &fakeGateway{data: &event.Data}
	svc := newTestService(store, notifier, gateway)

	result, err := svc.VerifyAndReconcile(context.Background(), "ref_123")
	if err != nil {
		t.Fatalf("VerifyAndReconcile: %v", err)
	}

	if result.Amount != 15000 {
		t.Errorf("display amount = %v, want 15000", result.Amount)
	}
	if result.Currency != "NGN" {
		t.Errorf("currency = %q", result.Currency)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("verify path should insert as a safety net, got %d rows", len(store.inserted))
	}
	if got := notifier.countKind(utils.NotificationBookingConfirmation); got != 1 {
		t.Errorf("fresh verify insert should send confirmation, got %d", got)
	}
}

func TestVerifyAndReconcileAfterWebhookIsANoOp(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	event := chargeSuccessEvent()
	gateway := &fakeGateway{data: &event.Data}
	svc := newTestService(store, notifier, gateway)

	// webhook landed first
	if err := svc.ProcessChargeSuccess(event, "52.31.139.75"); err != nil {
		t.Fatalf("webhook: %v", err)
	}

	result, err := svc.VerifyAndReconcile(context.Background(), "ref_123")
	if err != nil {
		t.Fatalf("verify after webhook: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("status = %q", result.Status)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected exactly 1 booking, got %d", len(store.inserted))
	}
	if got := notifier.countKind(utils.NotificationBookingConfirmation); got != 1 {
		t.Errorf("confirmation must not be re-sent, got %d", got)
	}
}

func TestVerifyAndReconcileReportsNonSuccessStatus(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{data: &paystack.TransactionData{
		Status:    "failed",
		Reference: "ref_123",
		Amount:    1500000,
	}}
	svc := newTestService(store, &fakeNotifier{}, gateway)

	result, err := svc.VerifyAndReconcile(context.Background(), "ref_123")
	if !errors.Is(err, ErrPaymentNotSuccessful) {
		t.Fatalf("expected ErrPaymentNotSuccessful, got %v", err)
	}
	if result == nil || result.Status != "failed" {
		t.Fatalf("caller still needs the display payload, got %+v", result)
	}
	if len(store.inserted) != 0 {
		t.Errorf("no booking may be inserted for a failed payment")
	}
}

func TestVerifyAndReconcilePassesGatewayErrorThrough(t *testing.T) {
	gwErr := &paystack.GatewayError{StatusCode: 400, Message: "Invalid key"}
	svc := newTestService(newFakeStore(), &fakeNotifier{}, &fakeGateway{err: gwErr})

	_, err := svc.VerifyAndReconcile(context.Background(), "ref_123")
	var got *paystack.GatewayError
	if !errors.As(err, &got) {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
}

func TestRescheduleUpdatesAndNotifies(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	if err := svc.ProcessChargeSuccess(chargeSuccessEvent(), "52.31.139.75"); err != nil {
		t.Fatalf("setup booking: %v", err)
	}
	notifier.sent = nil

	result, err := svc.Reschedule(1, "2025-12-05", "16:00")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if result.EmailErr != nil {
		t.Fatalf("unexpected email error: %v", result.EmailErr)
	}

	updated, _ := store.GetByID(1)
	if updated.Date.Format("2006-01-02") != "2025-12-05" || updated.Time != "16:00" {
		t.Errorf("booking not moved: %s %s", updated.Date.Format("2006-01-02"), updated.Time)
	}
	if got := notifier.countKind(utils.NotificationConsultationRescheduled); got != 1 {
		t.Errorf("reschedule emails = %d, want 1", got)
	}
}

func TestRescheduleReportsPartialFailure(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{failFor: map[utils.NotificationKind]error{
		utils.NotificationConsultationRescheduled: errors.New("smtp down"),
	}}
	svc := newTestService(store, notifier, nil)

	if err := svc.ProcessChargeSuccess(chargeSuccessEvent(), "52.31.139.75"); err != nil {
		t.Fatalf("setup booking: %v", err)
	}

	result, err := svc.Reschedule(1, "2025-12-05", "16:00")
	if err != nil {
		t.Fatalf("update succeeded, operation must not fail: %v", err)
	}
	if result.EmailErr == nil {
		t.Fatal("expected the email failure to be reported")
	}

	updated, _ := store.GetByID(1)
	if updated.Date.Format("2006-01-02") != "2025-12-05" || updated.Time != "16:00" {
		t.Errorf("update must stand despite email failure: %s %s",
			updated.Date.Format("2006-01-02"), updated.Time)
	}
}

func TestRescheduleUnknownBooking(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, nil)

	_, err := svc.Reschedule(99, "2025-12-05", "16:00")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrepareConsultationSendsLink(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	if err := svc.ProcessChargeSuccess(chargeSuccessEvent(), "52.31.139.75"); err != nil {
		t.Fatalf("setup booking: %v", err)
	}
	notifier.sent = nil

	if err := svc.PrepareConsultation(1, "https://meet.google.com/xyz"); err != nil {
		t.Fatalf("PrepareConsultation: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(notifier.sent))
	}
	mail := notifier.sent[0]
	if mail.kind != utils.NotificationConsultationPrepared {
		t.Errorf("kind = %s", mail.kind)
	}
	if mail.data.ConsultationLink != "https://meet.google.com/xyz" {
		t.Errorf("link = %q", mail.data.ConsultationLink)
	}
}

func TestPrepareConsultationRejectsIncompleteBooking(t *testing.T) {
	store := newFakeStore()
	store.byID[7] = models.ConsultationBooking{
		ID:       7,
		FullName: "Jane Doe",
		// email missing
		Date:     time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Time:     "10:00",
		Duration: "30 Minutes",
		Mode:     "Video Call",
		Cost:     15000,
	}
	svc := newTestService(store, &fakeNotifier{}, nil)

	err := svc.PrepareConsultation(7, "https://meet.google.com/xyz")
	if !errors.Is(err, ErrIncompleteBooking) {
		t.Fatalf("expected ErrIncompleteBooking, got %v", err)
	}
}

func TestPrepareConsultationReportsSendFailure(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{failFor: map[utils.NotificationKind]error{
		utils.NotificationConsultationPrepared: errors.New("smtp down"),
	}}
	svc := newTestService(store, notifier, nil)

	if err := svc.ProcessChargeSuccess(chargeSuccessEvent(), "52.31.139.75"); err != nil {
		t.Fatalf("setup booking: %v", err)
	}

	err := svc.PrepareConsultation(1, "https://meet.google.com/xyz")
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}
}

func TestBookingFromTransactionRejectsBadDate(t *testing.T) {
	event := chargeSuccessEvent()
	event.Data.Metadata.Date = "next tuesday"

	if _, err := bookingFromTransaction(event.Data); err == nil {
		t.Fatal("expected error for unparseable metadata date")
	}
}

func TestParseBookingDateAcceptsDateTimeValues(t *testing.T) {
	cases := []string{"2025-12-01", "2025-12-01T10:00", " 2025-12-01 "}
	for _, raw := range cases {
		d, err := parseBookingDate(raw)
		if err != nil {
			t.Errorf("parseBookingDate(%q): %v", raw, err)
			continue
		}
		if d.Format("2006-01-02") != "2025-12-01" {
			t.Errorf("parseBookingDate(%q) = %s", raw, d.Format("2006-01-02"))
		}
	}
}
