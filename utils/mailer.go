package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

type NotificationKind string

const (
	NotificationBookingConfirmation     NotificationKind = "booking-confirmation"
	NotificationAdminBookingNotice      NotificationKind = "admin-booking-notice"
	NotificationConsultationPrepared    NotificationKind = "consultation-prepared"
	NotificationConsultationRescheduled NotificationKind = "consultation-rescheduled"
)

// BookingEmailData carries everything the four booking-related emails render.
type BookingEmailData struct {
	FullName         string
	Email            string
	Date             string
	Time             string
	Duration         string
	Mode             string
	Cost             float64
	TransactionID    int64
	ConsultationLink string
	SiteName         string
}

// SMTPMailer sends booking notifications over SMTP. It is constructed once
// in main and injected into whatever needs to notify; there is no package
// level transporter.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	fromName string
}

func NewSMTPMailerFromEnv() *SMTPMailer {
	return &SMTPMailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		fromName: os.Getenv("SMTP_FROM_NAME"),
	}
}

func (m *SMTPMailer) configured() bool {
	return m.host != "" && m.port != "" && m.username != "" && m.password != ""
}

// Send renders and dispatches one notification. With incomplete SMTP config
// it logs the send instead of failing, which keeps local development working
// without a mail account.
func (m *SMTPMailer) Send(kind NotificationKind, recipient string, data BookingEmailData) error {
	subject, intro := mailCopy(kind, data)

	if !m.configured() {
		log.Printf("[MOCK EMAIL] kind:%s to:%s subject:%q", kind, recipient, subject)
		return nil
	}

	plain, html := renderBookingEmail(kind, intro, data)

	from := fmt.Sprintf("%s <%s>", m.fromName, m.username)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	boundary := "----=_BOOKING_EMAIL_BOUNDARY"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(plain + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(html + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	if err := smtp.SendMail(addr, auth, m.username, []string{recipient}, []byte(sb.String())); err != nil {
		log.Printf("Failed to send %s email to %s: %v", kind, recipient, err)
		return err
	}

	log.Printf("%s email sent to %s", kind, recipient)
	return nil
}

func mailCopy(kind NotificationKind, data BookingEmailData) (subject, intro string) {
	name := FormatDisplayName(data.FullName)
	switch kind {
	case NotificationBookingConfirmation:
		return "Congratulation Booking Consultation Successful",
			fmt.Sprintf("Hi %s, your consultation booking is confirmed. We look forward to speaking with you.", name)
	case NotificationAdminBookingNotice:
		return "New Consultation Booking",
			fmt.Sprintf("A new consultation has been booked and paid for by %s (%s).", name, data.Email)
	case NotificationConsultationPrepared:
		return "Your Consultation Is Ready",
			fmt.Sprintf("Hi %s, your consultation has been prepared. Use the link below to join at the scheduled time.", name)
	case NotificationConsultationRescheduled:
		return "Your Consultation Has Been Rescheduled",
			fmt.Sprintf("Hi %s, your consultation has been moved to a new time. The updated details are below.", name)
	default:
		return "Consultation Update", fmt.Sprintf("Hi %s,", name)
	}
}

func renderBookingEmail(kind NotificationKind, intro string, data BookingEmailData) (plain, html string) {
	rows := [][2]string{
		{"Date", data.Date},
		{"Time", FormatTime12Hour(data.Time)},
		{"Duration", data.Duration},
		{"Mode", data.Mode},
	}
	if data.Cost > 0 {
		rows = append(rows, [2]string{"Amount", FormatNaira(data.Cost)})
	}
	if data.TransactionID != 0 {
		rows = append(rows, [2]string{"Transaction ID", fmt.Sprintf("%d", data.TransactionID)})
	}
	if kind == NotificationConsultationPrepared && data.ConsultationLink != "" {
		rows = append(rows, [2]string{"Meeting Link", data.ConsultationLink})
	}

	var pb strings.Builder
	pb.WriteString(intro + "\n\n")
	for _, r := range rows {
		pb.WriteString(fmt.Sprintf("%s: %s\n", r[0], r[1]))
	}

	var hb strings.Builder
	hb.WriteString(`<!doctype html><html><head><meta charset="utf-8"><style>`)
	hb.WriteString(`body { background:#f5f7fb; font-family:Arial, Helvetica, sans-serif; color:#222; }`)
	hb.WriteString(`.card { max-width:640px; margin:20px auto; background:#fff; border:1px solid #e6eef6; padding:24px; border-radius:8px; }`)
	hb.WriteString(`td { padding:6px 12px 6px 0; }`)
	hb.WriteString(`</style></head><body><div class="card">`)
	hb.WriteString("<p>" + intro + "</p><table>")
	for _, r := range rows {
		if r[0] == "Meeting Link" {
			hb.WriteString(fmt.Sprintf(`<tr><td><strong>%s</strong></td><td><a href="%s">%s</a></td></tr>`, r[0], r[1], r[1]))
			continue
		}
		hb.WriteString(fmt.Sprintf("<tr><td><strong>%s</strong></td><td>%s</td></tr>", r[0], r[1]))
	}
	hb.WriteString("</table></div></body></html>")

	return pb.String(), hb.String()
}

// FormatDisplayName title-cases a customer name, falling back to a neutral
// greeting when none was captured.
func FormatDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Valued Customer"
	}
	parts := strings.Fields(strings.ToLower(name))
	for i, p := range parts {
		first, width := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(first)) + p[width:]
	}
	return strings.Join(parts, " ")
}

// FormatTime12Hour turns "14:00" into "2:00 PM". Unparseable values pass
// through unchanged.
func FormatTime12Hour(t string) string {
	var h, m int
	if _, err := fmt.Sscanf(t, "%d:%d", &h, &m); err != nil {
		return t
	}
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, m, period)
}

// FormatNaira renders an amount as "₦15,000.00".
func FormatNaira(amount float64) string {
	cents := int64(amount*100 + 0.5)
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}
	return fmt.Sprintf("₦%s.%02d", grouped.String(), frac)
}
