package services

import (
	"errors"
	"fmt"
	"time"

	"agency-backend/models"

	"gorm.io/gorm"
)

// ErrInvalidDate signals a date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

// Booking slots are one hour wide, 09:00 through 22:00 inclusive.
const (
	slotFirstHour = 9
	slotCount     = 14
)

type Slot struct {
	Label     string `json:"label"`
	Value     string `json:"value"` // "2006-01-02T15:04"
	Available bool   `json:"available"`
}

type SlotService struct {
	DB *gorm.DB
}

func NewSlotService(db *gorm.DB) *SlotService {
	return &SlotService{DB: db}
}

// SlotsForDate loads the confirmed bookings for the date and derives slot
// availability from them. Nothing is cached; the result is only valid for
// the request that asked.
func (s *SlotService) SlotsForDate(date string) ([]Slot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	var bookings []models.ConsultationBooking
	if err := s.DB.
		Select("time").
		Where("date = ? AND status = ?", date, 1).
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}

	booked := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		booked[normalizeSlotTime(b.Time)] = struct{}{}
	}

	return GenerateSlots(date, time.Now(), booked), nil
}

// GenerateSlots is pure: given a date, the current time and the set of
// consumed "HH:MM" values it produces all 14 candidate slots in order. A slot
// is unavailable if its time is taken for that date, or if the date is today
// and the slot's hour has already started. A date wholly in the past yields
// only unavailable slots.
func GenerateSlots(date string, now time.Time, booked map[string]struct{}) []Slot {
	today := now.Format("2006-01-02")
	nowMinutes := now.Hour()*60 + now.Minute()

	slots := make([]Slot, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		h := slotFirstHour + i
		value := fmt.Sprintf("%02d:00", h)

		past := date < today || (date == today && h*60 <= nowMinutes)
		_, taken := booked[value]

		slots = append(slots, Slot{
			Label:     slotLabel(h),
			Value:     date + "T" + value,
			Available: !past && !taken,
		})
	}
	return slots
}

func slotLabel(h int) string {
	display := h % 12
	if display == 0 {
		display = 12
	}
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	return fmt.Sprintf("%d:00 %s", display, period)
}

// normalizeSlotTime pads "9:00" style values to "09:00" so set lookups match
// regardless of how the row was written.
func normalizeSlotTime(t string) string {
	var h, m int
	if _, err := fmt.Sscanf(t, "%d:%d", &h, &m); err != nil {
		return t
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
