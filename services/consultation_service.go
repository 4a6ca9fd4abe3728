package services

import (
	"errors"
	"fmt"
	"strings"

	"agency-backend/models"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no booking matches the given id.
	ErrNotFound = errors.New("consultation booking not found")
	// ErrAlreadyProcessed is returned when an insert hits the unique
	// payment_reference index, i.e. a webhook retry or a verify/webhook race
	// for the same payment. Callers treat it as a no-op, not a failure.
	ErrAlreadyProcessed = errors.New("payment reference already processed")
)

// ConsultationService owns consultation_bookings. Double-booking prevention
// is not enforced here; the reconciliation layer decides what gets inserted.
type ConsultationService struct {
	DB *gorm.DB
}

func NewConsultationService(db *gorm.DB) *ConsultationService {
	return &ConsultationService{DB: db}
}

// Insert persists a confirmed booking. It is never called for unconfirmed
// intents; there is no pending row before payment confirmation.
func (s *ConsultationService) Insert(b *models.ConsultationBooking) (uint, error) {
	if err := s.DB.Create(b).Error; err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAlreadyProcessed
		}
		return 0, fmt.Errorf("failed to insert consultation booking: %w", err)
	}
	return b.ID, nil
}

func (s *ConsultationService) GetByID(id uint) (models.ConsultationBooking, error) {
	var b models.ConsultationBooking
	if err := s.DB.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b, ErrNotFound
		}
		return b, fmt.Errorf("failed to load consultation booking %d: %w", id, err)
	}
	return b, nil
}

// ConsultationBookingView mirrors the stored row but carries the date as a
// plain YYYY-MM-DD string, whatever the column type underneath.
type ConsultationBookingView struct {
	ID                uint    `json:"id"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Company           string  `json:"company"`
	Role              string  `json:"role"`
	Phone             string  `json:"phone"`
	Whatsapp          string  `json:"whatsapp,omitempty"`
	Country           string  `json:"country"`
	Location          string  `json:"location"`
	Address           string  `json:"address"`
	Mode              string  `json:"mode"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	Duration          string  `json:"duration"`
	Cost              float64 `json:"cost"`
	ReferenceWebsites string  `json:"reference_websites,omitempty"`
	ProjectDetails    string  `json:"project_details,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func (s *ConsultationService) ListAll() ([]ConsultationBookingView, error) {
	var rows []models.ConsultationBooking
	if err := s.DB.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve consultation bookings: %w", err)
	}

	list := make([]ConsultationBookingView, 0, len(rows))
	for _, b := range rows {
		list = append(list, ConsultationBookingView{
			ID:                b.ID,
			FullName:          b.FullName,
			Email:             b.Email,
			Company:           b.Company,
			Role:              b.Role,
			Phone:             b.Phone,
			Whatsapp:          b.Whatsapp,
			Country:           b.Country,
			Location:          b.Location,
			Address:           b.Address,
			Mode:              b.Mode,
			Date:              b.Date.Format("2006-01-02"),
			Time:              b.Time,
			Duration:          b.Duration,
			Cost:              b.Cost,
			ReferenceWebsites: b.ReferenceWebsites,
			ProjectDetails:    b.ProjectDetails,
			CreatedAt:         b.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return list, nil
}

// UpdateDateTime moves a booking to a new slot. Used by the reschedule flow
// only; the payment flow never touches existing rows.
func (s *ConsultationService) UpdateDateTime(id uint, date, timeStr string) error {
	tx := s.DB.Model(&models.ConsultationBooking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"date": date, "time": timeStr})
	if tx.Error != nil {
		return fmt.Errorf("failed to update consultation booking %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// fallback for drivers that only surface the message
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique constraint")
}
