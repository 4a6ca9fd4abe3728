package services

import (
	"fmt"
	"time"

	"agency-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventService keeps an audit row per gateway event. Rows are keyed by
// (reference, event type); a gateway retry of the same event does not create
// a second row.
type WebhookEventService struct {
	DB *gorm.DB
}

func NewWebhookEventService(db *gorm.DB) *WebhookEventService {
	return &WebhookEventService{DB: db}
}

func (s *WebhookEventService) Record(eventType, reference string, transactionID int64, sourceIP string, payload []byte) error {
	row := models.WebhookEvent{
		EventType:     eventType,
		Reference:     reference,
		TransactionID: transactionID,
		SourceIP:      sourceIP,
		Payload:       datatypes.JSON(payload),
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

// MarkProcessed stamps the audit row with the reconciliation outcome.
func (s *WebhookEventService) MarkProcessed(eventType, reference string, procErr error) error {
	updates := map[string]interface{}{"processed_at": time.Now().UTC()}
	if procErr != nil {
		updates["processing_error"] = procErr.Error()
	}
	if err := s.DB.Model(&models.WebhookEvent{}).
		Where("reference = ? AND event_type = ?", reference, eventType).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	return nil
}
