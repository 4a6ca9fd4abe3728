package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent stores every accepted gateway webhook with its raw payload so
// reconciliation problems can be diagnosed after the 200 ack has gone out.
// Reference + EventType is unique; a gateway retry of the same event updates
// the existing row instead of creating another.
type WebhookEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	EventType     string `gorm:"column:event_type;size:100;index:ux_webhook_events_ref_type,unique,priority:2" json:"event_type"`
	Reference     string `gorm:"column:reference;size:128;index:ux_webhook_events_ref_type,unique,priority:1" json:"reference"`
	TransactionID int64  `gorm:"column:transaction_id" json:"transaction_id,omitempty"`
	SourceIP      string `gorm:"column:source_ip;size:45" json:"source_ip,omitempty"`

	Payload datatypes.JSON `gorm:"column:payload" json:"payload"`

	ProcessedAt     *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"column:processing_error;type:text" json:"processing_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
