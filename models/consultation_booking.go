package models

import (
	"time"
)

// ConsultationBooking is only ever persisted after the payment gateway has
// confirmed the charge, so rows always carry Status = 1. PaymentReference is
// the gateway reference for the payment session and carries the unique index
// that makes reconciliation inserts at-most-once under webhook retries.
type ConsultationBooking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FullName string `gorm:"column:full_name;size:255" json:"full_name"`
	Email    string `gorm:"column:email;size:255" json:"email"`
	Company  string `gorm:"column:company;size:255" json:"company"`
	Role     string `gorm:"column:role;size:255" json:"role"`
	Phone    string `gorm:"column:phone;size:50" json:"phone"`
	Whatsapp string `gorm:"column:whatsapp;size:50" json:"whatsapp,omitempty"`
	Country  string `gorm:"column:country;size:100" json:"country"`
	Location string `gorm:"column:location;size:255" json:"location"`
	Address  string `gorm:"column:address;type:text" json:"address"`

	Mode     string    `gorm:"column:mode;size:64" json:"mode"`
	Date     time.Time `gorm:"column:date;type:date" json:"date"`
	Time     string    `gorm:"column:time;size:8" json:"time"`
	Duration string    `gorm:"column:duration;size:32" json:"duration"`

	Cost             float64 `gorm:"column:cost;type:decimal(12,2)" json:"cost"`
	Status           int     `gorm:"column:status;default:0" json:"status"`
	PaymentReference string  `gorm:"column:payment_reference;size:128;uniqueIndex" json:"payment_reference,omitempty"`
	TransactionID    int64   `gorm:"column:transaction_id" json:"transaction_id,omitempty"`

	ReferenceWebsites string `gorm:"column:reference_websites;type:text" json:"reference_websites,omitempty"`
	ProjectDetails    string `gorm:"column:project_details;type:text" json:"project_details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
