package models

import "time"

// WebsiteSetting is a single-row table. SiteURL is what payment callback URLs
// are built from; the contact fields feed outbound emails.
type WebsiteSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SiteName     string    `gorm:"column:site_name;size:255" json:"site_name"`
	SiteURL      string    `gorm:"column:site_url;size:255" json:"site_url"`
	ContactEmail string    `gorm:"column:contact_email;size:150" json:"contact_email"`
	ContactPhone string    `gorm:"column:contact_phone;size:50" json:"contact_phone"`
	Address      string    `gorm:"column:address;type:text" json:"address"`
	Avatar       string    `gorm:"column:avatar;size:255" json:"avatar"`
	Facebook     string    `gorm:"column:facebook;size:255" json:"facebook"`
	Instagram    string    `gorm:"column:instagram;size:255" json:"instagram"`
	Twitter      string    `gorm:"column:twitter;size:255" json:"twitter"`
	Linkedin     string    `gorm:"column:linkedin;size:255" json:"linkedin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WebsiteSetting) TableName() string {
	return "website_settings"
}
