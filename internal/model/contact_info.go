package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactInfoSlot is the only slot value a contact_info row may hold.
// The unique index on slot keeps the table a singleton.
const ContactInfoSlot = 1

// ContactInfo holds the business contact details displayed on the website.
type ContactInfo struct {
	ID              uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Slot            int        `json:"-" gorm:"uniqueIndex;not null"`
	Phone           *string    `json:"phone" gorm:"size:64"`
	Email           *string    `json:"email" gorm:"size:255"`
	Address         *string    `json:"address" gorm:"type:text"`
	WhatsApp        *string    `json:"whatsapp" gorm:"column:whatsapp;size:64"`
	GoogleMapsEmbed *string    `json:"google_maps_embed" gorm:"column:google_maps_embed;type:text"`
	UpdatedBy       *uuid.UUID `json:"updated_by" gorm:"type:char(36)"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ContactInfo.
func (ContactInfo) TableName() string {
	return "contact_info"
}

// BeforeCreate sets UUID and the singleton slot before creating the record.
func (c *ContactInfo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Slot = ContactInfoSlot
	return nil
}
