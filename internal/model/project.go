package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a portfolio entry shown on the public site.
// Nil optional fields are stored as NULL, never as empty strings.
type Project struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Title        string     `json:"title" gorm:"size:255;not null"`
	Description  *string    `json:"description" gorm:"type:text"`
	Category     *string    `json:"category" gorm:"size:100;index"`
	Location     *string    `json:"location" gorm:"size:255"`
	Capacity     *string    `json:"capacity" gorm:"size:100"`
	ImageURL     *string    `json:"image_url" gorm:"column:image_url;size:1024"`
	IsFeatured   bool       `json:"is_featured" gorm:"not null;index"`
	DisplayOrder int        `json:"display_order" gorm:"not null;index"`
	CreatedBy    *uuid.UUID `json:"created_by" gorm:"type:char(36);index"`
	// Seq orders projects that share a display_order by insertion, even when their
	// created_at values collide.
	Seq       int64     `json:"-" gorm:"not null;default:0;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID and insertion sequence before creating the record.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Seq == 0 {
		p.Seq = NextSeq()
	}
	return nil
}

var seqState struct {
	mu   sync.Mutex
	last int64
}

// NextSeq returns a strictly increasing value based on the wall clock in microseconds.
// Values from one process never repeat; across processes they follow insertion time.
func NextSeq() int64 {
	seqState.mu.Lock()
	defer seqState.mu.Unlock()
	next := time.Now().UnixMicro()
	if next <= seqState.last {
		next = seqState.last + 1
	}
	seqState.last = next
	return next
}
