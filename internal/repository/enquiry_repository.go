package repository

import (
	"context"

	"gorm.io/gorm"

	"techlam/internal/model"
)

// EnquiryRepository stores contact form messages.
type EnquiryRepository interface {
	Create(ctx context.Context, enquiry *model.Enquiry) error
	ListRecent(ctx context.Context, limit int) ([]model.Enquiry, error)
}

type enquiryRepository struct {
	db *gorm.DB
}

// NewEnquiryRepository creates a new enquiry repository.
func NewEnquiryRepository(db *gorm.DB) EnquiryRepository {
	return &enquiryRepository{db: db}
}

func (r *enquiryRepository) Create(ctx context.Context, enquiry *model.Enquiry) error {
	return r.db.WithContext(ctx).Create(enquiry).Error
}

// ListRecent returns up to limit enquiries, newest first. A non-positive limit means no limit.
func (r *enquiryRepository) ListRecent(ctx context.Context, limit int) ([]model.Enquiry, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	enquiries := make([]model.Enquiry, 0)
	if err := q.Find(&enquiries).Error; err != nil {
		return nil, err
	}
	return enquiries, nil
}
