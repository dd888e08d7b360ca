package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "techlam/internal/errors"
	"techlam/internal/model"
)

// ContactInfoRepository reads and writes the contact info singleton.
type ContactInfoRepository interface {
	Get(ctx context.Context) (*model.ContactInfo, error)
	Upsert(ctx context.Context, info *model.ContactInfo) (*model.ContactInfo, error)
}

type contactInfoRepository struct {
	db *gorm.DB
}

// NewContactInfoRepository creates a new contact info repository.
func NewContactInfoRepository(db *gorm.DB) ContactInfoRepository {
	return &contactInfoRepository{db: db}
}

// Get returns the singleton row or ErrContactInfoNotFound.
func (r *contactInfoRepository) Get(ctx context.Context) (*model.ContactInfo, error) {
	var info model.ContactInfo
	if err := r.db.WithContext(ctx).Where("slot = ?", model.ContactInfoSlot).First(&info).Error; err != nil {
		return nil, notFound(err, apperrors.ErrContactInfoNotFound)
	}
	return &info, nil
}

// Upsert inserts the singleton or overwrites every editable column of the existing row.
// The conflict on slot makes two concurrent first writes end in one row.
func (r *contactInfoRepository) Upsert(ctx context.Context, info *model.ContactInfo) (*model.ContactInfo, error) {
	info.Slot = model.ContactInfoSlot
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"phone", "email", "address", "whatsapp", "google_maps_embed", "updated_by", "updated_at",
		}),
	}).Create(info).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}
