package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"techlam/internal/content"
	"techlam/internal/metrics"
	"techlam/internal/model"
	"techlam/internal/repository"
)

// ContactService reads and writes the contact info singleton.
type ContactService interface {
	Get(ctx context.Context) (*model.ContactInfo, error)
	Upsert(ctx context.Context, fields content.ContactFields, updatedBy uuid.UUID) (*model.ContactInfo, error)
}

type contactService struct {
	repo    repository.ContactInfoRepository
	metrics metrics.MetricsCollector
}

// NewContactService creates a new contact info service.
func NewContactService(repo repository.ContactInfoRepository, collector metrics.MetricsCollector) ContactService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &contactService{repo: repo, metrics: collector}
}

func (s *contactService) Get(ctx context.Context) (*model.ContactInfo, error) {
	return s.repo.Get(ctx)
}

// Upsert overwrites every field of the singleton. Concurrent writers are not serialised; the
// last one wins.
func (s *contactService) Upsert(ctx context.Context, fields content.ContactFields, updatedBy uuid.UUID) (*model.ContactInfo, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if fields.GoogleMapsEmbed != nil {
		embed, err := content.MapsEmbedURL(*fields.GoogleMapsEmbed)
		if err != nil {
			return nil, err
		}
		fields.GoogleMapsEmbed = &embed
	}

	info := &model.ContactInfo{
		Phone:           fields.Phone,
		Email:           fields.Email,
		Address:         fields.Address,
		WhatsApp:        fields.WhatsApp,
		GoogleMapsEmbed: fields.GoogleMapsEmbed,
	}
	if updatedBy != uuid.Nil {
		info.UpdatedBy = &updatedBy
	}

	saved, err := s.repo.Upsert(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("upsert contact info: %w", err)
	}
	s.metrics.RecordContentMutation("contact_info", "upsert")
	return saved, nil
}
