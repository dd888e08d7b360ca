package service

import (
	"context"
	"fmt"

	"techlam/internal/content"
	"techlam/internal/metrics"
	"techlam/internal/model"
	"techlam/internal/repository"
)

const defaultEnquiryLimit = 100

// EnquiryService stores and lists contact form messages.
type EnquiryService interface {
	Submit(ctx context.Context, fields content.EnquiryFields) (*model.Enquiry, error)
	List(ctx context.Context, limit int) ([]model.Enquiry, error)
}

type enquiryService struct {
	repo    repository.EnquiryRepository
	metrics metrics.MetricsCollector
}

// NewEnquiryService creates a new enquiry service.
func NewEnquiryService(repo repository.EnquiryRepository, collector metrics.MetricsCollector) EnquiryService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &enquiryService{repo: repo, metrics: collector}
}

// Submit strips markup from the free text fields and stores the enquiry.
func (s *enquiryService) Submit(ctx context.Context, fields content.EnquiryFields) (*model.Enquiry, error) {
	fields.Name = content.PlainText(fields.Name)
	fields.Message = content.PlainText(fields.Message)
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	enquiry := &model.Enquiry{
		Name:    fields.Name,
		Email:   fields.Email,
		Phone:   fields.Phone,
		Message: fields.Message,
	}
	if err := s.repo.Create(ctx, enquiry); err != nil {
		return nil, fmt.Errorf("create enquiry: %w", err)
	}
	s.metrics.RecordEnquiry()
	return enquiry, nil
}

func (s *enquiryService) List(ctx context.Context, limit int) ([]model.Enquiry, error) {
	if limit <= 0 || limit > defaultEnquiryLimit {
		limit = defaultEnquiryLimit
	}
	enquiries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	return enquiries, nil
}
