package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"techlam/internal/content"
	"techlam/internal/metrics"
	"techlam/internal/model"
	"techlam/internal/repository"
)

// ProjectService exposes portfolio operations.
type ProjectService interface {
	List(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, fields content.ProjectFields, createdBy uuid.UUID) (*model.Project, error)
	Update(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageRemover deletes a stored image by its public URL.
type ImageRemover interface {
	RemoveURL(ctx context.Context, url string) error
}

// ProjectOption configures a project service.
type ProjectOption func(*projectService)

// WithImageCleanup removes a project's stored image once it is deleted or replaced and no
// other project points at it. Removal failures are logged and never fail the change.
func WithImageCleanup(images ImageRemover, logger *slog.Logger) ProjectOption {
	return func(s *projectService) {
		s.images = images
		if logger != nil {
			s.logger = logger
		}
	}
}

type projectService struct {
	repo    repository.ProjectRepository
	metrics metrics.MetricsCollector
	images  ImageRemover
	logger  *slog.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(repo repository.ProjectRepository, collector metrics.MetricsCollector, opts ...ProjectOption) ProjectService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	s := &projectService{repo: repo, metrics: collector, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *projectService) List(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	filter.Category = content.NullIfBlank(filter.Category)
	projects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *projectService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates fields and stores a new project owned by createdBy.
func (s *projectService) Create(ctx context.Context, fields content.ProjectFields, createdBy uuid.UUID) (*model.Project, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	project := &model.Project{}
	applyProjectFields(project, fields)
	if createdBy != uuid.Nil {
		project.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.metrics.RecordContentMutation("project", "create")
	return project, nil
}

// Update replaces every editable field of the project.
func (s *projectService) Update(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	var previous *string
	project, err := s.repo.Update(ctx, id, func(p *model.Project) {
		previous = p.ImageURL
		applyProjectFields(p, fields)
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	s.metrics.RecordContentMutation("project", "update")
	if previous != nil && (project.ImageURL == nil || *project.ImageURL != *previous) {
		s.releaseImage(ctx, *previous)
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	var imageURL *string
	if s.images != nil {
		project, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		imageURL = project.ImageURL
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.metrics.RecordContentMutation("project", "delete")
	if imageURL != nil {
		s.releaseImage(ctx, *imageURL)
	}
	return nil
}

// releaseImage removes url from storage unless a project still uses it.
func (s *projectService) releaseImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	refs, err := s.repo.CountByImageURL(ctx, url)
	if err != nil {
		s.logger.WarnContext(ctx, "count image references", "url", url, "error", err)
		return
	}
	if refs > 0 {
		return
	}
	if err := s.images.RemoveURL(ctx, url); err != nil {
		s.logger.WarnContext(ctx, "remove unused project image", "url", url, "error", err)
	}
}

func applyProjectFields(p *model.Project, f content.ProjectFields) {
	p.Title = f.Title
	p.Description = f.Description
	p.Category = f.Category
	p.Location = f.Location
	p.Capacity = f.Capacity
	p.ImageURL = f.ImageURL
	p.IsFeatured = f.Featured()
	p.DisplayOrder = f.Order()
}
