package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "techlam/internal/errors"
	"techlam/internal/model"
)

// ProjectFilter narrows a project listing. Zero value lists everything.
type ProjectFilter struct {
	Category     *string
	FeaturedOnly bool
}

// ProjectRepository defines project persistence operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id uuid.UUID, apply func(*model.Project)) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByImageURL(ctx context.Context, url string) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create creates a new project.
func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FindByID finds a project by ID.
func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, notFound(err, apperrors.ErrProjectNotFound)
	}
	return &project, nil
}

// List returns projects by display_order, in insertion order within the same display_order.
func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	q := r.db.WithContext(ctx).Model(&model.Project{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}

	projects := make([]model.Project, 0)
	if err := q.Order("display_order ASC").Order("seq ASC").Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Categories returns the distinct non-null categories in alphabetical order.
func (r *projectRepository) Categories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("category IS NOT NULL").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// Update loads the project, applies the change and saves every column. Concurrent updates are
// not detected; the last save wins.
func (r *projectRepository) Update(ctx context.Context, id uuid.UUID, apply func(*model.Project)) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&project).Error; err != nil {
			return notFound(err, apperrors.ErrProjectNotFound)
		}
		apply(&project)
		project.ID = id
		return tx.Save(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete permanently removes a project.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// CountByImageURL returns how many projects use url as their image.
func (r *projectRepository) CountByImageURL(ctx context.Context, url string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Project{}).Where("image_url = ?", url).Count(&count).Error
	return count, err
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
