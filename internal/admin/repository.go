// Package admin is the content-management side of the client: a repository over the API and
// the state of the admin surface built on top of it.
package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"techlam/internal/client"
	"techlam/internal/content"
	"techlam/internal/model"
)

// API is the part of the HTTP client the repository calls. *client.Client implements it.
type API interface {
	ListProjects(ctx context.Context, q client.ProjectQuery) ([]model.Project, error)
	CreateProject(ctx context.Context, fields content.ProjectFields) (*model.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	GetContactInfo(ctx context.Context) (*model.ContactInfo, error)
	UpsertContactInfo(ctx context.Context, fields content.ContactFields) (*model.ContactInfo, error)
	UploadImage(ctx context.Context, originalName string, r io.Reader) (*client.UploadedImage, error)
	ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// ContentRepository shapes inputs and outputs of content calls. Authorization is left to the API.
type ContentRepository interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, fields content.ProjectFields) (*model.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	GetContactInfo(ctx context.Context) (*model.ContactInfo, error)
	UpsertContactInfo(ctx context.Context, fields content.ContactFields) (*model.ContactInfo, error)
	UploadProjectImage(ctx context.Context, originalName string, r io.Reader) (string, error)
	ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type repository struct {
	api API
}

// NewRepository creates a content repository backed by api.
func NewRepository(api API) ContentRepository {
	return &repository{api: api}
}

// ListProjects returns every project in display order. On failure it returns an empty slice
// alongside the error.
func (r *repository) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := r.api.ListProjects(ctx, client.ProjectQuery{})
	if err != nil {
		return []model.Project{}, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

// CreateProject validates fields locally before calling the API, so an empty title never
// leaves the process.
func (r *repository) CreateProject(ctx context.Context, fields content.ProjectFields) (*model.Project, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	project, err := r.api.CreateProject(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (r *repository) UpdateProject(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	project, err := r.api.UpdateProject(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return project, nil
}

func (r *repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := r.api.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

func (r *repository) GetContactInfo(ctx context.Context) (*model.ContactInfo, error) {
	info, err := r.api.GetContactInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contact info: %w", err)
	}
	return info, nil
}

func (r *repository) UpsertContactInfo(ctx context.Context, fields content.ContactFields) (*model.ContactInfo, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	info, err := r.api.UpsertContactInfo(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("save contact info: %w", err)
	}
	return info, nil
}

// UploadProjectImage stores the image and returns its public URL.
func (r *repository) UploadProjectImage(ctx context.Context, originalName string, rd io.Reader) (string, error) {
	img, err := r.api.UploadImage(ctx, originalName, rd)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return img.URL, nil
}

func (r *repository) ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error) {
	enquiries, err := r.api.ListEnquiries(ctx, limit)
	if err != nil {
		return []model.Enquiry{}, fmt.Errorf("list enquiries: %w", err)
	}
	return enquiries, nil
}

func (r *repository) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := r.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
