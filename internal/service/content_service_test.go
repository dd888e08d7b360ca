package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"techlam/internal/content"
	apperrors "techlam/internal/errors"
	"techlam/internal/model"
	"techlam/internal/repository"
)

func TestRoleResolver_FailsClosed(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name      string
		setupMock func(*MockRoleRepository)
		want      model.Role
	}{
		{
			name: "no row",
			setupMock: func(m *MockRoleRepository) {
				m.On("FindByUserID", mock.Anything, userID).Return(nil, gorm.ErrRecordNotFound)
			},
			want: model.RoleNone,
		},
		{
			name: "query error",
			setupMock: func(m *MockRoleRepository) {
				m.On("FindByUserID", mock.Anything, userID).Return(nil, errors.New("connection refused"))
			},
			want: model.RoleNone,
		},
		{
			name: "unknown stored value",
			setupMock: func(m *MockRoleRepository) {
				m.On("FindByUserID", mock.Anything, userID).Return(&model.UserRole{UserID: userID, Role: "superuser"}, nil)
			},
			want: model.RoleNone,
		},
		{
			name: "editor",
			setupMock: func(m *MockRoleRepository) {
				m.On("FindByUserID", mock.Anything, userID).Return(&model.UserRole{UserID: userID, Role: model.RoleEditor}, nil)
			},
			want: model.RoleEditor,
		},
		{
			name: "admin",
			setupMock: func(m *MockRoleRepository) {
				m.On("FindByUserID", mock.Anything, userID).Return(&model.UserRole{UserID: userID, Role: model.RoleAdmin}, nil)
			},
			want: model.RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRoleRepository)
			tt.setupMock(repo)

			got := NewRoleResolver(repo, nil).Resolve(context.Background(), userID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleResolver_NilUserIsNone(t *testing.T) {
	repo := new(MockRoleRepository)
	assert.Equal(t, model.RoleNone, NewRoleResolver(repo, nil).Resolve(context.Background(), uuid.Nil))
	repo.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestProjectService_CreateRejectsEmptyTitle(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewProjectService(repo, nil)

	_, err := svc.Create(context.Background(), content.ProjectFields{Title: "   ", Category: content.String("Solar")}, uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectService_CreateStoresBlanksAsNull(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewProjectService(repo, nil)
	author := uuid.New()
	blank := ""

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.Title == "Test Site" &&
			p.Category == nil && p.Location == nil && p.Capacity == nil && p.ImageURL == nil &&
			!p.IsFeatured && p.DisplayOrder == 0 &&
			p.CreatedBy != nil && *p.CreatedBy == author
	})).Return(nil)

	project, err := svc.Create(context.Background(), content.ProjectFields{
		Title:    "Test Site",
		Category: &blank,
		Location: content.String("  "),
		Capacity: &blank,
		ImageURL: &blank,
	}, author)

	require.NoError(t, err)
	assert.Equal(t, "Test Site", project.Title)
	repo.AssertExpectations(t)
}

func TestProjectService_UpdateReplacesAllFields(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewProjectService(repo, nil)
	id := uuid.New()
	existing := &model.Project{ID: id, Title: "old", Location: content.String("Nairobi"), IsFeatured: true, DisplayOrder: 5}

	repo.On("Update", mock.Anything, id, mock.Anything).Return(existing, nil)

	order := 2
	updated, err := svc.Update(context.Background(), id, content.ProjectFields{Title: "new", DisplayOrder: &order})

	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Nil(t, updated.Location)
	assert.False(t, updated.IsFeatured)
	assert.Equal(t, 2, updated.DisplayOrder)
}

func TestProjectService_NotFoundPropagates(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewProjectService(repo, nil)
	id := uuid.New()

	repo.On("Update", mock.Anything, id, mock.Anything).Return(nil, apperrors.ErrProjectNotFound)
	repo.On("Delete", mock.Anything, id).Return(apperrors.ErrProjectNotFound)

	_, err := svc.Update(context.Background(), id, content.ProjectFields{Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), id), apperrors.ErrProjectNotFound)
}

func TestProjectService_ImageCleanup(t *testing.T) {
	const oldURL = "http://cdn.test/project-images/old.png"
	tests := []struct {
		name      string
		setupMock func(repo *MockProjectRepository, images *MockImageRemover, id uuid.UUID)
		run       func(svc ProjectService, id uuid.UUID) error
		removed   bool
	}{
		{
			name: "delete removes unused image",
			setupMock: func(repo *MockProjectRepository, images *MockImageRemover, id uuid.UUID) {
				repo.On("FindByID", mock.Anything, id).Return(&model.Project{ID: id, ImageURL: content.String(oldURL)}, nil)
				repo.On("Delete", mock.Anything, id).Return(nil)
				repo.On("CountByImageURL", mock.Anything, oldURL).Return(int64(0), nil)
				images.On("RemoveURL", mock.Anything, oldURL).Return(nil)
			},
			run: func(svc ProjectService, id uuid.UUID) error {
				return svc.Delete(context.Background(), id)
			},
			removed: true,
		},
		{
			name: "delete keeps image shared with another project",
			setupMock: func(repo *MockProjectRepository, images *MockImageRemover, id uuid.UUID) {
				repo.On("FindByID", mock.Anything, id).Return(&model.Project{ID: id, ImageURL: content.String(oldURL)}, nil)
				repo.On("Delete", mock.Anything, id).Return(nil)
				repo.On("CountByImageURL", mock.Anything, oldURL).Return(int64(1), nil)
			},
			run: func(svc ProjectService, id uuid.UUID) error {
				return svc.Delete(context.Background(), id)
			},
		},
		{
			name: "replacing image removes the old one",
			setupMock: func(repo *MockProjectRepository, images *MockImageRemover, id uuid.UUID) {
				repo.On("Update", mock.Anything, id, mock.Anything).Return(&model.Project{ID: id, ImageURL: content.String(oldURL)}, nil)
				repo.On("CountByImageURL", mock.Anything, oldURL).Return(int64(0), nil)
				images.On("RemoveURL", mock.Anything, oldURL).Return(errors.New("bucket offline"))
			},
			run: func(svc ProjectService, id uuid.UUID) error {
				_, err := svc.Update(context.Background(), id, content.ProjectFields{
					Title: "Rooftop", ImageURL: content.String("http://cdn.test/project-images/new.png"),
				})
				return err
			},
			removed: true,
		},
		{
			name: "keeping image leaves storage alone",
			setupMock: func(repo *MockProjectRepository, images *MockImageRemover, id uuid.UUID) {
				repo.On("Update", mock.Anything, id, mock.Anything).Return(&model.Project{ID: id, ImageURL: content.String(oldURL)}, nil)
			},
			run: func(svc ProjectService, id uuid.UUID) error {
				_, err := svc.Update(context.Background(), id, content.ProjectFields{Title: "Rooftop", ImageURL: content.String(oldURL)})
				return err
			},
		},
		{
			name: "missing project is reported before anything is removed",
			setupMock: func(repo *MockProjectRepository, images *MockImageRemover, id uuid.UUID) {
				repo.On("FindByID", mock.Anything, id).Return(nil, apperrors.ErrProjectNotFound)
			},
			run: func(svc ProjectService, id uuid.UUID) error {
				err := svc.Delete(context.Background(), id)
				if !errors.Is(err, apperrors.ErrProjectNotFound) {
					return errors.New("expected ErrProjectNotFound")
				}
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProjectRepository)
			images := new(MockImageRemover)
			id := uuid.New()
			tt.setupMock(repo, images, id)
			svc := NewProjectService(repo, nil, WithImageCleanup(images, slog.New(slog.NewTextHandler(io.Discard, nil))))

			require.NoError(t, tt.run(svc, id))
			if tt.removed {
				images.AssertCalled(t, "RemoveURL", mock.Anything, oldURL)
			} else {
				images.AssertNotCalled(t, "RemoveURL", mock.Anything, mock.Anything)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestProjectService_ListIgnoresBlankCategory(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewProjectService(repo, nil)

	repo.On("List", mock.Anything, repository.ProjectFilter{FeaturedOnly: true}).Return([]model.Project{}, nil)

	_, err := svc.List(context.Background(), repository.ProjectFilter{Category: content.String(""), FeaturedOnly: true})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestContactService_Upsert(t *testing.T) {
	repo := new(MockContactInfoRepository)
	svc := NewContactService(repo, nil)
	editor := uuid.New()
	embed := `<iframe src="https://www.google.com/maps/embed?pb=xyz" width="600"></iframe>`

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.ContactInfo) bool {
		return c.GoogleMapsEmbed != nil && *c.GoogleMapsEmbed == "https://www.google.com/maps/embed?pb=xyz" &&
			c.Phone == nil && c.UpdatedBy != nil && *c.UpdatedBy == editor
	})).Return(&model.ContactInfo{}, nil)

	_, err := svc.Upsert(context.Background(), content.ContactFields{
		Phone:           content.String(""),
		GoogleMapsEmbed: &embed,
	}, editor)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestContactService_UpsertRejectsBadInput(t *testing.T) {
	repo := new(MockContactInfoRepository)
	svc := NewContactService(repo, nil)

	_, err := svc.Upsert(context.Background(), content.ContactFields{Email: content.String("nope")}, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Upsert(context.Background(), content.ContactFields{GoogleMapsEmbed: content.String("https://evil.example.com")}, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestImageService_Upload(t *testing.T) {
	store := new(MockImageStorer)
	svc := NewImageService(store, 1024, nil)

	store.On("Put", mock.Anything, "roof.png", ".png", mock.Anything, int64(len(pngHeader)), "image/png").
		Return("1-abc-roof.png", "http://cdn/project-images/1-abc-roof.png", nil)

	img, err := svc.Upload(context.Background(), "roof.png", bytes.NewReader(pngHeader))

	require.NoError(t, err)
	assert.Equal(t, "http://cdn/project-images/1-abc-roof.png", img.URL)
	assert.Equal(t, "image/png", img.ContentType)
	store.AssertExpectations(t)
}

func TestImageService_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantErr error
	}{
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 64)...), apperrors.ErrImageTooLarge},
		{"empty", nil, apperrors.ErrUnsupportedImage},
		{"not an image", []byte("hello, plain text"), apperrors.ErrUnsupportedImage},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), apperrors.ErrUnsupportedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockImageStorer)
			svc := NewImageService(store, int64(len(pngHeader)+8), nil)

			_, err := svc.Upload(context.Background(), "x.png", bytes.NewReader(tt.body))

			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestImageService_TooLargeMessageIsHumanReadable(t *testing.T) {
	svc := NewImageService(new(MockImageStorer), 5*1024*1024, nil)

	_, err := svc.Upload(context.Background(), "big.png", bytes.NewReader(make([]byte, 5*1024*1024+1)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "5.0 MiB")
}

func TestEnquiryService_SubmitStripsMarkup(t *testing.T) {
	repo := new(MockEnquiryRepository)
	svc := NewEnquiryService(repo, nil)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Enquiry) bool {
		return e.Name == "Amina" && e.Message == "Need a quote for 5kW" && e.Phone == nil
	})).Return(nil)

	_, err := svc.Submit(context.Background(), content.EnquiryFields{
		Name:    "<b>Amina</b>",
		Email:   "amina@example.com",
		Phone:   content.String(" "),
		Message: `Need a quote <script>alert("x")</script>for 5kW`,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEnquiryService_SubmitValidates(t *testing.T) {
	repo := new(MockEnquiryRepository)
	svc := NewEnquiryService(repo, nil)

	_, err := svc.Submit(context.Background(), content.EnquiryFields{Name: "A", Email: "a@example.com", Message: "<p></p>"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnquiryService_ListCapsLimit(t *testing.T) {
	repo := new(MockEnquiryRepository)
	svc := NewEnquiryService(repo, nil)

	repo.On("ListRecent", mock.Anything, 100).Return([]model.Enquiry{}, nil)

	_, err := svc.List(context.Background(), 10000)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.SendVerification(context.Background(), "a@example.com", strings.Repeat("x", 3)))
}
