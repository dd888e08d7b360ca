package admin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"techlam/internal/authctx"
	"techlam/internal/content"
	apperrors "techlam/internal/errors"
	"techlam/internal/model"
)

func TestViewOf(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	tests := []struct {
		name  string
		state authctx.State
		want  View
	}{
		{"startup", authctx.State{Loading: true}, ViewLoading},
		{"role pending", authctx.State{Loading: true, User: user, Role: model.RoleAdmin}, ViewLoading},
		{"signed out", authctx.State{}, ViewUnauthenticated},
		{"no role", authctx.State{User: user, Role: model.RoleNone}, ViewDenied},
		{"editor", authctx.State{User: user, Role: model.RoleEditor}, ViewEditor},
		{"admin", authctx.State{User: user, Role: model.RoleAdmin}, ViewAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ViewOf(tt.state))
		})
	}
}

func TestView_Allows(t *testing.T) {
	tests := []struct {
		view    View
		content bool
		users   bool
	}{
		{ViewUnauthenticated, false, false},
		{ViewLoading, false, false},
		{ViewDenied, false, false},
		{ViewEditor, true, false},
		{ViewAdmin, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			assert.Equal(t, tt.content, tt.view.Allows(TabProjects))
			assert.Equal(t, tt.content, tt.view.Allows(TabContact))
			assert.Equal(t, tt.users, tt.view.Allows(TabUsers))
		})
	}
}

func mountedSurface(t *testing.T, auth *fakeAuth, repo *MockContentRepository) *Surface {
	t.Helper()
	s := NewSurface(auth, repo, nil)
	require.NoError(t, s.Mount(context.Background()))
	t.Cleanup(s.Unmount)
	return s
}

func expectRefresh(repo *MockContentRepository, projects []model.Project, info *model.ContactInfo) {
	repo.On("ListProjects", mock.Anything).Return(projects, nil)
	if info == nil {
		repo.On("GetContactInfo", mock.Anything).Return(nil, apperrors.ErrContactInfoNotFound)
		return
	}
	repo.On("GetContactInfo", mock.Anything).Return(info, nil)
}

func TestSurface_DeniedWithoutRole(t *testing.T) {
	repo := new(MockContentRepository)
	s := mountedSurface(t, newFakeAuth(model.RoleNone), repo)

	assert.Equal(t, ViewDenied, s.View())
	assert.ErrorIs(t, s.Refresh(context.Background()), apperrors.ErrForbidden)
	assert.ErrorIs(t, s.SaveProject(context.Background()), apperrors.ErrForbidden)
	assert.ErrorIs(t, s.SaveContact(context.Background()), apperrors.ErrForbidden)
	repo.AssertNotCalled(t, "ListProjects", mock.Anything)
	repo.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestSurface_GateErrors(t *testing.T) {
	repo := new(MockContentRepository)
	auth := newFakeAuth(model.RoleEditor)
	auth.st = authctx.State{Loading: true}
	s := NewSurface(auth, repo, nil)

	require.NoError(t, s.Mount(context.Background()))
	defer s.Unmount()
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrAccessPending)

	auth.set(authctx.State{})
	assert.ErrorIs(t, s.Refresh(context.Background()), apperrors.ErrUnauthenticated)

	unmounted := NewSurface(newFakeAuth(model.RoleAdmin), repo, nil)
	assert.ErrorIs(t, unmounted.Refresh(context.Background()), ErrNotMounted)
	repo.AssertNotCalled(t, "ListProjects", mock.Anything)
}

func TestSurface_MountLoadsData(t *testing.T) {
	repo := new(MockContentRepository)
	phone := "+254 700 000 001"
	projects := []model.Project{{ID: uuid.New(), Title: "Hospital PV", DisplayOrder: 1}}
	expectRefresh(repo, projects, &model.ContactInfo{ID: uuid.New(), Phone: &phone})

	s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)

	snap := s.Snapshot()
	assert.Equal(t, ViewEditor, snap.View)
	assert.False(t, snap.LoadingData)
	assert.Equal(t, projects, snap.Projects)
	require.NotNil(t, snap.ContactForm.Phone)
	assert.Equal(t, phone, *snap.ContactForm.Phone)
}

func TestSurface_MissingContactInfoIsEmptyForm(t *testing.T) {
	repo := new(MockContentRepository)
	expectRefresh(repo, []model.Project{}, nil)

	s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)
	snap := s.Snapshot()
	assert.Nil(t, snap.ContactInfo)
	assert.Equal(t, content.ContactFields{}, snap.ContactForm)
	assert.Empty(t, s.Notifications())
}

func TestSurface_SaveProject(t *testing.T) {
	t.Run("success resets the form and refreshes", func(t *testing.T) {
		repo := new(MockContentRepository)
		expectRefresh(repo, []model.Project{}, nil)
		s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)

		fields := content.ProjectFields{Title: "School PV"}
		repo.On("CreateProject", mock.Anything, fields).Return(&model.Project{ID: uuid.New(), Title: "School PV"}, nil)

		s.SetProjectFields(fields)
		require.NoError(t, s.SaveProject(context.Background()))

		assert.Equal(t, ProjectForm{}, s.Snapshot().ProjectForm)
		assert.Equal(t, []Notification{{Title: "Project created successfully"}}, s.Notifications())
		repo.AssertNumberOfCalls(t, "ListProjects", 2)
	})

	t.Run("failure preserves the form", func(t *testing.T) {
		repo := new(MockContentRepository)
		expectRefresh(repo, []model.Project{}, nil)
		s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)

		id := uuid.New()
		existing := model.Project{ID: id, Title: "Borehole pump", Category: content.String("Water"), DisplayOrder: 4}
		repo.On("UpdateProject", mock.Anything, id, mock.Anything).Return(nil, errors.New("network is unreachable"))

		s.EditProject(existing)
		before := s.Snapshot().ProjectForm
		err := s.SaveProject(context.Background())
		require.Error(t, err)

		assert.Equal(t, before, s.Snapshot().ProjectForm)
		notes := s.Notifications()
		require.Len(t, notes, 1)
		assert.Equal(t, "Update failed", notes[0].Title)
		assert.True(t, notes[0].Failed)
		assert.Contains(t, notes[0].Detail, "network is unreachable")
		repo.AssertNumberOfCalls(t, "ListProjects", 1)
	})

	t.Run("empty title", func(t *testing.T) {
		repo := new(MockContentRepository)
		expectRefresh(repo, []model.Project{}, nil)
		repo.On("CreateProject", mock.Anything, mock.Anything).Return(nil, apperrors.ErrTitleRequired)
		s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)

		s.SetProjectFields(content.ProjectFields{Location: content.String("Karen")})
		assert.ErrorIs(t, s.SaveProject(context.Background()), apperrors.ErrTitleRequired)

		notes := s.Notifications()
		require.Len(t, notes, 1)
		assert.Equal(t, Notification{Title: "Title required", Detail: MsgTitleRequired, Failed: true}, notes[0])
		assert.Equal(t, "Karen", *s.Snapshot().ProjectForm.Fields.Location)
	})
}

func TestSurface_DeleteProjectRefreshes(t *testing.T) {
	repo := new(MockContentRepository)
	expectRefresh(repo, []model.Project{}, nil)
	s := mountedSurface(t, newFakeAuth(model.RoleAdmin), repo)

	missing := uuid.New()
	repo.On("DeleteProject", mock.Anything, missing).Return(apperrors.ErrProjectNotFound)
	err := s.DeleteProject(context.Background(), missing)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	assert.Equal(t, []Notification{{Title: "Delete failed", Detail: MsgProjectNotFound, Failed: true}}, s.Notifications())

	id := uuid.New()
	repo.On("DeleteProject", mock.Anything, id).Return(nil)
	s.EditProject(model.Project{ID: id, Title: "Old"})
	require.NoError(t, s.DeleteProject(context.Background(), id))
	assert.Nil(t, s.Snapshot().ProjectForm.Editing)
	repo.AssertNumberOfCalls(t, "ListProjects", 2)
}

func TestSurface_SaveContact(t *testing.T) {
	repo := new(MockContentRepository)
	expectRefresh(repo, []model.Project{}, nil)
	s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)

	fields := content.ContactFields{Email: content.String("info@example.com")}
	repo.On("UpsertContactInfo", mock.Anything, fields).Return(&model.ContactInfo{ID: uuid.New(), Email: fields.Email}, nil)

	s.SetContactFields(fields)
	require.NoError(t, s.SaveContact(context.Background()))
	assert.Equal(t, []Notification{{Title: "Contact info saved"}}, s.Notifications())
	repo.AssertNumberOfCalls(t, "GetContactInfo", 2)
}

func TestSurface_UploadImageKeepsPreviousURLOnFailure(t *testing.T) {
	repo := new(MockContentRepository)
	expectRefresh(repo, []model.Project{}, nil)
	s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)

	previous := "http://cdn.test/old.png"
	s.SetProjectFields(content.ProjectFields{Title: "Rooftop", ImageURL: &previous})

	repo.On("UploadProjectImage", mock.Anything, "big.png", mock.Anything).Return("", errors.New("quota exceeded")).Once()
	require.Error(t, s.UploadImage(context.Background(), "big.png", bytes.NewReader(nil)))
	snap := s.Snapshot()
	assert.False(t, snap.Uploading)
	assert.Equal(t, previous, *snap.ProjectForm.Fields.ImageURL)
	assert.Equal(t, "Rooftop", snap.ProjectForm.Fields.Title)
	assert.Equal(t, "Upload failed", s.Notifications()[0].Title)

	repo.On("UploadProjectImage", mock.Anything, "new.png", mock.Anything).Return("http://cdn.test/new.png", nil).Once()
	require.NoError(t, s.UploadImage(context.Background(), "new.png", bytes.NewReader(nil)))
	assert.Equal(t, "http://cdn.test/new.png", *s.Snapshot().ProjectForm.Fields.ImageURL)
	assert.Equal(t, []Notification{{Title: "Image uploaded successfully"}}, s.Notifications())
}

func TestSurface_UsersTab(t *testing.T) {
	repo := new(MockContentRepository)
	expectRefresh(repo, []model.Project{}, nil)

	editor := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)
	_, err := editor.LoadUsers(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	repo.AssertNotCalled(t, "ListUsers", mock.Anything)

	repo.On("ListUsers", mock.Anything).Return(nil, apperrors.ErrNotImplemented)
	admin := mountedSurface(t, newFakeAuth(model.RoleAdmin), repo)
	users, err := admin.LoadUsers(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotImplemented)
	assert.Nil(t, users)
	assert.Equal(t, []Notification{{Title: "Users", Detail: MsgUsersUnavailable, Failed: true}}, admin.Notifications())
}

func TestSurface_LoadEnquiries(t *testing.T) {
	repo := new(MockContentRepository)
	expectRefresh(repo, []model.Project{}, nil)
	enquiries := []model.Enquiry{{ID: uuid.New(), Name: "Jane", Email: "jane@example.com", Message: "Quote please"}}
	repo.On("ListEnquiries", mock.Anything, 20).Return(enquiries, nil)

	s := mountedSurface(t, newFakeAuth(model.RoleEditor), repo)
	require.NoError(t, s.LoadEnquiries(context.Background(), 20))
	assert.Equal(t, enquiries, s.Snapshot().Enquiries)
}

func TestSurface_UnmountDiscardsInFlightResult(t *testing.T) {
	repo := new(MockContentRepository)
	auth := newFakeAuth(model.RoleEditor)
	s := NewSurface(auth, repo, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	repo.On("ListProjects", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]model.Project{{ID: uuid.New(), Title: "Late"}}, nil)
	repo.On("GetContactInfo", mock.Anything).Return(nil, apperrors.ErrContactInfoNotFound)

	done := make(chan error, 1)
	go func() { done <- s.Mount(context.Background()) }()

	<-started
	s.Unmount()
	close(release)

	require.NoError(t, <-done)
	snap := s.Snapshot()
	assert.Empty(t, snap.Projects)
	assert.Empty(t, s.Notifications())
	assert.Zero(t, auth.subscribers())
}

func TestSurface_RemountClearsBusyFlags(t *testing.T) {
	t.Run("upload finishing after unmount", func(t *testing.T) {
		repo := new(MockContentRepository)
		expectRefresh(repo, []model.Project{}, nil)
		auth := newFakeAuth(model.RoleEditor)
		s := NewSurface(auth, repo, nil)
		require.NoError(t, s.Mount(context.Background()))

		started := make(chan struct{})
		release := make(chan struct{})
		repo.On("UploadProjectImage", mock.Anything, "panel.png", mock.Anything).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return("http://cdn.test/late.png", nil)

		done := make(chan error, 1)
		go func() { done <- s.UploadImage(context.Background(), "panel.png", bytes.NewReader(nil)) }()
		<-started
		require.True(t, s.Snapshot().Uploading)

		s.Unmount()
		close(release)
		require.NoError(t, <-done)

		auth.set(authctx.State{User: auth.State().User})
		require.NoError(t, s.Mount(context.Background()))
		defer s.Unmount()

		snap := s.Snapshot()
		assert.Equal(t, ViewDenied, snap.View)
		assert.False(t, snap.Uploading)
		assert.False(t, snap.LoadingData)
		assert.Nil(t, snap.ProjectForm.Fields.ImageURL)
	})

	t.Run("load finishing after unmount", func(t *testing.T) {
		repo := new(MockContentRepository)
		auth := newFakeAuth(model.RoleEditor)
		s := NewSurface(auth, repo, nil)

		started := make(chan struct{})
		release := make(chan struct{})
		repo.On("ListProjects", mock.Anything).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return([]model.Project{}, nil).Once()
		repo.On("GetContactInfo", mock.Anything).Return(nil, apperrors.ErrContactInfoNotFound)

		done := make(chan error, 1)
		go func() { done <- s.Mount(context.Background()) }()
		<-started
		require.True(t, s.Snapshot().LoadingData)

		s.Unmount()
		assert.False(t, s.Snapshot().LoadingData)
		close(release)
		require.NoError(t, <-done)

		auth.set(authctx.State{User: auth.State().User})
		require.NoError(t, s.Mount(context.Background()))
		defer s.Unmount()

		snap := s.Snapshot()
		assert.Equal(t, ViewDenied, snap.View)
		assert.False(t, snap.LoadingData)
		assert.False(t, snap.Uploading)
		repo.AssertNumberOfCalls(t, "ListProjects", 1)
	})
}

func TestSurface_SignOutClearsData(t *testing.T) {
	repo := new(MockContentRepository)
	phone := "123"
	expectRefresh(repo, []model.Project{{ID: uuid.New(), Title: "Visible"}}, &model.ContactInfo{Phone: &phone})
	auth := newFakeAuth(model.RoleEditor)
	s := mountedSurface(t, auth, repo)
	s.SetProjectFields(content.ProjectFields{Title: "Draft"})
	require.NotEmpty(t, s.Snapshot().Projects)

	auth.set(authctx.State{})

	snap := s.Snapshot()
	assert.Equal(t, ViewUnauthenticated, snap.View)
	assert.Empty(t, snap.Projects)
	assert.Nil(t, snap.ContactInfo)
	assert.Equal(t, ProjectForm{}, snap.ProjectForm)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sign-in kind", &authctx.AuthError{Kind: authctx.KindInvalidCredentials, Err: errors.New("x")}, MsgInvalidCredentials},
		{"unverified", &authctx.AuthError{Kind: authctx.KindEmailNotVerified, Err: errors.New("x")}, MsgEmailNotVerified},
		{"already registered", &authctx.AuthError{Kind: authctx.KindAlreadyRegistered, Err: errors.New("x")}, MsgAlreadyRegistered},
		{"bare sentinel", apperrors.ErrInvalidCredentials, MsgInvalidCredentials},
		{"forbidden", apperrors.ErrForbidden, MsgForbidden},
		{"validation", apperrors.NewValidationError("email", "must be a valid email address"), "Please check the form: email: must be a valid email address"},
		{"unknown", errors.New("upstream timeout"), MsgGeneric + " (upstream timeout)"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
