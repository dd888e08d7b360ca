package admin

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"techlam/internal/authctx"
	"techlam/internal/client"
	"techlam/internal/content"
	"techlam/internal/model"
)

// MockAPI is a mock implementation of API.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListProjects(ctx context.Context, q client.ProjectQuery) ([]model.Project, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockAPI) CreateProject(ctx context.Context, fields content.ProjectFields) (*model.Project, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockAPI) UpdateProject(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockAPI) DeleteProject(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) GetContactInfo(ctx context.Context) (*model.ContactInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactInfo), args.Error(1)
}

func (m *MockAPI) UpsertContactInfo(ctx context.Context, fields content.ContactFields) (*model.ContactInfo, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactInfo), args.Error(1)
}

func (m *MockAPI) UploadImage(ctx context.Context, originalName string, r io.Reader) (*client.UploadedImage, error) {
	args := m.Called(ctx, originalName, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.UploadedImage), args.Error(1)
}

func (m *MockAPI) ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Enquiry), args.Error(1)
}

func (m *MockAPI) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockContentRepository is a mock implementation of ContentRepository.
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockContentRepository) CreateProject(ctx context.Context, fields content.ProjectFields) (*model.Project, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockContentRepository) UpdateProject(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockContentRepository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContentRepository) GetContactInfo(ctx context.Context) (*model.ContactInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactInfo), args.Error(1)
}

func (m *MockContentRepository) UpsertContactInfo(ctx context.Context, fields content.ContactFields) (*model.ContactInfo, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactInfo), args.Error(1)
}

func (m *MockContentRepository) UploadProjectImage(ctx context.Context, originalName string, r io.Reader) (string, error) {
	args := m.Called(ctx, originalName, r)
	return args.String(0), args.Error(1)
}

func (m *MockContentRepository) ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Enquiry), args.Error(1)
}

func (m *MockContentRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// fakeAuth is an AuthState whose snapshot the test sets directly.
type fakeAuth struct {
	mu   sync.Mutex
	st   authctx.State
	subs map[int]func(authctx.State)
	next int
}

func newFakeAuth(role model.Role) *fakeAuth {
	return &fakeAuth{
		st:   authctx.State{User: &model.User{ID: uuid.New(), Email: "staff@example.com"}, Role: role},
		subs: make(map[int]func(authctx.State)),
	}
}

func (f *fakeAuth) State() authctx.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeAuth) Subscribe(fn func(authctx.State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeAuth) set(st authctx.State) {
	f.mu.Lock()
	f.st = st
	subs := make([]func(authctx.State), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (f *fakeAuth) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
