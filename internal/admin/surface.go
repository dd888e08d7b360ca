package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"techlam/internal/authctx"
	"techlam/internal/content"
	apperrors "techlam/internal/errors"
	"techlam/internal/model"
)

var (
	// ErrNotMounted is returned by surface operations before Mount or after Unmount.
	ErrNotMounted = errors.New("admin surface not mounted")
	// ErrAccessPending is returned while the session or its role is still being resolved.
	ErrAccessPending = errors.New("access not determined yet")
)

// View is the access state of the admin surface.
type View string

const (
	ViewUnauthenticated View = "unauthenticated"
	ViewLoading         View = "loading"
	ViewDenied          View = "denied"
	ViewEditor          View = "editor"
	ViewAdmin           View = "admin"
)

// Tab is a section of the admin surface.
type Tab string

const (
	TabProjects  Tab = "projects"
	TabContact   Tab = "contact"
	TabEnquiries Tab = "enquiries"
	TabUsers     Tab = "users"
)

// ViewOf derives the view from an auth snapshot.
func ViewOf(st authctx.State) View {
	switch {
	case st.Loading:
		return ViewLoading
	case !st.SignedIn():
		return ViewUnauthenticated
	case st.IsAdmin():
		return ViewAdmin
	case st.IsEditor():
		return ViewEditor
	default:
		return ViewDenied
	}
}

// Allows reports whether tab may be opened in this view. Users is admin only.
func (v View) Allows(tab Tab) bool {
	if tab == TabUsers {
		return v == ViewAdmin
	}
	return v == ViewEditor || v == ViewAdmin
}

func (v View) gateError() error {
	switch v {
	case ViewLoading:
		return ErrAccessPending
	case ViewUnauthenticated:
		return apperrors.ErrUnauthenticated
	default:
		return apperrors.ErrForbidden
	}
}

// AuthState is what the surface reads from the auth context. *authctx.Manager implements it.
type AuthState interface {
	State() authctx.State
	Subscribe(fn func(authctx.State)) func()
}

// Notification is a message raised by a surface operation.
type Notification struct {
	Title  string
	Detail string
	Failed bool
}

// ProjectForm is the project being edited. Editing is nil for a new project.
type ProjectForm struct {
	Editing *uuid.UUID
	Fields  content.ProjectFields
}

// Snapshot is a copy of the surface state.
type Snapshot struct {
	View        View
	LoadingData bool
	Uploading   bool
	Projects    []model.Project
	ContactInfo *model.ContactInfo
	Enquiries   []model.Enquiry
	ProjectForm ProjectForm
	ContactForm content.ContactFields
}

// Surface holds the admin screens' data and forms. Every operation re-checks access, and a
// result that arrives after Unmount or a session change is dropped without touching state.
type Surface struct {
	auth   AuthState
	repo   ContentRepository
	logger *slog.Logger

	mu          sync.Mutex
	mounted     bool
	epoch       uint64
	unsubscribe func()
	loadingData bool
	uploading   bool
	projects    []model.Project
	contact     *model.ContactInfo
	enquiries   []model.Enquiry
	projectForm ProjectForm
	contactForm content.ContactFields
	notices     []Notification
}

// NewSurface creates an unmounted surface.
func NewSurface(auth AuthState, repo ContentRepository, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{auth: auth, repo: repo, logger: logger}
}

// Mount starts tracking the auth context and loads data when the view allows it.
func (s *Surface) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.epoch++
	s.loadingData = false
	s.uploading = false
	s.mu.Unlock()

	unsubscribe := s.auth.Subscribe(s.onAuthChange)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if !ViewOf(s.auth.State()).Allows(TabProjects) {
		return nil
	}
	return s.Refresh(ctx)
}

// Unmount stops tracking the auth context. In-flight results are discarded on arrival, so
// their busy flags are cleared here.
func (s *Surface) Unmount() {
	s.mu.Lock()
	s.mounted = false
	s.epoch++
	s.loadingData = false
	s.uploading = false
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// View returns the current access state.
func (s *Surface) View() View {
	return ViewOf(s.auth.State())
}

// Snapshot returns a copy of the current state.
func (s *Surface) Snapshot() Snapshot {
	view := s.View()
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		View:        view,
		LoadingData: s.loadingData,
		Uploading:   s.uploading,
		Projects:    append([]model.Project(nil), s.projects...),
		Enquiries:   append([]model.Enquiry(nil), s.enquiries...),
		ProjectForm: s.projectForm,
		ContactForm: s.contactForm,
	}
	if s.contact != nil {
		info := *s.contact
		snap.ContactInfo = &info
	}
	return snap
}

// Notifications returns and clears the pending notifications.
func (s *Surface) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Refresh reloads projects and contact info. A missing contact info row is an empty form.
func (s *Surface) Refresh(ctx context.Context) error {
	epoch, err := s.begin(TabProjects)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.loadingData = true
	s.mu.Unlock()

	projects, listErr := s.repo.ListProjects(ctx)
	info, infoErr := s.repo.GetContactInfo(ctx)
	if errors.Is(infoErr, apperrors.ErrContactInfoNotFound) {
		info, infoErr = nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(epoch) {
		s.logger.DebugContext(ctx, "dropping refresh result for a stale surface")
		return nil
	}
	s.loadingData = false
	if listErr != nil {
		s.logger.ErrorContext(ctx, "fetch projects", "error", listErr)
		s.fail("Could not load projects", listErr)
	} else {
		s.projects = projects
	}
	if infoErr != nil {
		s.logger.ErrorContext(ctx, "fetch contact info", "error", infoErr)
		s.fail("Could not load contact info", infoErr)
	} else {
		s.contact = info
		s.contactForm = contactFormFrom(info)
	}
	return errors.Join(listErr, infoErr)
}

// NewProject clears the project form.
func (s *Surface) NewProject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectForm = ProjectForm{}
}

// EditProject loads p into the project form.
func (s *Surface) EditProject(p model.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := p.ID
	s.projectForm = ProjectForm{Editing: &id, Fields: projectFieldsFrom(p)}
}

// SetProjectFields replaces the fields of the project form, keeping what is being edited.
func (s *Surface) SetProjectFields(fields content.ProjectFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectForm.Fields = fields
}

// SetContactFields replaces the contact form.
func (s *Surface) SetContactFields(fields content.ContactFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contactForm = fields
}

// SaveProject creates or updates the project in the form. On success the form resets and the
// data is re-fetched; on failure the form is left as it was.
func (s *Surface) SaveProject(ctx context.Context) error {
	epoch, err := s.begin(TabProjects)
	if err != nil {
		return err
	}
	s.mu.Lock()
	form := s.projectForm
	s.mu.Unlock()

	failTitle, okTitle := "Create failed", "Project created successfully"
	if form.Editing != nil {
		failTitle, okTitle = "Update failed", "Project updated successfully"
		_, err = s.repo.UpdateProject(ctx, *form.Editing, form.Fields)
	} else {
		_, err = s.repo.CreateProject(ctx, form.Fields)
	}

	s.mu.Lock()
	if !s.current(epoch) {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrTitleRequired) {
			failTitle = "Title required"
		}
		s.fail(failTitle, err)
		s.mu.Unlock()
		return err
	}
	s.projectForm = ProjectForm{}
	s.succeed(okTitle)
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return nil
}

// DeleteProject removes a project. Confirmation is the caller's job.
func (s *Surface) DeleteProject(ctx context.Context, id uuid.UUID) error {
	epoch, err := s.begin(TabProjects)
	if err != nil {
		return err
	}
	err = s.repo.DeleteProject(ctx, id)

	s.mu.Lock()
	if !s.current(epoch) {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.fail("Delete failed", err)
		s.mu.Unlock()
		return err
	}
	if s.projectForm.Editing != nil && *s.projectForm.Editing == id {
		s.projectForm = ProjectForm{}
	}
	s.succeed("Project deleted")
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return nil
}

// SaveContact upserts the contact info singleton from the contact form.
func (s *Surface) SaveContact(ctx context.Context) error {
	epoch, err := s.begin(TabContact)
	if err != nil {
		return err
	}
	s.mu.Lock()
	fields := s.contactForm
	s.mu.Unlock()

	_, err = s.repo.UpsertContactInfo(ctx, fields)

	s.mu.Lock()
	if !s.current(epoch) {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.fail("Save failed", err)
		s.mu.Unlock()
		return err
	}
	s.succeed("Contact info saved")
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return nil
}

// UploadImage stores an image and puts its URL in the project form. The previous image_url is
// kept until an upload succeeds.
func (s *Surface) UploadImage(ctx context.Context, originalName string, r io.Reader) error {
	epoch, err := s.begin(TabProjects)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.uploading = true
	s.mu.Unlock()

	url, err := s.repo.UploadProjectImage(ctx, originalName, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(epoch) {
		return nil
	}
	s.uploading = false
	if err != nil {
		s.fail("Upload failed", err)
		return err
	}
	s.projectForm.Fields.ImageURL = &url
	s.succeed("Image uploaded successfully")
	return nil
}

// LoadEnquiries fetches the newest contact-form messages.
func (s *Surface) LoadEnquiries(ctx context.Context, limit int) error {
	epoch, err := s.begin(TabEnquiries)
	if err != nil {
		return err
	}
	enquiries, err := s.repo.ListEnquiries(ctx, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(epoch) {
		return nil
	}
	if err != nil {
		s.fail("Could not load enquiries", err)
		return err
	}
	s.enquiries = enquiries
	return nil
}

// LoadUsers opens the user-management tab. The API does not offer it yet, so this reports that.
func (s *Surface) LoadUsers(ctx context.Context) ([]model.User, error) {
	epoch, err := s.begin(TabUsers)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(epoch) {
		return nil, nil
	}
	if err != nil {
		s.fail("Users", err)
		return nil, err
	}
	return users, nil
}

// begin checks access to tab and returns the epoch the operation runs under.
func (s *Surface) begin(tab Tab) (uint64, error) {
	view := s.View()
	if !view.Allows(tab) {
		return 0, view.gateError()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return 0, ErrNotMounted
	}
	return s.epoch, nil
}

func (s *Surface) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "refresh after change", "error", err)
	}
}

// onAuthChange drops everything loaded under a session that can no longer see it.
func (s *Surface) onAuthChange(st authctx.State) {
	view := ViewOf(st)
	if view != ViewUnauthenticated && view != ViewDenied {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.loadingData = false
	s.uploading = false
	s.projects = nil
	s.contact = nil
	s.enquiries = nil
	s.projectForm = ProjectForm{}
	s.contactForm = content.ContactFields{}
}

func (s *Surface) current(epoch uint64) bool {
	return s.mounted && s.epoch == epoch
}

func (s *Surface) fail(title string, err error) {
	s.notices = append(s.notices, Notification{Title: title, Detail: Message(err), Failed: true})
}

func (s *Surface) succeed(title string) {
	s.notices = append(s.notices, Notification{Title: title})
}

func projectFieldsFrom(p model.Project) content.ProjectFields {
	featured, order := p.IsFeatured, p.DisplayOrder
	return content.ProjectFields{
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Location:     p.Location,
		Capacity:     p.Capacity,
		ImageURL:     p.ImageURL,
		IsFeatured:   &featured,
		DisplayOrder: &order,
	}
}

func contactFormFrom(info *model.ContactInfo) content.ContactFields {
	if info == nil {
		return content.ContactFields{}
	}
	return content.ContactFields{
		Phone:           info.Phone,
		Email:           info.Email,
		Address:         info.Address,
		WhatsApp:        info.WhatsApp,
		GoogleMapsEmbed: info.GoogleMapsEmbed,
	}
}
