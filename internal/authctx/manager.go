// Package authctx owns the client-side session: who is signed in and what role they hold.
package authctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"techlam/internal/client"
	apperrors "techlam/internal/errors"
	"techlam/internal/model"
)

// ErrClosed is returned by operations on a closed Manager.
var ErrClosed = errors.New("auth context closed")

// defaultRefreshSkew refreshes access tokens this long before they expire.
const defaultRefreshSkew = 30 * time.Second

// Backend is the part of the API the Manager drives. *client.Client implements it.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*client.Session, error)
	SignUp(ctx context.Context, email, password string) (*client.SignUpResult, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*client.Session, error)
	Role(ctx context.Context, accessToken string) (model.Role, error)
}

// State is a snapshot of the auth context.
type State struct {
	// Loading is true while a session restore or role lookup is pending. Access is undetermined.
	Loading bool
	User    *model.User
	Role    model.Role
}

// SignedIn reports whether a session is established.
func (s State) SignedIn() bool {
	return s.User != nil
}

// IsAdmin is derived from Role; it is false while loading.
func (s State) IsAdmin() bool {
	return s.SignedIn() && !s.Loading && s.Role.IsAdmin()
}

// IsEditor is true for editors and admins; it is false while loading.
func (s State) IsEditor() bool {
	return s.SignedIn() && !s.Loading && s.Role.IsEditor()
}

// Manager is the single owner of session and role state. Create it with New, call Init once,
// and Close it when the application shuts down.
type Manager struct {
	backend Backend
	store   CredentialStore
	logger  *slog.Logger
	now     func() time.Time
	skew    time.Duration

	refreshMu sync.Mutex

	mu      sync.Mutex
	gen     uint64
	session *client.Session
	role    model.Role
	loading bool
	closed  bool
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager in the loading state.
func New(backend Backend, store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
		skew:    defaultRefreshSkew,
		role:    model.RoleNone,
		loading: true,
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Subscribe registers fn for every state change and returns a function that removes it.
// fn runs on the goroutine that caused the change.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Init restores a persisted session, if any, and leaves the loading state.
// Rejected credentials are discarded; transport errors are returned and the credentials kept.
func (m *Manager) Init(ctx context.Context) error {
	creds, err := m.store.Load()
	if err != nil {
		m.logger.WarnContext(ctx, "load stored credentials", "error", err)
	}
	if creds == nil {
		m.finishLoading()
		return nil
	}

	session, err := m.backend.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		if rejected(err) {
			if clearErr := m.store.Clear(); clearErr != nil {
				m.logger.WarnContext(ctx, "clear stored credentials", "error", clearErr)
			}
			m.finishLoading()
			return nil
		}
		m.finishLoading()
		return fmt.Errorf("restore session: %w", err)
	}
	return m.establish(ctx, session, nil)
}

// SignIn opens a session. Failures are *AuthError values and leave no session behind.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if m.isClosed() {
		return ErrClosed
	}
	session, err := m.backend.SignIn(ctx, email, password)
	if err != nil {
		return signInError(err)
	}
	return m.establish(ctx, session, nil)
}

// SignUp registers an account. pending is true when the email must be verified before sign-in;
// otherwise the new session is established.
func (m *Manager) SignUp(ctx context.Context, email, password string) (pending bool, err error) {
	if m.isClosed() {
		return false, ErrClosed
	}
	res, err := m.backend.SignUp(ctx, email, password)
	if err != nil {
		return false, signUpError(err)
	}
	if res.Session == nil {
		return true, nil
	}
	return false, m.establish(ctx, res.Session, nil)
}

// SignOut clears the local session, role and stored credentials, then tells the backend.
// Local state is cleared even when the backend call fails.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	session := m.session
	m.gen++
	m.session = nil
	m.role = model.RoleNone
	m.loading = false
	clearErr := m.store.Clear()
	st := m.stateLocked()
	m.mu.Unlock()
	m.notify(st)

	if session == nil {
		return clearErr
	}
	if err := m.backend.SignOut(ctx, session.RefreshToken); err != nil {
		m.logger.WarnContext(ctx, "remote sign-out failed, local session already cleared", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	return clearErr
}

// AccessToken returns a bearer token for the current session, refreshing it when it is about
// to expire. It implements client.TokenSource.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	session, closed := m.session, m.closed
	m.mu.Unlock()
	if closed {
		return "", ErrClosed
	}
	if session == nil {
		return "", apperrors.ErrUnauthenticated
	}
	if m.fresh(session) {
		return session.AccessToken, nil
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	current := m.session
	m.mu.Unlock()
	if current == nil {
		return "", apperrors.ErrUnauthenticated
	}
	if current != session && m.fresh(current) {
		return current.AccessToken, nil
	}

	next, err := m.backend.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if rejected(err) {
			m.drop(ctx, current)
			return "", apperrors.ErrUnauthenticated
		}
		return "", fmt.Errorf("refresh session: %w", err)
	}
	if err := m.establish(ctx, next, current); err != nil {
		return "", err
	}
	return next.AccessToken, nil
}

// Close tears the Manager down. The stored credentials are kept for the next run.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.gen++
	m.subs = make(map[int]func(State))
}

// establish installs session and resolves its role. When expect is set the session is only
// installed if expect is still current. A role that arrives after the session changed is dropped.
func (m *Manager) establish(ctx context.Context, session *client.Session, expect *client.Session) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if expect != nil && m.session != expect {
		m.mu.Unlock()
		return apperrors.ErrUnauthenticated
	}
	m.gen++
	gen := m.gen
	m.session = session
	m.role = model.RoleNone
	m.loading = true
	if err := m.store.Save(credentialsFor(session)); err != nil {
		m.logger.WarnContext(ctx, "persist credentials", "error", err)
	}
	st := m.stateLocked()
	m.mu.Unlock()
	m.notify(st)

	role, err := m.backend.Role(ctx, session.AccessToken)
	if err != nil {
		m.logger.WarnContext(ctx, "role lookup failed, treating as none", "error", err)
		role = model.RoleNone
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "discarding role fetched for a previous session")
		return nil
	}
	m.role = role
	m.loading = false
	st = m.stateLocked()
	m.mu.Unlock()
	m.notify(st)
	return nil
}

// drop signs out locally if session is still the current one.
func (m *Manager) drop(ctx context.Context, session *client.Session) {
	m.mu.Lock()
	if m.session != session {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.session = nil
	m.role = model.RoleNone
	m.loading = false
	if err := m.store.Clear(); err != nil {
		m.logger.WarnContext(ctx, "clear stored credentials", "error", err)
	}
	st := m.stateLocked()
	m.mu.Unlock()
	m.notify(st)
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	if !m.loading || m.closed {
		m.mu.Unlock()
		return
	}
	m.loading = false
	st := m.stateLocked()
	m.mu.Unlock()
	m.notify(st)
}

func (m *Manager) fresh(s *client.Session) bool {
	return s.ExpiresAt.IsZero() || m.now().Add(m.skew).Before(s.ExpiresAt)
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) stateLocked() State {
	st := State{Loading: m.loading, Role: model.RoleNone}
	if m.session != nil {
		st.User = m.session.User
		st.Role = m.role
	}
	return st
}

func (m *Manager) notify(st State) {
	m.mu.Lock()
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func credentialsFor(s *client.Session) Credentials {
	c := Credentials{RefreshToken: s.RefreshToken}
	if s.User != nil {
		c.Email = s.User.Email
	}
	return c
}

func rejected(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidRefreshToken) || errors.Is(err, apperrors.ErrUnauthenticated)
}
