package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"techlam/internal/auth"
	apperrors "techlam/internal/errors"
	"techlam/internal/metrics"
	"techlam/internal/model"
	"techlam/internal/repository"
)

const bcryptCost = 10

var validate = validator.New()

// Session is what a successful sign-in or refresh returns.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *model.User `json:"user"`
}

// SignUpResult reports whether the new account still needs email verification.
// Session is only set when verification is not required.
type SignUpResult struct {
	PendingVerification bool        `json:"pending_verification"`
	User                *model.User `json:"user"`
	Session             *Session    `json:"session,omitempty"`
}

// AuthOptions configures sign-up rules.
type AuthOptions struct {
	RequireEmailVerification bool
	VerificationTTL          time.Duration
	MinPasswordLength        int
	VerifyURL                string
}

// AuthService handles authentication operations.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	mailer     Mailer
	metrics    metrics.MetricsCollector
	opts       AuthOptions
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	users UserService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	mailer Mailer,
	collector metrics.MetricsCollector,
	opts AuthOptions,
) AuthService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	return &authService{
		userRepo:   userRepo,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		mailer:     mailer,
		metrics:    collector,
		opts:       opts,
	}
}

// SignUp creates an account with a hashed password. With verification enabled the account
// cannot sign in until the emailed link is opened.
func (s *authService) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	email, err := s.checkCredentials(email, password)
	if err != nil {
		s.metrics.RecordAuthEvent("signup", "invalid")
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		s.metrics.RecordAuthEvent("signup", "already_registered")
		return nil, apperrors.ErrAlreadyRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  string(hashedPassword),
		EmailVerified: !s.opts.RequireEmailVerification,
	}
	if user.EmailVerified {
		now := time.Now()
		user.VerifiedAt = &now
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if !s.opts.RequireEmailVerification {
		session, err := s.issueSession(ctx, user, auth.NewSessionID())
		if err != nil {
			return nil, err
		}
		s.metrics.RecordAuthEvent("signup", "success")
		return &SignUpResult{User: user, Session: session}, nil
	}

	token := uuid.NewString()
	if err := s.tokenStore.StoreVerificationToken(ctx, token, user.ID.String(), s.opts.VerificationTTL); err != nil {
		return nil, fmt.Errorf("store verification token: %w", err)
	}
	if err := s.mailer.SendVerification(ctx, user.Email, s.verifyLink(token)); err != nil {
		return nil, fmt.Errorf("send verification: %w", err)
	}

	s.metrics.RecordAuthEvent("signup", "pending_verification")
	return &SignUpResult{PendingVerification: true, User: user}, nil
}

// SignIn authenticates a user and opens a new session.
func (s *authService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		s.metrics.RecordAuthEvent("signin", "invalid_credentials")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.RecordAuthEvent("signin", "invalid_credentials")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		s.metrics.RecordAuthEvent("signin", "email_not_verified")
		return nil, apperrors.ErrEmailNotVerified
	}

	session, err := s.issueSession(ctx, user, auth.NewSessionID())
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAuthEvent("signin", "success")
	return session, nil
}

// Refresh rotates the refresh token and issues a new access token for the same session.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.metrics.RecordAuthEvent("refresh", "invalid")
		return nil, apperrors.ErrInvalidRefreshToken
	}

	// The old JTI is gone from here on, whether or not this refresh succeeds.
	stored, err := s.tokenStore.ConsumeRefreshToken(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, auth.ErrTokenNotFound) {
			return nil, fmt.Errorf("consume refresh token: %w", err)
		}
		s.metrics.RecordAuthEvent("refresh", "invalid")
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if stored.UserID != claims.UserID || stored.SessionID != claims.SessionID {
		s.metrics.RecordAuthEvent("refresh", "invalid")
		return nil, apperrors.ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	session, err := s.issueSession(ctx, user, claims.SessionID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAuthEvent("refresh", "success")
	return session, nil
}

// SignOut ends the session behind refreshToken. Unknown or expired tokens are not an error.
func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.metrics.RecordAuthEvent("signout", "no_session")
		return nil
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if claims.SessionID != "" {
		if err := s.tokenStore.RevokeSession(ctx, claims.SessionID, s.jwtService.AccessTTL()); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}
	s.metrics.RecordAuthEvent("signout", "success")
	return nil
}

// VerifyEmail consumes a verification token and marks its user verified.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ErrInvalidVerificationToken
	}

	rawID, err := s.tokenStore.ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, apperrors.ErrInvalidVerificationToken
		}
		return nil, err
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperrors.ErrInvalidVerificationToken
	}

	if err := s.userRepo.MarkVerified(ctx, userID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidVerificationToken
		}
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	s.users.Invalidate(ctx, userID)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	s.metrics.RecordAuthEvent("verify", "success")
	return user, nil
}

func (s *authService) issueSession(ctx context.Context, user *model.User, sessionID string) (*Session, error) {
	userID := user.ID.String()

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(userID, user.Email, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(userID, user.Email, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	data := auth.RefreshTokenData{UserID: userID, Email: user.Email, SessionID: sessionID}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, data, s.jwtService.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func (s *authService) checkCredentials(email, password string) (string, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return "", apperrors.NewValidationError("email", "please enter a valid email address")
	}
	if len(password) < s.opts.MinPasswordLength {
		return "", apperrors.NewValidationError("password",
			fmt.Sprintf("password must be at least %d characters", s.opts.MinPasswordLength))
	}
	if len(password) > 72 {
		return "", apperrors.NewValidationError("password", "password must be at most 72 bytes")
	}
	return email, nil
}

func (s *authService) verifyLink(token string) string {
	base := s.opts.VerifyURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
