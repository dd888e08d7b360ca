package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"techlam/internal/cache"
)

const (
	refreshTokenKeyPrefix   = "refresh_token:"
	revokedSessionKeyPrefix = "revoked_session:"
	verificationKeyPrefix   = "email_verification:"
)

// ErrTokenNotFound is returned when a stored token is missing, expired or already consumed.
var ErrTokenNotFound = errors.New("token not found")

// RefreshTokenData is what the store keeps for each live refresh token.
type RefreshTokenData struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
}

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, data RefreshTokenData, ttl time.Duration) error
	ConsumeRefreshToken(ctx context.Context, tokenID string) (*RefreshTokenData, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
	StoreVerificationToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeVerificationToken(ctx context.Context, token string) (string, error)
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, data RefreshTokenData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// ConsumeRefreshToken returns the data stored for tokenID and removes it in one step,
// so a refresh token can be redeemed only once.
func (s *TokenStore) ConsumeRefreshToken(ctx context.Context, tokenID string) (*RefreshTokenData, error) {
	raw, err := s.cache.GetDel(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if raw == nil {
		return nil, ErrTokenNotFound
	}

	var data RefreshTokenData
	if err := json.Unmarshal(raw, &data); err != nil || data.UserID == "" {
		return nil, fmt.Errorf("%w: malformed token data", ErrTokenNotFound)
	}
	return &data, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// RevokeSession marks a session as signed out until its access tokens have expired.
func (s *TokenStore) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	return s.cache.Set(ctx, revokedSessionKeyPrefix+sessionID, []byte("1"), ttl)
}

// IsSessionRevoked checks if a session has been signed out.
func (s *TokenStore) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedSessionKeyPrefix+sessionID)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}

// StoreVerificationToken keeps a one-time email verification token for userID.
func (s *TokenStore) StoreVerificationToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.cache.Set(ctx, verificationKeyPrefix+token, []byte(userID), ttl)
}

// ConsumeVerificationToken returns the user the token was issued for and removes it.
func (s *TokenStore) ConsumeVerificationToken(ctx context.Context, token string) (string, error) {
	data, err := s.cache.GetDel(ctx, verificationKeyPrefix+token)
	if err != nil {
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	if data == nil {
		return "", ErrTokenNotFound
	}
	return string(data), nil
}
