package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"techlam/internal/cache"
	"techlam/internal/model"
	"techlam/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService reads user profiles through a short-lived cache.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// Invalidate drops the cached profile so the next read sees fresh data.
func (s *userService) Invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}
