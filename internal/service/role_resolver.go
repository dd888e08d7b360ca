package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"techlam/internal/model"
	"techlam/internal/repository"
)

// RoleResolver maps a user to an access role.
type RoleResolver interface {
	// Resolve never fails: a missing row or any lookup error yields RoleNone.
	Resolve(ctx context.Context, userID uuid.UUID) model.Role
}

type roleResolver struct {
	repo   repository.RoleRepository
	logger *slog.Logger
}

// NewRoleResolver creates a resolver over user_roles.
func NewRoleResolver(repo repository.RoleRepository, logger *slog.Logger) RoleResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &roleResolver{repo: repo, logger: logger}
}

func (r *roleResolver) Resolve(ctx context.Context, userID uuid.UUID) model.Role {
	if userID == uuid.Nil {
		return model.RoleNone
	}
	row, err := r.repo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.WarnContext(ctx, "role lookup failed, denying", "user_id", userID, "error", err)
		}
		return model.RoleNone
	}
	return model.ParseRole(string(row.Role))
}
