package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"techlam/internal/model"
)

// RoleRepository reads and assigns rows in user_roles.
type RoleRepository interface {
	// FindByUserID returns gorm.ErrRecordNotFound when the user has no role row.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.UserRole, error)
	Assign(ctx context.Context, userID uuid.UUID, role model.Role) error
	Remove(ctx context.Context, userID uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository builds a GORM-backed repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.UserRole, error) {
	var role model.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// Assign sets the user's role, replacing any existing one.
func (r *roleRepository) Assign(ctx context.Context, userID uuid.UUID, role model.Role) error {
	row := &model.UserRole{UserID: userID, Role: role}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(row).Error
}

// Remove deletes the user's role row, which leaves them with RoleNone.
func (r *roleRepository) Remove(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserRole{}).Error
}
