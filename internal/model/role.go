package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a user.
type Role string

const (
	RoleNone   Role = "none"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a stored or transmitted value to a Role. Unknown values map to RoleNone.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleEditor, RoleAdmin:
		return Role(s)
	default:
		return RoleNone
	}
}

// IsAdmin reports whether the role is admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsEditor reports whether the role may edit content. Admins are editors too.
func (r Role) IsEditor() bool {
	return r == RoleEditor || r == RoleAdmin
}

// Satisfies reports whether r grants at least the access of min.
func (r Role) Satisfies(min Role) bool {
	switch min {
	case RoleAdmin:
		return r.IsAdmin()
	case RoleEditor:
		return r.IsEditor()
	default:
		return true
	}
}

// UserRole assigns one role to one user. No row means RoleNone.
type UserRole struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);uniqueIndex;not null"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserRole.
func (UserRole) TableName() string {
	return "user_roles"
}

// BeforeCreate sets UUID before creating the record.
func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
