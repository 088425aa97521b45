package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleReviewer  Role = "reviewer"
	RoleSubmitter Role = "submitter"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReviewer || r == RoleSubmitter
}

type UserRole struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"size:64;not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role   Role   `gorm:"size:16;not null;uniqueIndex:idx_user_role" json:"role"`
}

func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Roles []Role

func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

func (rs Roles) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

func (rs Roles) CanApprove() bool { return rs.HasAny(RoleAdmin, RoleReviewer) }

func (rs Roles) CanDelete() bool { return rs.Has(RoleAdmin) }
