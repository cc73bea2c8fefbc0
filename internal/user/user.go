package user

import (
	"errors"
	"strings"
	"time"

	userDatamodel "github.com/blitztech/access-management/internal/core/datamodel/user"
)

type User struct {
	ID               int64      `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	PasswordHash     string     `json:"-"`
	IsActive         bool       `json:"is_active"`
	IsStaff          bool       `json:"is_staff"`
	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

var ErrUserNotFound = errors.New("user not found")

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// CanReview reports whether this account may decide approval requests.
func (u *User) CanReview() bool {
	return u.IsStaff && u.IsActive
}

// IsLocked reports whether the account lockout window is still open.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PasswordHash:     u.PasswordHash,
		IsActive:         u.IsActive,
		IsStaff:          u.IsStaff,
		FailedLoginCount: u.FailedLoginCount,
		LockedUntil:      u.LockedUntil,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PasswordHash:     u.PasswordHash,
		IsActive:         u.IsActive,
		IsStaff:          u.IsStaff,
		FailedLoginCount: u.FailedLoginCount,
		LockedUntil:      u.LockedUntil,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
