package user

import "time"

// User is the persistence shape of an account identity.
type User struct {
	ID               int64      `gorm:"primaryKey"`
	Username         string     `gorm:"column:username;uniqueIndex;not null"`
	Email            string     `gorm:"column:email;uniqueIndex;not null"`
	FirstName        string     `gorm:"column:first_name"`
	LastName         string     `gorm:"column:last_name"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	IsActive         bool       `gorm:"column:is_active;default:true"`
	IsStaff          bool       `gorm:"column:is_staff;default:false"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}
