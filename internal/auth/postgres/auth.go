package auth

import (
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/auth"
	userDatamodel "github.com/blitztech/access-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const accountQuery = `
SELECT u.id, u.username, u.email, u.first_name, u.last_name,
       u.password_hash, u.is_active, u.is_staff,
       u.failed_login_count, u.locked_until,
       COALESCE(p.user_type, 'customer')
FROM users u
LEFT JOIN profiles p ON p.user_id = u.id
`

func (r *Repository) GetAccountByUsername(username string) (*auth.Account, error) {
	return r.scanAccount(r.db.Raw(accountQuery+"WHERE u.username = ?", username).Row())
}

func (r *Repository) GetAccountByID(userID int64) (*auth.Account, error) {
	return r.scanAccount(r.db.Raw(accountQuery+"WHERE u.id = ?", userID).Row())
}

func (r *Repository) scanAccount(row *sql.Row) (*auth.Account, error) {
	var account auth.Account
	var lockedUntil sql.NullTime
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.PasswordHash,
		&account.IsActive,
		&account.IsStaff,
		&account.FailedLoginCount,
		&lockedUntil,
		&account.UserType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if lockedUntil.Valid {
		account.LockedUntil = &lockedUntil.Time
	}
	return &account, nil
}

func (r *Repository) UpdateLoginState(userID int64, failedCount int, lockedUntil *time.Time) error {
	return r.db.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"failed_login_count": failedCount,
			"locked_until":       lockedUntil,
			"updated_at":         time.Now(),
		}).Error
}

func (r *Repository) UpdatePasswordHash(userID int64, passwordHash string) error {
	return r.db.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		}).Error
}
