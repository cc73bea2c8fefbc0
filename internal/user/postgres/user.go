package user

import (
	"errors"
	"time"

	userDatamodel "github.com/blitztech/access-management/internal/core/datamodel/user"
	"github.com/blitztech/access-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.First(&dm, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.First(&dm, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.First(&dm, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) Create(u *user.User) error {
	dm := user.ToDataModel(u)
	if dm.CreatedAt.IsZero() {
		dm.CreatedAt = time.Now()
	}
	dm.UpdatedAt = time.Now()
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	u.ID = dm.ID
	u.CreatedAt = dm.CreatedAt
	u.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *UserRepository) Update(u *user.User) error {
	dm := user.ToDataModel(u)
	dm.UpdatedAt = time.Now()
	result := r.db.Model(&userDatamodel.User{}).Where("id = ?", dm.ID).Updates(map[string]interface{}{
		"first_name":         dm.FirstName,
		"last_name":          dm.LastName,
		"password_hash":      dm.PasswordHash,
		"is_active":          dm.IsActive,
		"is_staff":           dm.IsStaff,
		"failed_login_count": dm.FailedLoginCount,
		"locked_until":       dm.LockedUntil,
		"updated_at":         dm.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	u.UpdatedAt = dm.UpdatedAt
	return nil
}
