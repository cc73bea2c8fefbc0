package postgres

import (
	"errors"
	"time"

	profileDatamodel "github.com/blitztech/access-management/internal/core/datamodel/profile"
	"github.com/blitztech/access-management/internal/profile"
	"gorm.io/gorm"
)

// ProfileRepository implements the profile.Repository interface using GORM
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) profile.Repository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(p *profile.Profile) error {
	dm := profile.ToDataModel(p)
	if dm.CreatedAt.IsZero() {
		dm.CreatedAt = time.Now()
	}
	dm.UpdatedAt = time.Now()
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	p.ID = dm.ID
	p.CreatedAt = dm.CreatedAt
	p.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *ProfileRepository) GetByUserID(userID int64) (*profile.Profile, error) {
	var dm profileDatamodel.Profile
	err := r.db.Where("user_id = ?", userID).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}
	return profile.FromDataModel(&dm), nil
}

func (r *ProfileRepository) Update(p *profile.Profile) error {
	dm := profile.ToDataModel(p)
	dm.UpdatedAt = time.Now()
	result := r.db.Model(&profileDatamodel.Profile{}).
		Where("user_id = ?", dm.UserID).
		Updates(map[string]interface{}{
			"phone":             dm.Phone,
			"address":           dm.Address,
			"billing_address":   dm.BillingAddress,
			"profile_completed": dm.ProfileCompleted,
			"completion_date":   dm.CompletionDate,
			"approvals":         dm.Approvals,
			"approved_by":       dm.ApprovedBy,
			"approval_date":     dm.ApprovalDate,
			"approval_notes":    dm.ApprovalNotes,
			"marketing_emails":  dm.MarketingEmails,
			"updated_at":        dm.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	p.UpdatedAt = dm.UpdatedAt
	return nil
}
