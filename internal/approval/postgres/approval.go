package postgres

import (
	"errors"
	"strings"
	"time"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/approval"
	approvalDatamodel "github.com/blitztech/access-management/internal/core/datamodel/approval"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ApprovalRepository implements the approval.Repository interface using
// GORM. Duplicate pending requests are refused by a partial unique index
// on (user_id, request_type) for pending rows, so the race between two
// concurrent submissions is settled by the database.
type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) approval.Repository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(req *approval.ApprovalRequest) error {
	dm := approval.ToDataModel(req)
	if dm.CreatedAt.IsZero() {
		dm.CreatedAt = time.Now()
	}
	dm.UpdatedAt = time.Now()
	if err := r.db.Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicatePendingRequest
		}
		return err
	}
	req.ID = dm.ID
	req.CreatedAt = dm.CreatedAt
	req.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *ApprovalRepository) GetByID(id int64) (*approval.ApprovalRequest, error) {
	var dm approvalDatamodel.ApprovalRequest
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, err
	}
	return approval.FromDataModel(&dm), nil
}

func (r *ApprovalRepository) GetByUserID(userID int64, limit, offset int) ([]*approval.ApprovalRequest, error) {
	var rows []*approvalDatamodel.ApprovalRequest
	err := r.db.Where("user_id = ?", userID).
		Order("requested_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return approval.FromDataModelSlice(rows), nil
}

func (r *ApprovalRepository) GetPending(limit, offset int) ([]*approval.ApprovalRequest, error) {
	var rows []*approvalDatamodel.ApprovalRequest
	err := r.db.Where("status = ?", approval.StatusPending).
		Order("requested_at ASC"). // FIFO for the review queue
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return approval.FromDataModelSlice(rows), nil
}

// UpdateDecision writes the decision fields, guarded on the row still
// being pending. Zero rows affected means the request was decided by
// someone else in the meantime.
func (r *ApprovalRepository) UpdateDecision(req *approval.ApprovalRequest) error {
	dm := approval.ToDataModel(req)
	dm.UpdatedAt = time.Now()
	result := r.db.Model(&approvalDatamodel.ApprovalRequest{}).
		Where("id = ? AND status = ?", dm.ID, approval.StatusPending).
		Updates(map[string]interface{}{
			"status":       dm.Status,
			"reviewed_by":  dm.ReviewedBy,
			"reviewed_at":  dm.ReviewedAt,
			"review_notes": dm.ReviewNotes,
			"updated_at":   dm.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInvalidStateTransition
	}
	req.UpdatedAt = dm.UpdatedAt
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite in tests
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
