package approval

import "time"

// ApprovalRequest is the persistence shape of an access approval request.
// A partial unique index over (user_id, request_type) where status is
// pending enforces the single-pending-request invariant at the storage
// boundary.
type ApprovalRequest struct {
	ID                    int64      `gorm:"primaryKey"`
	UserID                int64      `gorm:"column:user_id;not null"`
	RequestType           string     `gorm:"column:request_type;not null"`
	Status                string     `gorm:"column:status;default:pending"`
	RequestedAt           time.Time  `gorm:"column:requested_at"`
	RequestedReason       string     `gorm:"column:requested_reason"`
	BusinessJustification string     `gorm:"column:business_justification"`
	ReviewedBy            *int64     `gorm:"column:reviewed_by"`
	ReviewedAt            *time.Time `gorm:"column:reviewed_at"`
	ReviewNotes           string     `gorm:"column:review_notes"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}
