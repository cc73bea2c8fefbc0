package approval

import (
	"time"

	approvalDatamodel "github.com/blitztech/access-management/internal/core/datamodel/approval"
	"github.com/blitztech/access-management/internal/profile"
)

// ApprovalRequest is a user's petition for access to a protected area.
// It moves from pending to exactly one of approved or rejected; a
// decided request never changes again.
type ApprovalRequest struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"user_id"`
	RequestType           string     `json:"request_type"`
	Status                string     `json:"status"`
	RequestedAt           time.Time  `json:"requested_at"`
	RequestedReason       string     `json:"requested_reason"`
	BusinessJustification string     `json:"business_justification,omitempty"`
	ReviewedBy            *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt            *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes           string     `json:"review_notes,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

func (r *ApprovalRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *ApprovalRequest) CanBeDecided() bool {
	return r.Status == StatusPending
}

// Area maps the request type onto the access area it unlocks.
func (r *ApprovalRequest) Area() profile.Area {
	return profile.Area(r.RequestType)
}

// Approve moves a pending request to approved and stamps the reviewer.
func (r *ApprovalRequest) Approve(reviewerID int64, notes string) {
	now := time.Now()
	r.Status = StatusApproved
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &now
	r.ReviewNotes = notes
	r.UpdatedAt = now
}

// Reject moves a pending request to rejected and stamps the reviewer.
func (r *ApprovalRequest) Reject(reviewerID int64, notes string) {
	now := time.Now()
	r.Status = StatusRejected
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &now
	r.ReviewNotes = notes
	r.UpdatedAt = now
}

func NewApprovalRequest(userID int64, requestType, reason, justification string) *ApprovalRequest {
	now := time.Now()
	return &ApprovalRequest{
		UserID:                userID,
		RequestType:           requestType,
		Status:                StatusPending,
		RequestedAt:           now,
		RequestedReason:       reason,
		BusinessJustification: justification,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func ToDataModel(r *ApprovalRequest) *approvalDatamodel.ApprovalRequest {
	return &approvalDatamodel.ApprovalRequest{
		ID:                    r.ID,
		UserID:                r.UserID,
		RequestType:           r.RequestType,
		Status:                r.Status,
		RequestedAt:           r.RequestedAt,
		RequestedReason:       r.RequestedReason,
		BusinessJustification: r.BusinessJustification,
		ReviewedBy:            r.ReviewedBy,
		ReviewedAt:            r.ReviewedAt,
		ReviewNotes:           r.ReviewNotes,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func FromDataModel(r *approvalDatamodel.ApprovalRequest) *ApprovalRequest {
	return &ApprovalRequest{
		ID:                    r.ID,
		UserID:                r.UserID,
		RequestType:           r.RequestType,
		Status:                r.Status,
		RequestedAt:           r.RequestedAt,
		RequestedReason:       r.RequestedReason,
		BusinessJustification: r.BusinessJustification,
		ReviewedBy:            r.ReviewedBy,
		ReviewedAt:            r.ReviewedAt,
		ReviewNotes:           r.ReviewNotes,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*approvalDatamodel.ApprovalRequest) []*ApprovalRequest {
	out := make([]*ApprovalRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
