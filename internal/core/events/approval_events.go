package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRequestApproved = "approval.request_approved"
	EventTypeRequestRejected = "approval.request_rejected"
)

// NewApprovalDecisionEvent builds the event published when a reviewer
// decides an approval request. The notification dispatcher subscribes to
// both decision types.
func NewApprovalDecisionEvent(eventType string, requestID int64, userEmail, area, reviewerName, notes string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id": requestID,
			"user_email": userEmail,
			"area":       area,
			"reviewer":   reviewerName,
			"notes":      notes,
		},
	}
}
