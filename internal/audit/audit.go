package audit

import (
	"errors"
	"time"

	auditDatamodel "github.com/blitztech/access-management/internal/core/datamodel/audit"
)

// SecurityEvent is one immutable entry in the security audit trail.
type SecurityEvent struct {
	ID        int64                  `json:"id"`
	UserID    *int64                 `json:"user_id,omitempty"`
	EventType string                 `json:"event_type"`
	IPAddress string                 `json:"ip_address"`
	UserAgent string                 `json:"user_agent"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	EventLoginSuccess       = "login_success"
	EventLoginFailure       = "login_failure"
	EventPasswordChange     = "password_change"
	EventProfileUpdate      = "profile_update"
	EventSuspiciousActivity = "suspicious_activity"
	EventAccountLockout     = "account_lockout"
	EventApprovalGranted    = "approval_granted"
	EventApprovalRejected   = "approval_rejected"
)

var ErrEventNotFound = errors.New("security event not found")

func ToDataModel(e *SecurityEvent) *auditDatamodel.SecurityEvent {
	return &auditDatamodel.SecurityEvent{
		ID:        e.ID,
		UserID:    e.UserID,
		EventType: e.EventType,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		Details:   auditDatamodel.DetailsMap(e.Details),
		Timestamp: e.Timestamp,
	}
}

func FromDataModel(e *auditDatamodel.SecurityEvent) *SecurityEvent {
	return &SecurityEvent{
		ID:        e.ID,
		UserID:    e.UserID,
		EventType: e.EventType,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		Details:   map[string]interface{}(e.Details),
		Timestamp: e.Timestamp,
	}
}

func FromDataModelSlice(events []*auditDatamodel.SecurityEvent) []*SecurityEvent {
	result := make([]*SecurityEvent, len(events))
	for i, e := range events {
		result[i] = FromDataModel(e)
	}
	return result
}
