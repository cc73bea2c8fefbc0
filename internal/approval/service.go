package approval

import (
	"context"
	"log/slog"

	errors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/audit"
	"github.com/blitztech/access-management/internal/core/events"
	coreuser "github.com/blitztech/access-management/internal/core/user"
	"github.com/blitztech/access-management/internal/profile"
	"github.com/blitztech/access-management/internal/user"
)

// Repository defines the data access methods for approval requests.
// Create must fail with ErrDuplicatePendingRequest when a pending
// request for the same user and type already exists; the storage layer
// enforces that with a partial unique index so concurrent creates
// cannot both succeed. UpdateDecision persists a decision only while
// the stored row is still pending.
type Repository interface {
	Create(r *ApprovalRequest) error
	GetByID(id int64) (*ApprovalRequest, error)
	GetByUserID(userID int64, limit, offset int) ([]*ApprovalRequest, error)
	GetPending(limit, offset int) ([]*ApprovalRequest, error)
	UpdateDecision(r *ApprovalRequest) error
}

// ProfileGate is the slice of the profile service the approval workflow
// needs to grant access on approval.
type ProfileGate interface {
	GetByUserID(userID int64) (*profile.Profile, error)
	ApproveForAccess(userID int64, area profile.Area, reviewerID int64, notes, ipAddress, userAgent string) (*profile.Profile, error)
}

// UserDirectory resolves account identities for notifications.
type UserDirectory interface {
	GetByID(userID int64) (*user.User, error)
}

// Service handles the approval request workflow
type Service struct {
	repo     Repository
	profiles ProfileGate
	users    UserDirectory
	auditor  audit.Recorder
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	profiles ProfileGate,
	users UserDirectory,
	auditor audit.Recorder,
	eventBus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		users:    users,
		auditor:  auditor,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateRequest submits a new pending request. A request for an area the
// user already has is refused, and the storage constraint guarantees at
// most one pending request per user and type even under concurrent
// submissions.
func (s *Service) CreateRequest(userID int64, dto CreateRequestDTO) (*ApprovalRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("approval request validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	p, err := s.profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if p.IsApprovedFor(profile.Area(dto.RequestType)) {
		return nil, errors.NewConflictError("Access to this area is already granted", errors.ErrCodeAccessDenied)
	}

	request := NewApprovalRequest(userID, dto.RequestType, dto.RequestedReason, dto.BusinessJustification)
	if err := s.repo.Create(request); err != nil {
		s.logger.Warn("failed to create approval request", "error", err, "user_id", userID, "request_type", dto.RequestType)
		return nil, err
	}

	s.logger.Info("approval request created",
		"request_id", request.ID,
		"user_id", userID,
		"request_type", request.RequestType)

	return request, nil
}

// GetByID returns a request, restricted to its owner unless the caller
// may review.
func (s *Service) GetByID(requestID, callerID int64, callerCanReview bool) (*ApprovalRequest, error) {
	request, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if !callerCanReview && request.UserID != callerID {
		return nil, errors.ErrRequestNotFound
	}
	return request, nil
}

// GetUserRequests lists a user's own requests, newest first.
func (s *Service) GetUserRequests(userID int64, limit, offset int) ([]*ApprovalRequest, error) {
	requests, err := s.repo.GetByUserID(userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list user requests", "error", err, "user_id", userID)
		return nil, err
	}
	return requests, nil
}

// GetPendingRequests lists the review queue, oldest first.
func (s *Service) GetPendingRequests(limit, offset int) ([]*ApprovalRequest, error) {
	requests, err := s.repo.GetPending(limit, offset)
	if err != nil {
		s.logger.Error("failed to list pending requests", "error", err)
		return nil, err
	}
	return requests, nil
}

// ApproveRequest decides a pending request in the requester's favor: the
// request is marked approved, the profile gains the area approval and a
// notification event is published. A request that is no longer pending
// fails with ErrInvalidStateTransition and stays untouched.
func (s *Service) ApproveRequest(requestID int64, reviewer *coreuser.User, dto DecideRequestDTO, ipAddress, userAgent string) (*ApprovalRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	request, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if !request.CanBeDecided() {
		return nil, errors.ErrInvalidStateTransition
	}

	request.Approve(reviewer.ID, dto.Notes)
	if err := s.repo.UpdateDecision(request); err != nil {
		s.logger.Warn("failed to persist approval", "error", err, "request_id", requestID)
		return nil, err
	}

	if _, err := s.profiles.ApproveForAccess(request.UserID, request.Area(), reviewer.ID, dto.Notes, ipAddress, userAgent); err != nil {
		s.logger.Error("request approved but access grant failed", "error", err, "request_id", requestID, "user_id", request.UserID)
		return nil, err
	}

	s.publishDecisionEvent(events.EventTypeRequestApproved, request, reviewer)

	s.logger.Info("approval request approved",
		"request_id", request.ID,
		"user_id", request.UserID,
		"reviewer_id", reviewer.ID)

	return request, nil
}

// RejectRequest decides a pending request against the requester. The
// profile is left untouched; only the request row and the audit trail
// change.
func (s *Service) RejectRequest(requestID int64, reviewer *coreuser.User, dto DecideRequestDTO, ipAddress, userAgent string) (*ApprovalRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	request, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if !request.CanBeDecided() {
		return nil, errors.ErrInvalidStateTransition
	}

	request.Reject(reviewer.ID, dto.Notes)
	if err := s.repo.UpdateDecision(request); err != nil {
		s.logger.Warn("failed to persist rejection", "error", err, "request_id", requestID)
		return nil, err
	}

	s.auditor.Record(&request.UserID, audit.EventApprovalRejected, ipAddress, userAgent, map[string]interface{}{
		"request_id":   request.ID,
		"request_type": request.RequestType,
		"reviewer_id":  reviewer.ID,
	})

	s.publishDecisionEvent(events.EventTypeRequestRejected, request, reviewer)

	s.logger.Info("approval request rejected",
		"request_id", request.ID,
		"user_id", request.UserID,
		"reviewer_id", reviewer.ID)

	return request, nil
}

func (s *Service) publishDecisionEvent(eventType string, request *ApprovalRequest, reviewer *coreuser.User) {
	requester, err := s.users.GetByID(request.UserID)
	if err != nil {
		s.logger.Warn("skipping decision notification, requester lookup failed", "error", err, "user_id", request.UserID)
		return
	}
	_ = s.eventBus.Publish(context.Background(), events.NewApprovalDecisionEvent(
		eventType,
		request.ID,
		requester.Email,
		request.RequestType,
		reviewer.FullName(),
		request.ReviewNotes,
	))
}
