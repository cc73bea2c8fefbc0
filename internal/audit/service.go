package audit

import (
	"log/slog"
	"time"
)

// Repository defines the data access methods for security events.
// There is no update or delete; the trail is append-only.
type Repository interface {
	Append(event *SecurityEvent) error
	ListByUser(userID int64, limit, offset int) ([]*SecurityEvent, error)
	ListByEventType(eventType string, limit, offset int) ([]*SecurityEvent, error)
}

// Recorder is the narrow interface other services depend on to write
// audit entries.
type Recorder interface {
	Record(userID *int64, eventType, ipAddress, userAgent string, details map[string]interface{})
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record appends a security event with a server-assigned timestamp.
// A nil userID is valid for pre-authentication events. Recording never
// fails the caller: persistence errors are logged and swallowed so the
// triggering operation is unaffected.
func (s *Service) Record(userID *int64, eventType, ipAddress, userAgent string, details map[string]interface{}) {
	event := &SecurityEvent{
		UserID:    userID,
		EventType: eventType,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
		Timestamp: time.Now(),
	}

	if err := s.repo.Append(event); err != nil {
		s.logger.Error("failed to append security event",
			"error", err,
			"event_type", eventType)
		return
	}

	s.logger.Debug("security event recorded",
		"event_type", eventType,
		"event_id", event.ID)
}

func (s *Service) ListByUser(userID int64, limit, offset int) ([]*SecurityEvent, error) {
	events, err := s.repo.ListByUser(userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list security events by user", "error", err, "user_id", userID)
		return nil, err
	}
	return events, nil
}

func (s *Service) ListByEventType(eventType string, limit, offset int) ([]*SecurityEvent, error) {
	events, err := s.repo.ListByEventType(eventType, limit, offset)
	if err != nil {
		s.logger.Error("failed to list security events by type", "error", err, "event_type", eventType)
		return nil, err
	}
	return events, nil
}
