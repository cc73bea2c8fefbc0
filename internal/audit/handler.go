package audit

import (
	"log/slog"
	"net/http"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/transport"
	"github.com/blitztech/access-management/pkg/logger"
)

type ServiceAPI interface {
	ListByUser(userID int64, limit, offset int) ([]*SecurityEvent, error)
	ListByEventType(eventType string, limit, offset int) ([]*SecurityEvent, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListMyEvents handles GET /security-events/me
func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r, 50)
	events, err := h.Service.ListByUser(current.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}

// ListEvents handles GET /security-events, the staff view. It filters
// either by user_id or by event_type.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r, 50)

	if eventType := r.URL.Query().Get("event_type"); eventType != "" {
		events, err := h.Service.ListByEventType(eventType, limit, offset)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"events": events,
			"limit":  limit,
			"offset": offset,
		})
		return
	}

	userID, err := transport.QueryInt64(r, "user_id")
	if err != nil || userID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "user_id or event_type query parameter is required")
		return
	}

	events, err := h.Service.ListByUser(userID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}
