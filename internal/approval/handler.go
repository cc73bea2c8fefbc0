package approval

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/blitztech/access-management/internal"
	coreuser "github.com/blitztech/access-management/internal/core/user"
	"github.com/blitztech/access-management/internal/transport"
	"github.com/blitztech/access-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateRequest(userID int64, dto CreateRequestDTO) (*ApprovalRequest, error)
	GetByID(requestID, callerID int64, callerCanReview bool) (*ApprovalRequest, error)
	GetUserRequests(userID int64, limit, offset int) ([]*ApprovalRequest, error)
	GetPendingRequests(limit, offset int) ([]*ApprovalRequest, error)
	ApproveRequest(requestID int64, reviewer *coreuser.User, dto DecideRequestDTO, ipAddress, userAgent string) (*ApprovalRequest, error)
	RejectRequest(requestID int64, reviewer *coreuser.User, dto DecideRequestDTO, ipAddress, userAgent string) (*ApprovalRequest, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CreateRequest handles POST /approval-requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateRequest: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Service.CreateRequest(current.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, request)
}

// GetRequest handles GET /approval-requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := h.requestIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	request, err := h.Service.GetByID(requestID, current.ID, current.CanReview())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, request)
}

// GetMyRequests handles GET /approval-requests
func (h *Handler) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r, 20)
	requests, err := h.Service.GetUserRequests(current.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetPendingRequests handles GET /approval-requests/pending
func (h *Handler) GetPendingRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r, 20)
	requests, err := h.Service.GetPendingRequests(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

// ApproveRequest handles POST /approval-requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.ApproveRequest)
}

// RejectRequest handles POST /approval-requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.RejectRequest)
}

func (h *Handler) decide(
	w http.ResponseWriter,
	r *http.Request,
	decideFn func(int64, *coreuser.User, DecideRequestDTO, string, string) (*ApprovalRequest, error),
) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := h.requestIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	var dto DecideRequestDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.Logger.Error("decide: invalid request body", "error", err)
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	request, err := decideFn(requestID, current, dto, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) requestIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
