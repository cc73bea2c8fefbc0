package profile

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/transport"
	"github.com/blitztech/access-management/internal/user"
	"github.com/blitztech/access-management/pkg/logger"
)

type ServiceAPI interface {
	Register(dto RegisterRequestDTO, ipAddress, userAgent string) (*user.User, *Profile, error)
	GetProfileResponse(userID int64) (*ProfileResponseDTO, error)
	UpdateProfile(userID int64, dto UpdateProfileRequestDTO, ipAddress, userAgent string) (*Profile, error)
	CheckProfileCompletion(userID int64) (bool, error)
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

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Register: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, p, err := h.Service.Register(dto, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":           account.ID,
		"user_type":         p.UserType,
		"profile_completed": p.ProfileCompleted,
	})
}

// GetMyProfile handles GET /profiles/me
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := h.Service.GetProfileResponse(current.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdateMyProfile handles PATCH /profiles/me
func (h *Handler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateMyProfile: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.Service.UpdateProfile(current.ID, dto, transport.ClientIP(r), r.UserAgent()); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.GetProfileResponse(current.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// CheckCompletion handles POST /profiles/me/check-completion
func (h *Handler) CheckCompletion(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	completed, err := h.Service.CheckProfileCompletion(current.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"profile_completed": completed})
}
