package policy

import (
	"log/slog"
	"net/http"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/profile"
	"github.com/blitztech/access-management/internal/transport"
	"github.com/blitztech/access-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	engine   *Engine
	profiles ProfileLoader
}

func NewHandler(engine *Engine, profiles ProfileLoader) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		engine:      engine,
		profiles:    profiles,
	}
}

// CheckMyAccess handles GET /access/check. With an area query parameter
// it evaluates that single area, otherwise it returns the decision for
// every known area.
func (h *Handler) CheckMyAccess(w http.ResponseWriter, r *http.Request) {
	current, ok := apperrors.UserFromContext(r.Context())
	if !ok || current == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.profiles.GetByUserID(current.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if area := r.URL.Query().Get("area"); area != "" {
		decision := h.engine.CheckAccess(p, profile.Area(area))
		h.WriteJSON(w, http.StatusOK, decision)
		return
	}

	decisions := make(map[string]Decision, len(profile.KnownAreas()))
	for _, area := range profile.KnownAreas() {
		decisions[string(area)] = h.engine.CheckAccess(p, area)
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"areas": decisions})
}
