package policy

import (
	"log/slog"
	"net/http"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/profile"
)

// ProfileLoader fetches the profile the engine evaluates.
type ProfileLoader interface {
	GetByUserID(userID int64) (*profile.Profile, error)
}

// AreaGuard is the HTTP enforcement point for area access: it loads the
// caller's profile, runs the engine and refuses the request when the
// decision is a denial.
type AreaGuard struct {
	engine   *Engine
	profiles ProfileLoader
	logger   *slog.Logger
}

func NewAreaGuard(engine *Engine, profiles ProfileLoader, logger *slog.Logger) *AreaGuard {
	return &AreaGuard{
		engine:   engine,
		profiles: profiles,
		logger:   logger,
	}
}

func (g *AreaGuard) RequireArea(area profile.Area) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := apperrors.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			p, err := g.profiles.GetByUserID(user.ID)
			if err != nil {
				g.logger.ErrorContext(r.Context(), "area check failed: profile lookup", "error", err, "user_id", user.ID, "area", area)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			decision := g.engine.CheckAccess(p, area)
			if !decision.Allowed {
				g.logger.WarnContext(r.Context(), "access denied",
					"user_id", user.ID,
					"area", area,
					"reason", decision.Reason)
				http.Error(w, "Forbidden: access to this area is not granted", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *AreaGuard) RequireShop() func(http.Handler) http.Handler {
	return g.RequireArea(profile.AreaShop)
}

func (g *AreaGuard) RequireCRM() func(http.Handler) http.Handler {
	return g.RequireArea(profile.AreaCRM)
}

func (g *AreaGuard) RequireBlog() func(http.Handler) http.Handler {
	return g.RequireArea(profile.AreaBlog)
}

// RequireReviewer gates the review endpoints to active staff accounts.
func RequireReviewer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := apperrors.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.CanReview() {
				logger.WarnContext(r.Context(), "access denied: reviewer required", "user_id", user.ID)
				http.Error(w, "Forbidden: reviewer access required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
