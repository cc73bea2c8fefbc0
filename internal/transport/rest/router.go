package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/blitztech/access-management/internal/approval"
	"github.com/blitztech/access-management/internal/audit"
	"github.com/blitztech/access-management/internal/auth"
	"github.com/blitztech/access-management/internal/policy"
	"github.com/blitztech/access-management/internal/profile"
	"github.com/blitztech/access-management/internal/transport/middleware"
	"github.com/blitztech/access-management/internal/transport/swagger"
	"github.com/blitztech/access-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Profile  *profile.Handler
	Approval *approval.Handler
	Policy   *policy.Handler
	Audit    *audit.Handler
}

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	handlers Handlers,
	areaGuard *policy.AreaGuard,
	allowedOrigins []string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Post("/register", handlers.Profile.Register)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", handlers.Auth.Login)
			sr.Post("/refresh", handlers.Auth.RefreshToken)
			sr.Post("/logout", handlers.Auth.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			pr.Post("/auth/change-password", handlers.Auth.ChangePassword)
			pr.Get("/users/me", handlers.User.GetCurrentUser)

			pr.Route("/profiles/me", func(mr chi.Router) {
				mr.Get("/", handlers.Profile.GetMyProfile)
				mr.Patch("/", handlers.Profile.UpdateMyProfile)
				mr.Post("/check-completion", handlers.Profile.CheckCompletion)
			})

			pr.Get("/access/check", handlers.Policy.CheckMyAccess)

			pr.Route("/approval-requests", func(ar chi.Router) {
				ar.Post("/", handlers.Approval.CreateRequest)
				ar.Get("/", handlers.Approval.GetMyRequests)
				ar.Get("/{id}", handlers.Approval.GetRequest)

				// Reviewer routes
				ar.Group(func(rr chi.Router) {
					rr.Use(policy.RequireReviewer(logger))
					rr.Get("/pending", handlers.Approval.GetPendingRequests)
					rr.Post("/{id}/approve", handlers.Approval.ApproveRequest)
					rr.Post("/{id}/reject", handlers.Approval.RejectRequest)
				})
			})

			pr.Get("/security-events/me", handlers.Audit.ListMyEvents)
			pr.Group(func(sr chi.Router) {
				sr.Use(policy.RequireReviewer(logger))
				sr.Get("/security-events", handlers.Audit.ListEvents)
			})

			// Area-gated entry points
			pr.Group(func(gr chi.Router) {
				gr.Use(areaGuard.RequireShop())
				gr.Get("/areas/shop", areaOK("shop"))
			})
			pr.Group(func(gr chi.Router) {
				gr.Use(areaGuard.RequireCRM())
				gr.Get("/areas/crm", areaOK("crm"))
			})
			pr.Group(func(gr chi.Router) {
				gr.Use(areaGuard.RequireBlog())
				gr.Get("/areas/blog", areaOK("blog"))
			})
		})
	})
}

func areaOK(area string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"area": "` + area + `", "access": "granted"}`))
	}
}
