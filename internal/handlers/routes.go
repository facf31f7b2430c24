package handlers

import (
	"net/http"

	"inquill/internal/middleware"
	"inquill/internal/policy"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
)

type RouterOptions struct {
	Redis          *redis.Client
	TrustProxy     bool
	AllowedOrigins []string
	// RateRules overrides middleware.DefaultRateRules.
	RateRules []middleware.RateRule
}

// NewRouter mounts the HTTP surface under /api.
func NewRouter(h API, opt RouterOptions) chi.Router {
	var loader middleware.UserLoader
	if h.Auth != nil {
		loader = h.Auth
	}
	writers := middleware.Authorize(policy.RoleWriter, policy.RoleAdmin, policy.RoleOwner)
	admins := middleware.Authorize(policy.RoleAdmin, policy.RoleOwner)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{TrustProxy: opt.TrustProxy}))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opt.AllowedOrigins))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(middleware.OptionalAuth(h.Tokens, loader, h.Cookies))
	r.Use(middleware.RateLimit(opt.Redis, middleware.RateLimitOptions{TrustProxy: opt.TrustProxy, Rules: opt.RateRules}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "Route not found"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(middleware.RequireAuth).Get("/me", h.Me)
			r.With(middleware.RequireAuth).Post("/refresh", h.Refresh)
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", h.ListArticles)
			r.With(writers).Post("/", h.CreateArticle)
			r.With(writers).Put("/bulk-update", h.BulkUpdateArticles)
			r.Get("/{id}", h.GetArticle)
			r.With(middleware.RequireAuth).Put("/{id}", h.UpdateArticle)
			r.With(middleware.RequireAuth).Delete("/{id}", h.DeleteArticle)
			r.With(middleware.RequireAuth).Post("/{id}/like", h.LikeArticle)
			r.With(writers).Post("/{id}/approve", h.ApproveArticle)
			r.With(writers).Post("/{id}/reject", h.RejectArticle)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/article/{articleId}", h.ListArticleComments)
			r.Get("/{id}/replies", h.ListCommentReplies)
			r.With(middleware.RequireAuth).Post("/", h.CreateComment)
			r.With(middleware.RequireAuth).Delete("/{id}", h.DeleteComment)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/image", h.UploadImage)
			r.Post("/base64", h.UploadBase64)
		})

		r.Route("/newsletters", func(r chi.Router) {
			r.Use(admins)
			r.Get("/", h.ListNewsletters)
			r.Post("/", h.CreateNewsletter)
			r.Put("/", h.SendNewsletterByQuery)
			r.Post("/{id}/send", h.SendNewsletter)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RequireAuth).Get("/verify-admin", h.VerifyAdmin)
			r.Group(func(r chi.Router) {
				r.Use(admins)
				r.Get("/users", h.AdminListUsers)
				r.Get("/articles", h.AdminListArticles)
				r.Get("/stats", h.AdminStats)
				r.Get("/database", h.AdminDatabase)
				r.Get("/logs", h.AdminLogs)
				r.Put("/users/{id}/promote", h.PromoteUser)
				r.Put("/users/{id}/demote", h.DemoteUser)
				r.Delete("/users/{id}", h.DeleteUser)
			})
		})

		r.With(admins).Put("/users/bulk-update", h.BulkUpdateUsers)
	})
	return r
}
