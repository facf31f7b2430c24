package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/middleware"
	"inquill/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// API holds the services behind the HTTP surface.
type API struct {
	Auth        *service.AuthService
	Articles    *service.ArticlesService
	Comments    *service.CommentsService
	Uploads     *service.UploadsService
	Newsletters *service.NewsletterService
	Admin       *service.AdminService
	Logs        *service.LogsService
	Tokens      *auth.TokenManager
	Cookies     middleware.CookieOptions
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.Message{Message: msg})
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if se, ok := service.AsError(err); ok {
		writeJSON(w, se.Status, api.Error{Code: se.Code, Message: se.Message})
		return
	}
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrRevoked), errors.Is(err, service.ErrInactive):
		writeJSON(w, http.StatusUnauthorized, api.Error{Code: "unauthorized", Message: "Not authenticated"})
		return
	}
	// Schema drift gets a hint instead of a bare 500. Keep details out of
	// the response.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42703", "42P01":
			writeJSON(w, http.StatusServiceUnavailable, api.Error{Code: "service_unavailable", Message: "database schema out of date; apply the latest migrations"})
			return
		case "23505":
			writeJSON(w, http.StatusBadRequest, api.Error{Code: "duplicate", Message: "Resource already exists"})
			return
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: "duplicate", Message: "Resource already exists"})
		return
	}

	slog.ErrorContext(r.Context(), "internal error", "error", err, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, api.Error{Code: "internal", Message: "internal error"})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, api.Error{Code: "invalid_request", Message: msg})
}

// bind decodes and normalises a request payload.
func bind(w http.ResponseWriter, r *http.Request, v render.Binder) bool {
	if err := render.Bind(r, v); err != nil {
		writeBadRequest(w, err.Error())
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user. Routes needing one are
// behind RequireAuth, so a miss is a wiring bug reported as 401.
func currentUser(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, api.Error{Code: "unauthorized", Message: "Not authenticated"})
		return auth.User{}, false
	}
	return user, true
}

func viewer(r *http.Request) *auth.User {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return &user
	}
	return nil
}

func (h API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
