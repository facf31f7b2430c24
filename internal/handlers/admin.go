package handlers

import (
	"context"
	"net/http"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/service"

	"github.com/google/uuid"
)

func (h API) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h API) AdminListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Admin.ListArticles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h API) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AdminDatabase serves cached table statistics; ?refresh=true recomputes.
func (h API) AdminDatabase(w http.ResponseWriter, r *http.Request) {
	get := h.Admin.DatabaseTables
	if r.URL.Query().Get("refresh") == "true" {
		get = h.Admin.RefreshDatabaseTables
	}
	tables, err := get(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h API) AdminLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := h.Logs.ListLogs(r.Context(), service.ListLogsParams{
		Action:     q.Get("action"),
		TargetType: q.Get("targetType"),
		TargetID:   q.Get("targetId"),
		Limit:      int32(queryInt(r, "limit")),
		Offset:     int32(queryInt(r, "offset")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h API) VerifyAdmin(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Admin.VerifyAdmin(user))
}

func (h API) PromoteUser(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.Admin.Promote)
}

func (h API) DemoteUser(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.Admin.Demote)
}

func (h API) changeRole(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor auth.User, id uuid.UUID) (api.User, error)) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := fn(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.RoleResponse{User: u})
}

func (h API) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Admin.DeleteUser(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

func (h API) BulkUpdateUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var p bulkUsersPayload
	if !bind(w, r, &p) {
		return
	}
	res, err := h.Admin.BulkUpdateUsers(r.Context(), actor, p.BulkUserRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
