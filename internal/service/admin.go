package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/cache"
	"inquill/internal/db/sqlc"
	"inquill/internal/logging"
	"inquill/internal/policy"
	"inquill/internal/repository"

	"github.com/google/uuid"
)

const (
	databaseTablesKey = "admin:database_tables"
	databaseTablesTTL = 15 * time.Minute
)

type AdminService struct {
	store *repository.Store
	cache cache.Cache
	logs  *LogsService
}

func NewAdminService(store *repository.Store, c cache.Cache, logs *LogsService) *AdminService {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &AdminService{store: store, cache: c, logs: logs}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]api.User, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	rows, err := s.store.Q.ListUsersWithArticleCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]api.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapUserWithCount(row))
	}
	return out, nil
}

// ListArticles returns articles in every status, newest first.
func (s *AdminService) ListArticles(ctx context.Context) ([]api.Article, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	rows, err := s.store.Q.AdminListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return mapArticleRows(rows), nil
}

func (s *AdminService) Stats(ctx context.Context) (api.Stats, error) {
	if s.store == nil {
		return api.Stats{}, errNoStore
	}
	row, err := s.store.Q.GetDashboardStats(ctx)
	if err != nil {
		return api.Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return mapStats(row), nil
}

// DatabaseTables serves table statistics from cache, computing them on a
// miss.
func (s *AdminService) DatabaseTables(ctx context.Context) ([]api.DatabaseTable, error) {
	var tables []api.DatabaseTable
	ok, err := cache.GetJSON(ctx, s.cache, databaseTablesKey, &tables)
	if err != nil {
		slog.WarnContext(ctx, "database tables cache read failed", "error", err)
	}
	if ok {
		return tables, nil
	}
	return s.RefreshDatabaseTables(ctx)
}

// RefreshDatabaseTables recomputes table statistics and replaces the cached
// copy.
func (s *AdminService) RefreshDatabaseTables(ctx context.Context) ([]api.DatabaseTable, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	rows, err := s.store.Q.ListTableStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("table stats: %w", err)
	}
	tables := mapTableStats(rows)
	if err := cache.SetJSON(ctx, s.cache, databaseTablesKey, tables, databaseTablesTTL); err != nil {
		slog.WarnContext(ctx, "database tables cache write failed", "error", err)
	}
	return tables, nil
}

func (s *AdminService) VerifyAdmin(user auth.User) api.VerifyAdminResponse {
	return api.VerifyAdminResponse{IsAdmin: user.Role.IsAdmin(), Role: user.Role.Display()}
}

func (s *AdminService) loadUser(ctx context.Context, q sqlc.Querier, id uuid.UUID) (sqlc.User, policy.Target, error) {
	u, err := q.GetUserByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return sqlc.User{}, policy.Target{}, notFound("User not found")
		}
		return sqlc.User{}, policy.Target{}, err
	}
	role, _ := policy.ParseRole(u.Role)
	return u, policy.Target{ID: u.ID.String(), Role: role}, nil
}

func (s *AdminService) Promote(ctx context.Context, actor auth.User, id uuid.UUID) (api.User, error) {
	return s.changeRole(ctx, actor, id, policy.ActionPromote)
}

func (s *AdminService) Demote(ctx context.Context, actor auth.User, id uuid.UUID) (api.User, error) {
	return s.changeRole(ctx, actor, id, policy.ActionDemote)
}

// changeRole moves the target exactly one step on the role ladder.
func (s *AdminService) changeRole(ctx context.Context, actor auth.User, id uuid.UUID, action policy.Action) (api.User, error) {
	if s.store == nil {
		return api.User{}, errNoStore
	}
	u, target, err := s.loadUser(ctx, s.store.Q, id)
	if err != nil {
		return api.User{}, err
	}
	if err := policy.CanAct(actor.Actor(), target, action); err != nil {
		logging.Audit(ctx, "admin.user."+string(action), "denied",
			slog.String("actor_id", actor.ID.String()), slog.String("target_id", id.String()))
		if errors.Is(err, policy.ErrTopRole) {
			return api.User{}, invalid(err.Error())
		}
		return api.User{}, policyError(err)
	}

	var next policy.Role
	if action == policy.ActionPromote {
		next, err = target.Role.Promote()
	} else {
		next, err = target.Role.Demote()
	}
	if err != nil {
		return api.User{}, invalid(err.Error())
	}

	updated, err := s.store.Q.UpdateUserRole(ctx, sqlc.UpdateUserRoleParams{ID: id, Role: string(next)})
	if err != nil {
		if isNoRows(err) {
			return api.User{}, notFound("User not found")
		}
		return api.User{}, fmt.Errorf("update role: %w", err)
	}
	s.record(ctx, actor, string(action)+"_user", id.String(), map[string]any{"from": u.Role, "to": string(next)})
	logging.Audit(ctx, "admin.user."+string(action), logging.OutcomeSuccess,
		slog.String("actor_id", actor.ID.String()),
		slog.String("target_id", id.String()),
		slog.String("role", string(next)))
	return mapUser(updated), nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor auth.User, id uuid.UUID) error {
	if s.store == nil {
		return errNoStore
	}
	u, target, err := s.loadUser(ctx, s.store.Q, id)
	if err != nil {
		return err
	}
	if err := policy.CanAct(actor.Actor(), target, policy.ActionDeleteUser); err != nil {
		logging.Audit(ctx, "admin.user.delete", "denied",
			slog.String("actor_id", actor.ID.String()), slog.String("target_id", id.String()))
		return policyError(err)
	}
	n, err := s.store.Q.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return notFound("User not found")
	}
	s.record(ctx, actor, "delete_user", id.String(), map[string]any{"username": u.Username, "role": u.Role})
	logging.Audit(ctx, "admin.user.delete", logging.OutcomeSuccess,
		slog.String("actor_id", actor.ID.String()), slog.String("target_id", id.String()))
	return nil
}

func normalizeUserStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return UserStatusActive, nil
	case "inactive":
		return UserStatusInactive, nil
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

// BulkUpdateUsers changes role and/or status for every listed user or for
// none of them. The acting admin may not be part of the batch.
func (s *AdminService) BulkUpdateUsers(ctx context.Context, actor auth.User, req api.BulkUserRequest) (api.BulkResponse, error) {
	if s.store == nil {
		return api.BulkResponse{}, errNoStore
	}
	if !actor.Role.IsAdmin() {
		return api.BulkResponse{}, forbidden("Admin access required")
	}
	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 {
		return api.BulkResponse{}, invalid("ids required")
	}
	if req.Updates.Role == nil && req.Updates.Status == nil {
		return api.BulkResponse{}, invalid("updates required")
	}
	var role policy.Role
	if req.Updates.Role != nil {
		r, err := policy.ParseRole(*req.Updates.Role)
		if err != nil {
			return api.BulkResponse{}, invalid(err.Error())
		}
		if actor.Role != policy.RoleOwner && !actor.Role.Outranks(r) {
			return api.BulkResponse{}, forbidden("Cannot assign role " + r.Display())
		}
		role = r
	}
	var status string
	if req.Updates.Status != nil {
		st, err := normalizeUserStatus(*req.Updates.Status)
		if err != nil {
			return api.BulkResponse{}, invalid(err.Error())
		}
		status = st
	}

	err := s.store.WithTx(ctx, func(q sqlc.Querier) error {
		users, err := q.GetUsersByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(users) != len(ids) {
			return invalid("One or more users not found")
		}
		for _, u := range users {
			r, _ := policy.ParseRole(u.Role)
			if err := policy.CanAct(actor.Actor(), policy.Target{ID: u.ID.String(), Role: r}, policy.ActionUpdateUser); err != nil {
				return policyError(err)
			}
		}
		for _, u := range users {
			if role != "" {
				if _, err := q.UpdateUserRole(ctx, sqlc.UpdateUserRoleParams{ID: u.ID, Role: string(role)}); err != nil {
					return err
				}
			}
			if status != "" {
				if _, err := q.UpdateUserStatus(ctx, sqlc.UpdateUserStatusParams{ID: u.ID, Status: status}); err != nil {
					return err
				}
			}
		}
		if s.logs == nil {
			return nil
		}
		_, err = s.logs.CreateLog(ctx, q, CreateLogParams{
			AdminUserID: actor.ID,
			Action:      "bulk_update_users",
			TargetType:  "user",
			TargetID:    joinIDs(ids),
			Details:     map[string]any{"count": len(ids), "role": string(role), "status": status},
		})
		return err
	})
	if err != nil {
		if se, ok := AsError(err); ok {
			logging.Audit(ctx, "admin.user.bulk_update", "denied", slog.String("reason", se.Message))
		}
		return api.BulkResponse{}, err
	}
	logging.Audit(ctx, "admin.user.bulk_update", logging.OutcomeSuccess, slog.Int("count", len(ids)))
	return api.BulkResponse{Updated: len(ids)}, nil
}

func (s *AdminService) record(ctx context.Context, actor auth.User, action, targetID string, details map[string]any) {
	if s.logs == nil {
		return
	}
	if _, err := s.logs.CreateLog(ctx, nil, CreateLogParams{
		AdminUserID: actor.ID,
		Action:      action,
		TargetType:  "user",
		TargetID:    targetID,
		Details:     details,
	}); err != nil {
		logging.Error(ctx, "moderation log write failed", err, slog.String("action", action))
	}
}
