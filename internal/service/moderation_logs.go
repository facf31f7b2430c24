package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"inquill/internal/api"
	"inquill/internal/db/sqlc"
	"inquill/internal/repository"

	"github.com/google/uuid"
)

// LogsService records and lists privileged actions.
type LogsService struct {
	store *repository.Store
}

func NewLogsService(store *repository.Store) *LogsService {
	return &LogsService{store: store}
}

// CreateLogParams contains parameters for creating a moderation log
type CreateLogParams struct {
	AdminUserID uuid.UUID
	Action      string
	TargetType  string
	TargetID    string
	Details     map[string]any
}

// CreateLog writes an entry using q, or the store's queries when q is nil,
// so callers can log inside their own transaction.
func (s *LogsService) CreateLog(ctx context.Context, q sqlc.Querier, params CreateLogParams) (sqlc.ModerationLog, error) {
	if s == nil || s.store == nil {
		return sqlc.ModerationLog{}, errNoStore
	}
	if q == nil {
		q = s.store.Q
	}
	details := json.RawMessage("{}")
	if len(params.Details) > 0 {
		raw, err := json.Marshal(params.Details)
		if err != nil {
			return sqlc.ModerationLog{}, fmt.Errorf("failed to marshal details: %w", err)
		}
		details = raw
	}
	var admin uuid.NullUUID
	if params.AdminUserID != uuid.Nil {
		admin = uuid.NullUUID{UUID: params.AdminUserID, Valid: true}
	}

	log, err := q.CreateModerationLog(ctx, sqlc.CreateModerationLogParams{
		ID:          uuid.New(),
		AdminUserID: admin,
		Action:      params.Action,
		TargetType:  params.TargetType,
		TargetID:    params.TargetID,
		Details:     details,
	})
	if err != nil {
		return sqlc.ModerationLog{}, fmt.Errorf("failed to create moderation log: %w", err)
	}
	return log, nil
}

// ListLogsParams filters the log listing. Empty strings match everything.
type ListLogsParams struct {
	Action     string
	TargetType string
	TargetID   string
	Limit      int32
	Offset     int32
}

func optionalText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *LogsService) ListLogs(ctx context.Context, params ListLogsParams) (api.ModerationLogList, error) {
	if s == nil || s.store == nil {
		return api.ModerationLogList{}, errNoStore
	}
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	action := optionalText(params.Action)
	targetType := optionalText(params.TargetType)
	targetID := optionalText(params.TargetID)

	rows, err := s.store.Q.ListModerationLogs(ctx, sqlc.ListModerationLogsParams{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Lim:        params.Limit,
		Off:        params.Offset,
	})
	if err != nil {
		return api.ModerationLogList{}, fmt.Errorf("failed to list moderation logs: %w", err)
	}
	total, err := s.store.Q.CountModerationLogs(ctx, sqlc.CountModerationLogsParams{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	})
	if err != nil {
		return api.ModerationLogList{}, fmt.Errorf("failed to count moderation logs: %w", err)
	}

	logs := make([]api.ModerationLog, 0, len(rows))
	for _, row := range rows {
		entry := api.ModerationLog{
			ID:            row.ID,
			AdminUsername: row.AdminUsername.String,
			Action:        row.Action,
			TargetType:    row.TargetType,
			TargetID:      row.TargetID,
			Details:       row.Details,
			CreatedAt:     row.CreatedAt,
		}
		if row.AdminUserID.Valid {
			id := row.AdminUserID.UUID
			entry.AdminUserID = &id
		}
		logs = append(logs, entry)
	}
	return api.ModerationLogList{Logs: logs, Total: total}, nil
}
