package service_test

import (
	"context"
	"testing"

	"inquill/internal/policy"
	"inquill/internal/repository"
	"inquill/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs_CreateAndFilter(t *testing.T) {
	store := repository.NewMemoryStore()
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	svc := service.NewLogsService(store)
	ctx := context.Background()

	for i, action := range []string{"approve_article", "reject_article", "approve_article"} {
		_, err := svc.CreateLog(ctx, nil, service.CreateLogParams{
			AdminUserID: admin.ID,
			Action:      action,
			TargetType:  "article",
			TargetID:    string(rune('a' + i)),
			Details:     map[string]any{"n": i},
		})
		require.NoError(t, err)
	}

	all, err := svc.ListLogs(ctx, service.ListLogsParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
	require.Len(t, all.Logs, 3)
	assert.Equal(t, "c", all.Logs[0].TargetID)
	assert.Equal(t, "admin", all.Logs[0].AdminUsername)

	approved, err := svc.ListLogs(ctx, service.ListLogsParams{Action: "approve_article", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, approved.Total)
	assert.Len(t, approved.Logs, 1)

	page2, err := svc.ListLogs(ctx, service.ListLogsParams{Action: "approve_article", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page2.Logs, 1)
	assert.Equal(t, "a", page2.Logs[0].TargetID)
}
