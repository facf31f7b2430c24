package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"inquill/internal/api"
	"inquill/internal/cache"
	"inquill/internal/db/sqlc"
	"inquill/internal/policy"
	"inquill/internal/repository"
	"inquill/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(store *repository.Store) *service.AdminService {
	return service.NewAdminService(store, nil, service.NewLogsService(store))
}

func TestAdmin_PromoteSelfIsRejected(t *testing.T) {
	store := repository.NewMemoryStore()
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	svc := newAdminService(store)

	_, err := svc.Promote(context.Background(), admin, admin.ID)
	requireStatus(t, err, http.StatusForbidden)
	_, err = svc.Demote(context.Background(), admin, admin.ID)
	requireStatus(t, err, http.StatusForbidden)
	err = svc.DeleteUser(context.Background(), admin, admin.ID)
	requireStatus(t, err, http.StatusForbidden)
}

func TestAdmin_PromoteAndDemoteOneStep(t *testing.T) {
	store := repository.NewMemoryStore()
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	reader := seedUser(t, store, "reader", policy.RoleUser)
	svc := newAdminService(store)
	ctx := context.Background()

	u, err := svc.Promote(ctx, admin, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer", u.Role)

	u, err = svc.Demote(ctx, admin, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "user", u.Role)
	_, err = svc.Demote(ctx, admin, reader.ID)
	requireStatus(t, err, http.StatusBadRequest)

	// writer to admin is allowed, after which the peer is out of reach
	_, err = svc.Promote(ctx, admin, reader.ID)
	require.NoError(t, err)
	u, err = svc.Promote(ctx, admin, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	_, err = svc.Promote(ctx, admin, reader.ID)
	requireStatus(t, err, http.StatusForbidden)
	_, err = svc.Demote(ctx, admin, reader.ID)
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.Promote(ctx, admin, uuid.New())
	requireStatus(t, err, http.StatusNotFound)

	logs, err := service.NewLogsService(store).ListLogs(ctx, service.ListLogsParams{TargetID: reader.ID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 4, logs.Total)
}

func TestAdmin_OwnerOutranksAdmin(t *testing.T) {
	store := repository.NewMemoryStore()
	owner := seedUser(t, store, "owner", policy.RoleOwner)
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	svc := newAdminService(store)

	err := svc.DeleteUser(context.Background(), admin, owner.ID)
	requireStatus(t, err, http.StatusForbidden)

	u, err := svc.Demote(context.Background(), owner, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer", u.Role)
}

func TestAdmin_DeleteUser(t *testing.T) {
	store := repository.NewMemoryStore()
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	writer := seedUser(t, store, "writer", policy.RoleWriter)
	svc := newAdminService(store)
	ctx := context.Background()

	require.NoError(t, svc.DeleteUser(ctx, admin, writer.ID))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].ID)
	require.NotNil(t, users[0].ArticleCount)

	err = svc.DeleteUser(ctx, admin, writer.ID)
	requireStatus(t, err, http.StatusNotFound)
}

func TestAdmin_BulkUpdateUsers(t *testing.T) {
	store := repository.NewMemoryStore()
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	a := seedUser(t, store, "alpha", policy.RoleUser)
	b := seedUser(t, store, "bravo", policy.RoleUser)
	svc := newAdminService(store)
	ctx := context.Background()
	writer := "Writer"
	inactive := "inactive"

	_, err := svc.BulkUpdateUsers(ctx, admin, api.BulkUserRequest{
		IDs:     []uuid.UUID{a.ID, admin.ID},
		Updates: api.UserUpdates{Status: &inactive},
	})
	requireStatus(t, err, http.StatusForbidden)
	got, err := store.Q.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, service.UserStatusActive, got.Status)

	adminRole := "admin"
	_, err = svc.BulkUpdateUsers(ctx, admin, api.BulkUserRequest{
		IDs:     []uuid.UUID{a.ID},
		Updates: api.UserUpdates{Role: &adminRole},
	})
	requireStatus(t, err, http.StatusForbidden)

	res, err := svc.BulkUpdateUsers(ctx, admin, api.BulkUserRequest{
		IDs:     []uuid.UUID{a.ID, b.ID, a.ID},
		Updates: api.UserUpdates{Role: &writer, Status: &inactive},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		u, err := store.Q.GetUserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "writer", u.Role)
		assert.Equal(t, service.UserStatusInactive, u.Status)
	}

	_, err = svc.BulkUpdateUsers(ctx, a, api.BulkUserRequest{IDs: []uuid.UUID{b.ID}, Updates: api.UserUpdates{Status: &inactive}})
	requireStatus(t, err, http.StatusForbidden)
}

func TestAdmin_VerifyAdmin(t *testing.T) {
	svc := newAdminService(nil)
	res := svc.VerifyAdmin(seedUser(t, repository.NewMemoryStore(), "owner", policy.RoleOwner))
	assert.True(t, res.IsAdmin)
	assert.Equal(t, "Owner", res.Role)
}

func TestAdmin_DatabaseTablesAreCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := service.NewAdminService(repository.NewStore(db), cache.NewRedisCache(rdb, "inquill:"), nil)

	vacuumed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("-- name: ListTableStats").
		WillReturnRows(sqlmock.NewRows([]string{"name", "row_count", "total_size", "last_modified"}).
			AddRow("articles", int64(42), "96 kB", vacuumed).
			AddRow("users", int64(3), "32 kB", nil))

	first, err := svc.DatabaseTables(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "articles", first[0].Name)
	assert.EqualValues(t, 42, first[0].Rows)

	// served from Redis; sqlmock would fail on a second query
	second, err := svc.DatabaseTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
	assert.True(t, mr.Exists("inquill:admin:database_tables"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmin_StatsFromMemory(t *testing.T) {
	store := repository.NewMemoryStore()
	seedUser(t, store, "admin", policy.RoleAdmin)
	w := seedUser(t, store, "writer", policy.RoleWriter)
	_, err := store.Q.CreateArticle(context.Background(), sqlc.CreateArticleParams{
		ID: uuid.New(), AuthorID: w.ID, Title: "T", Slug: "t", Content: []byte("{}"), Status: "published",
	})
	require.NoError(t, err)

	stats, err := newAdminService(store).Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.TotalWriters)
	assert.EqualValues(t, 1, stats.PublishedArticles)
}
