package adminstore_test

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"

	"inquill/internal/adminstore"
	"inquill/internal/api"
	"inquill/internal/client"
	"inquill/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	err   error

	users       []client.User
	articles    []client.Article
	newsletters []client.Newsletter
	verify      api.VerifyAdminResponse
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeBackend) Users(context.Context) ([]client.User, error) {
	return f.users, f.record("users")
}

func (f *fakeBackend) Articles(context.Context) ([]client.Article, error) {
	return f.articles, f.record("articles")
}

func (f *fakeBackend) Newsletters(context.Context) ([]client.Newsletter, error) {
	return f.newsletters, f.record("newsletters")
}

func (f *fakeBackend) DatabaseTables(context.Context, bool) ([]client.DatabaseTable, error) {
	return []client.DatabaseTable{{Name: "users", Rows: 3}}, f.record("tables")
}

func (f *fakeBackend) Promote(_ context.Context, id string) (client.User, error) {
	return client.User{ID: id, Role: "Admin"}, f.record("promote " + id)
}

func (f *fakeBackend) Demote(_ context.Context, id string) (client.User, error) {
	return client.User{ID: id, Role: "User"}, f.record("demote " + id)
}

func (f *fakeBackend) DeleteUser(_ context.Context, id string) error {
	return f.record("delete-user " + id)
}

func (f *fakeBackend) DeleteArticle(_ context.Context, id string) error {
	return f.record("delete-article " + id)
}

func (f *fakeBackend) BulkUpdateUsers(context.Context, []string, api.UserUpdates) error {
	return f.record("bulk-users")
}

func (f *fakeBackend) BulkUpdateArticles(context.Context, []string, api.ArticleUpdates) error {
	return f.record("bulk-articles")
}

func (f *fakeBackend) ApproveArticle(_ context.Context, id string) (client.Article, error) {
	return client.Article{ID: id, Status: "Published"}, f.record("approve " + id)
}

func (f *fakeBackend) RejectArticle(_ context.Context, id string) (client.Article, error) {
	return client.Article{ID: id, Status: "Rejected"}, f.record("reject " + id)
}

func (f *fakeBackend) SendNewsletter(_ context.Context, id string) (client.Newsletter, error) {
	return client.Newsletter{ID: id, Status: "Sent", SentDate: "2026-01-02"}, f.record("send " + id)
}

func (f *fakeBackend) CreateNewsletter(_ context.Context, subject, content string) (client.Newsletter, error) {
	return client.Newsletter{ID: "n-new", Subject: subject, Content: content, Status: "Draft"}, f.record("create-newsletter")
}

func (f *fakeBackend) VerifyAdmin(context.Context) (api.VerifyAdminResponse, error) {
	return f.verify, f.record("verify")
}

type toastLog struct {
	mu     sync.Mutex
	toasts []adminstore.Toast
}

func (l *toastLog) Toast(t adminstore.Toast) {
	l.mu.Lock()
	l.toasts = append(l.toasts, t)
	l.mu.Unlock()
}

func (l *toastLog) All() []adminstore.Toast {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.toasts)
}

func newStore(t *testing.T, fb *fakeBackend, session adminstore.Session) (*adminstore.Store, *toastLog) {
	t.Helper()
	toasts := &toastLog{}
	return adminstore.New(fb, session, adminstore.WithToaster(toasts), adminstore.WithInitialState(sampleState())), toasts
}

var adminSession = adminstore.Session{UserID: "u1", Role: policy.RoleAdmin}

func TestPromoteUser_SelfRefusedWithoutNetwork(t *testing.T) {
	fb := &fakeBackend{}
	s, toasts := newStore(t, fb, adminSession)

	err := s.PromoteUser(context.Background(), "u1")
	require.ErrorIs(t, err, policy.ErrSelfAction)
	assert.Empty(t, fb.Calls())
	assert.Equal(t, "Admin", s.State().Users[0].Role)
	require.Len(t, toasts.All(), 1)
	assert.Equal(t, "Failed to promote user", toasts.All()[0].Title)
	assert.NotEmpty(t, s.State().Error)
}

func TestPromoteUser_PatchesOnlyTarget(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminstore.Session{UserID: "u0", Role: policy.RoleOwner})

	before := s.State()
	require.NoError(t, s.PromoteUser(context.Background(), "u2"))
	assert.Equal(t, []string{"promote u2"}, fb.Calls())

	after := s.State()
	assert.Equal(t, "Admin", after.Users[1].Role)
	assert.Equal(t, before.Users[0], after.Users[0])
	assert.Equal(t, before.Users[2], after.Users[2])
	assert.False(t, after.Loading)
}

func TestDemoteUser_RankGuard(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminstore.Session{UserID: "u2", Role: policy.RoleAdmin})
	// u1 is an admin; a fellow admin cannot demote them
	err := s.DemoteUser(context.Background(), "u1")
	require.ErrorIs(t, err, policy.ErrForbidden)
	assert.Empty(t, fb.Calls())
}

func TestDeleteUser_RemovesFromCollectionAndSelectionTogether(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminSession)

	var torn bool
	unsubscribe := s.Subscribe(func(st adminstore.State) {
		inUsers := slices.ContainsFunc(st.Users, func(u client.User) bool { return u.ID == "u3" })
		inSelection := slices.Contains(st.SelectedUsers, "u3")
		if inUsers != inSelection {
			torn = true
		}
	})
	defer unsubscribe()

	require.NoError(t, s.DeleteUser(context.Background(), "u3"))
	assert.False(t, torn)
	assert.Len(t, s.State().Users, 2)
	assert.Equal(t, []string{"u2"}, s.State().SelectedUsers)

	err := s.DeleteUser(context.Background(), "u1")
	require.ErrorIs(t, err, policy.ErrSelfAction)
	assert.Equal(t, []string{"delete-user u3"}, fb.Calls())
}

func TestDeleteArticle_FailureLeavesStateUntouched(t *testing.T) {
	fb := &fakeBackend{err: &client.APIError{Status: http.StatusInternalServerError, Message: "internal error"}}
	s, toasts := newStore(t, fb, adminSession)

	err := s.DeleteArticle(context.Background(), "a1")
	require.Error(t, err)
	st := s.State()
	assert.Len(t, st.Articles, 2)
	assert.Equal(t, []string{"a1"}, st.SelectedArticles)
	assert.Equal(t, "internal error", st.Error)
	assert.False(t, st.Loading)
	require.Len(t, toasts.All(), 1)
	assert.True(t, toasts.All()[0].Destructive)
}

func TestBulkUpdateArticles_SelfApprovalRejectsWholeBatch(t *testing.T) {
	fb := &fakeBackend{}
	// u2 is a writer and authored a1
	s, _ := newStore(t, fb, adminstore.Session{UserID: "u2", Role: policy.RoleWriter})

	published := "Published"
	err := s.BulkUpdateArticles(context.Background(), []string{"a2", "a1"}, api.ArticleUpdates{Status: &published})
	require.ErrorIs(t, err, policy.ErrSelfApproval)
	assert.Empty(t, fb.Calls())
	assert.Equal(t, "Pending", s.State().Articles[0].Status)
	assert.Equal(t, "Draft", s.State().Articles[1].Status)

	// publishing only someone else's article goes through in one call
	require.NoError(t, s.BulkUpdateArticles(context.Background(), []string{"a2"}, api.ArticleUpdates{Status: &published}))
	assert.Equal(t, []string{"bulk-articles"}, fb.Calls())
	assert.Equal(t, "Published", s.State().Articles[1].Status)
}

func TestBulkUpdateUsers(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminSession)

	writer := "writer"
	err := s.BulkUpdateUsers(context.Background(), []string{"u3", "u1"}, api.UserUpdates{Role: &writer})
	require.ErrorIs(t, err, policy.ErrSelfAction)
	assert.Empty(t, fb.Calls())

	require.NoError(t, s.BulkUpdateUsers(context.Background(), []string{"u3"}, api.UserUpdates{Role: &writer}))
	assert.Equal(t, "Writer", s.State().Users[2].Role)
	assert.Equal(t, []string{"bulk-users"}, fb.Calls())
}

func TestApproveAndReject(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminstore.Session{UserID: "u2", Role: policy.RoleWriter})
	ctx := context.Background()

	require.ErrorIs(t, s.ApproveArticle(ctx, "a1"), policy.ErrSelfApproval)
	require.NoError(t, s.RejectArticle(ctx, "a1"))
	assert.Equal(t, "Rejected", s.State().Articles[0].Status)

	require.NoError(t, s.ApproveArticle(ctx, "a2"))
	assert.Equal(t, "Published", s.State().Articles[1].Status)
	assert.Equal(t, []string{"reject a1", "approve a2"}, fb.Calls())

	// admins may approve their own work
	admin, _ := newStore(t, &fakeBackend{}, adminstore.Session{UserID: "u2", Role: policy.RoleAdmin})
	require.NoError(t, admin.ApproveArticle(ctx, "a1"))
}

func TestNewsletters(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminSession)
	ctx := context.Background()

	n, err := s.CreateNewsletter(ctx, "Weekly digest", "# Hello")
	require.NoError(t, err)
	assert.Equal(t, "Draft", n.Status)
	require.Len(t, s.State().Newsletters, 2)
	assert.Equal(t, n, s.State().Newsletters[1])

	require.NoError(t, s.SendNewsletter(ctx, "n1"))
	assert.Equal(t, "Sent", s.State().Newsletters[0].Status)
	assert.NotEmpty(t, s.State().Newsletters[0].SentDate)
}

func TestFetch_ReplacesCollectionAndReportsErrors(t *testing.T) {
	fb := &fakeBackend{users: []client.User{{ID: "x", Role: "User"}}}
	s, toasts := newStore(t, fb, adminSession)
	ctx := context.Background()

	users, err := s.FetchUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, fb.users, users)
	assert.Equal(t, fb.users, s.State().Users)

	tables, err := s.FetchDatabaseTables(ctx, true)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
	assert.Equal(t, tables, s.State().DatabaseTables)

	fb.err = errors.New("")
	_, err = s.FetchArticles(ctx)
	require.Error(t, err)
	// previously loaded data stays
	assert.Len(t, s.State().Articles, 2)
	assert.Equal(t, "An unexpected error occurred", s.State().Error)
	require.Len(t, toasts.All(), 1)
	assert.Equal(t, "Failed to load articles", toasts.All()[0].Title)
}

func TestLoadingFlagSharedAcrossRequests(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminSession)

	var seen []bool
	s.Subscribe(func(st adminstore.State) { seen = append(seen, st.Loading) })
	_, err := s.FetchNewsletters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, seen)
}

func TestCheckAdminAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("cached role skips the server", func(t *testing.T) {
		fb := &fakeBackend{}
		s := adminstore.New(fb, adminstore.Session{UserID: "u1"}, adminstore.WithInitialState(adminstore.State{AdminRole: policy.RoleOwner}))
		assert.True(t, s.CheckAdminAccess(ctx))
		assert.Empty(t, fb.Calls())
	})

	t.Run("server decides", func(t *testing.T) {
		fb := &fakeBackend{verify: api.VerifyAdminResponse{IsAdmin: true, Role: "admin"}}
		s := adminstore.New(fb, adminstore.Session{UserID: "u1", Role: policy.RoleUser})
		assert.True(t, s.CheckAdminAccess(ctx))
		assert.Equal(t, policy.RoleAdmin, s.State().AdminRole)
	})

	t.Run("server denies", func(t *testing.T) {
		fb := &fakeBackend{err: client.ErrForbidden}
		s := adminstore.New(fb, adminstore.Session{UserID: "u1", Role: policy.RoleAdmin})
		assert.False(t, s.CheckAdminAccess(ctx))
	})

	t.Run("network failure falls back to session", func(t *testing.T) {
		fb := &fakeBackend{err: errors.New("dial tcp: connection refused")}
		s := adminstore.New(fb, adminstore.Session{UserID: "u1", Role: policy.RoleAdmin})
		assert.True(t, s.CheckAdminAccess(ctx))

		s = adminstore.New(fb, adminstore.Session{UserID: "u1", Role: policy.RoleWriter})
		assert.False(t, s.CheckAdminAccess(ctx))
	})
}

func TestSelect(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newStore(t, fb, adminSession)
	s.SelectUsers([]string{"u2"})
	s.SelectArticles(nil)
	assert.Equal(t, []string{"u2"}, s.State().SelectedUsers)
	assert.Empty(t, s.State().SelectedArticles)
	assert.Empty(t, fb.Calls())
}
