package adminstore

import (
	"context"
	"errors"
	"strings"

	"inquill/internal/api"
	"inquill/internal/client"
	"inquill/internal/policy"
)

const genericMessage = "An unexpected error occurred"

// run brackets fn with the shared loading flag and reports its failure.
func (s *Store) run(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	s.Dispatch(SetLoading{Loading: true})
	defer s.Dispatch(SetLoading{Loading: false})
	if err := fn(ctx); err != nil {
		s.fail(title, err)
		return err
	}
	return nil
}

func (s *Store) fail(title string, err error) {
	msg := client.Message(err, genericMessage)
	s.Dispatch(SetError{Message: msg})
	s.toaster.Toast(Toast{Title: title, Message: msg, Destructive: true})
}

// refuse reports a guard failure without touching the network.
func (s *Store) refuse(title string, err error) error {
	s.fail(title, err)
	return err
}

func (s *Store) FetchUsers(ctx context.Context) ([]client.User, error) {
	var users []client.User
	err := s.run(ctx, "Failed to load users", func(ctx context.Context) error {
		var err error
		if users, err = s.backend.Users(ctx); err != nil {
			return err
		}
		s.Dispatch(SetUsers{Users: users})
		return nil
	})
	return users, err
}

func (s *Store) FetchArticles(ctx context.Context) ([]client.Article, error) {
	var articles []client.Article
	err := s.run(ctx, "Failed to load articles", func(ctx context.Context) error {
		var err error
		if articles, err = s.backend.Articles(ctx); err != nil {
			return err
		}
		s.Dispatch(SetArticles{Articles: articles})
		return nil
	})
	return articles, err
}

func (s *Store) FetchNewsletters(ctx context.Context) ([]client.Newsletter, error) {
	var letters []client.Newsletter
	err := s.run(ctx, "Failed to load newsletters", func(ctx context.Context) error {
		var err error
		if letters, err = s.backend.Newsletters(ctx); err != nil {
			return err
		}
		s.Dispatch(SetNewsletters{Newsletters: letters})
		return nil
	})
	return letters, err
}

func (s *Store) FetchDatabaseTables(ctx context.Context, refresh bool) ([]client.DatabaseTable, error) {
	var tables []client.DatabaseTable
	err := s.run(ctx, "Failed to load database statistics", func(ctx context.Context) error {
		var err error
		if tables, err = s.backend.DatabaseTables(ctx, refresh); err != nil {
			return err
		}
		s.Dispatch(SetDatabaseTables{Tables: tables})
		return nil
	})
	return tables, err
}

func (s *Store) userTarget(id string) policy.Target {
	t := policy.Target{ID: id}
	for _, u := range s.State().Users {
		if u.ID == id {
			t.Role = u.RoleValue()
			break
		}
	}
	return t
}

func (s *Store) articleTarget(id string) policy.Target {
	t := policy.Target{ID: id}
	for _, a := range s.State().Articles {
		if a.ID == id {
			t.OwnerID = a.Author.ID
			break
		}
	}
	return t
}

func (s *Store) PromoteUser(ctx context.Context, id string) error {
	return s.changeRole(ctx, id, policy.ActionPromote, "Failed to promote user", s.backend.Promote)
}

func (s *Store) DemoteUser(ctx context.Context, id string) error {
	return s.changeRole(ctx, id, policy.ActionDemote, "Failed to demote user", s.backend.Demote)
}

func (s *Store) changeRole(ctx context.Context, id string, action policy.Action, title string, call func(context.Context, string) (client.User, error)) error {
	if err := policy.CanAct(s.actor(), s.userTarget(id), action); err != nil {
		return s.refuse(title, err)
	}
	return s.run(ctx, title, func(ctx context.Context) error {
		u, err := call(ctx, id)
		if err != nil {
			return err
		}
		s.Dispatch(SetUserRole{ID: id, Role: u.Role})
		return nil
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	const title = "Failed to delete user"
	if err := policy.CanAct(s.actor(), s.userTarget(id), policy.ActionDeleteUser); err != nil {
		return s.refuse(title, err)
	}
	return s.run(ctx, title, func(ctx context.Context) error {
		if err := s.backend.DeleteUser(ctx, id); err != nil {
			return err
		}
		s.Dispatch(RemoveUser{ID: id})
		return nil
	})
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	return s.run(ctx, "Failed to delete article", func(ctx context.Context) error {
		if err := s.backend.DeleteArticle(ctx, id); err != nil {
			return err
		}
		s.Dispatch(RemoveArticle{ID: id})
		return nil
	})
}

// BulkUpdateUsers refuses the whole batch when any member fails the
// policy check; nothing is sent in that case.
func (s *Store) BulkUpdateUsers(ctx context.Context, ids []string, updates api.UserUpdates) error {
	const title = "Failed to update users"
	patch := PatchUsers{IDs: ids}
	if updates.Role != nil {
		r, err := policy.ParseRole(*updates.Role)
		if err != nil {
			return s.refuse(title, err)
		}
		display := r.Display()
		patch.Role = &display
	}
	if updates.Status != nil {
		display := capitalize(*updates.Status)
		patch.Status = &display
	}
	actor := s.actor()
	for _, id := range ids {
		if err := policy.CanAct(actor, s.userTarget(id), policy.ActionUpdateUser); err != nil {
			return s.refuse(title, err)
		}
	}
	return s.run(ctx, title, func(ctx context.Context) error {
		if err := s.backend.BulkUpdateUsers(ctx, ids, updates); err != nil {
			return err
		}
		s.Dispatch(patch)
		return nil
	})
}

// BulkUpdateArticles refuses the whole batch when publishing it would
// approve an article the acting non-admin wrote.
func (s *Store) BulkUpdateArticles(ctx context.Context, ids []string, updates api.ArticleUpdates) error {
	const title = "Failed to update articles"
	patch := PatchArticles{IDs: ids, Category: updates.Category}
	if updates.Status != nil {
		st, err := policy.ParseArticleStatus(*updates.Status)
		if err != nil {
			return s.refuse(title, err)
		}
		display := st.Display()
		patch.Status = &display
		if st == policy.StatusPublished {
			actor := s.actor()
			for _, id := range ids {
				if err := policy.CanAct(actor, s.articleTarget(id), policy.ActionApprove); err != nil {
					return s.refuse(title, err)
				}
			}
		}
	}
	return s.run(ctx, title, func(ctx context.Context) error {
		if err := s.backend.BulkUpdateArticles(ctx, ids, updates); err != nil {
			return err
		}
		s.Dispatch(patch)
		return nil
	})
}

func (s *Store) ApproveArticle(ctx context.Context, id string) error {
	return s.moderate(ctx, id, policy.ActionApprove, policy.StatusPublished, "Failed to approve article", s.backend.ApproveArticle)
}

// RejectArticle has no self guard: any reviewer may reject, including
// their own submission.
func (s *Store) RejectArticle(ctx context.Context, id string) error {
	return s.moderate(ctx, id, policy.ActionReject, policy.StatusRejected, "Failed to reject article", s.backend.RejectArticle)
}

func (s *Store) moderate(ctx context.Context, id string, action policy.Action, to policy.ArticleStatus, title string, call func(context.Context, string) (client.Article, error)) error {
	if err := policy.CanAct(s.actor(), s.articleTarget(id), action); err != nil {
		return s.refuse(title, err)
	}
	return s.run(ctx, title, func(ctx context.Context) error {
		if _, err := call(ctx, id); err != nil {
			return err
		}
		s.Dispatch(SetArticleStatus{ID: id, Status: to.Display()})
		return nil
	})
}

// SendNewsletter does not check the local status; the server rejects a
// second send.
func (s *Store) SendNewsletter(ctx context.Context, id string) error {
	return s.run(ctx, "Failed to send newsletter", func(ctx context.Context) error {
		n, err := s.backend.SendNewsletter(ctx, id)
		if err != nil {
			return err
		}
		s.Dispatch(ReplaceNewsletter{Newsletter: n})
		return nil
	})
}

func (s *Store) CreateNewsletter(ctx context.Context, subject, content string) (client.Newsletter, error) {
	var n client.Newsletter
	err := s.run(ctx, "Failed to create newsletter", func(ctx context.Context) error {
		var err error
		if n, err = s.backend.CreateNewsletter(ctx, subject, content); err != nil {
			return err
		}
		s.Dispatch(AddNewsletter{Newsletter: n})
		return nil
	})
	return n, err
}

// CheckAdminAccess reports whether the session may use the console. A
// known admin role short-circuits; otherwise the server decides, and when
// it cannot be reached the session claim is used. It never fails.
func (s *Store) CheckAdminAccess(ctx context.Context) bool {
	if s.State().AdminRole.IsAdmin() {
		return true
	}
	res, err := s.backend.VerifyAdmin(ctx)
	switch {
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrForbidden):
		return false
	case err != nil:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return false
		}
		return s.session.Role.IsAdmin()
	}
	role, perr := policy.ParseRole(res.Role)
	if perr != nil {
		role = policy.RoleUser
	}
	if res.IsAdmin && !role.IsAdmin() {
		role = policy.RoleAdmin
	}
	s.Dispatch(SetAdminRole{Role: role})
	return role.IsAdmin()
}

func (s *Store) SelectUsers(ids []string) {
	s.Dispatch(SelectUsers{IDs: ids})
}

func (s *Store) SelectArticles(ids []string) {
	s.Dispatch(SelectArticles{IDs: ids})
}

func capitalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + strings.ToLower(v[1:])
}
