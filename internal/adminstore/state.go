// Package adminstore holds the admin console state. All mutations go
// through Reduce, a pure function over a closed set of actions; the Store
// wraps it with locking, subscribers and the network-backed action
// creators.
package adminstore

import (
	"slices"

	"inquill/internal/client"
	"inquill/internal/policy"
)

type State struct {
	Users            []client.User
	Articles         []client.Article
	Newsletters      []client.Newsletter
	DatabaseTables   []client.DatabaseTable
	SelectedUsers    []string
	SelectedArticles []string
	// Loading is one flag shared by every request; whichever request
	// finishes first clears it.
	Loading   bool
	Error     string
	AdminRole policy.Role
}

// Action is implemented only by the types in this file.
type Action interface {
	action()
}

type (
	SetLoading        struct{ Loading bool }
	SetError          struct{ Message string }
	SetUsers          struct{ Users []client.User }
	SetArticles       struct{ Articles []client.Article }
	SetNewsletters    struct{ Newsletters []client.Newsletter }
	SetDatabaseTables struct{ Tables []client.DatabaseTable }
	SetAdminRole      struct{ Role policy.Role }
	SelectUsers       struct{ IDs []string }
	SelectArticles    struct{ IDs []string }
	AddNewsletter     struct{ Newsletter client.Newsletter }
	// ReplaceNewsletter swaps the record with the same ID.
	ReplaceNewsletter struct{ Newsletter client.Newsletter }
	SetUserRole       struct{ ID, Role string }
	SetArticleStatus  struct{ ID, Status string }
	// RemoveUser drops the user and its selection entry together.
	RemoveUser        struct{ ID string }
	RemoveArticle     struct{ ID string }
	// PatchUsers applies the non-nil fields to every listed user.
	PatchUsers struct {
		IDs    []string
		Role   *string
		Status *string
	}
	PatchArticles struct {
		IDs      []string
		Status   *string
		Category *string
	}
)

func (SetLoading) action()        {}
func (SetError) action()          {}
func (SetUsers) action()          {}
func (SetArticles) action()       {}
func (SetNewsletters) action()    {}
func (SetDatabaseTables) action() {}
func (SetAdminRole) action()      {}
func (SelectUsers) action()       {}
func (SelectArticles) action()    {}
func (AddNewsletter) action()     {}
func (ReplaceNewsletter) action() {}
func (SetUserRole) action()       {}
func (SetArticleStatus) action()  {}
func (RemoveUser) action()        {}
func (RemoveArticle) action()     {}
func (PatchUsers) action()        {}
func (PatchArticles) action()     {}

// Reduce returns the state after applying a. It never mutates s; every
// slice it changes is copied first.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetLoading:
		s.Loading = a.Loading
	case SetError:
		s.Error = a.Message
	case SetUsers:
		s.Users = slices.Clone(a.Users)
	case SetArticles:
		s.Articles = slices.Clone(a.Articles)
	case SetNewsletters:
		s.Newsletters = slices.Clone(a.Newsletters)
	case SetDatabaseTables:
		s.DatabaseTables = slices.Clone(a.Tables)
	case SetAdminRole:
		s.AdminRole = a.Role
	case SelectUsers:
		s.SelectedUsers = slices.Clone(a.IDs)
	case SelectArticles:
		s.SelectedArticles = slices.Clone(a.IDs)
	case AddNewsletter:
		s.Newsletters = append(slices.Clone(s.Newsletters), a.Newsletter)
	case ReplaceNewsletter:
		s.Newsletters = mapMatching(s.Newsletters, func(n client.Newsletter) bool { return n.ID == a.Newsletter.ID },
			func(client.Newsletter) client.Newsletter { return a.Newsletter })
	case SetUserRole:
		s.Users = mapMatching(s.Users, func(u client.User) bool { return u.ID == a.ID },
			func(u client.User) client.User {
				u.Role = a.Role
				return u
			})
	case SetArticleStatus:
		s.Articles = mapMatching(s.Articles, func(ar client.Article) bool { return ar.ID == a.ID },
			func(ar client.Article) client.Article {
				ar.Status = a.Status
				return ar
			})
	case RemoveUser:
		s.Users = slices.DeleteFunc(slices.Clone(s.Users), func(u client.User) bool { return u.ID == a.ID })
		s.SelectedUsers = without(s.SelectedUsers, a.ID)
	case RemoveArticle:
		s.Articles = slices.DeleteFunc(slices.Clone(s.Articles), func(ar client.Article) bool { return ar.ID == a.ID })
		s.SelectedArticles = without(s.SelectedArticles, a.ID)
	case PatchUsers:
		s.Users = mapMatching(s.Users, func(u client.User) bool { return slices.Contains(a.IDs, u.ID) },
			func(u client.User) client.User {
				if a.Role != nil {
					u.Role = *a.Role
				}
				if a.Status != nil {
					u.Status = *a.Status
				}
				return u
			})
	case PatchArticles:
		s.Articles = mapMatching(s.Articles, func(ar client.Article) bool { return slices.Contains(a.IDs, ar.ID) },
			func(ar client.Article) client.Article {
				if a.Status != nil {
					ar.Status = *a.Status
				}
				if a.Category != nil {
					ar.Category = *a.Category
				}
				return ar
			})
	}
	return s
}

func mapMatching[T any](in []T, match func(T) bool, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		if match(v) {
			v = fn(v)
		}
		out[i] = v
	}
	return out
}

func without(ids []string, id string) []string {
	if ids == nil {
		return nil
	}
	return slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
}
