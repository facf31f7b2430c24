// Package policy holds the authorization rules shared by the HTTP API and
// the admin console: the role ladder, the article workflow and the
// self-action guards.
package policy

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// ladder is ordered from least to most privileged.
var ladder = []Role{RoleUser, RoleWriter, RoleAdmin, RoleOwner}

var (
	ErrUnknownRole = errors.New("unknown role")
	ErrTopRole     = errors.New("user already has the highest role")
	ErrBottomRole  = errors.New("user already has the lowest role")
)

// ParseRole accepts any casing ("Admin", "ADMIN", "admin").
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if r.rank() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return r, nil
}

func (r Role) rank() int {
	for i, v := range ladder {
		if v == r {
			return i
		}
	}
	return -1
}

func (r Role) Valid() bool { return r.rank() >= 0 }

// Display returns the capitalised form used by the admin console.
func (r Role) Display() string {
	if r == "" {
		return ""
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleOwner }

// CanWrite reports whether the role may author and review articles.
func (r Role) CanWrite() bool { return r.rank() >= RoleWriter.rank() }

// Outranks reports whether r is strictly above other on the ladder.
func (r Role) Outranks(other Role) bool { return r.rank() > other.rank() }

// Promote returns the role one step up.
func (r Role) Promote() (Role, error) {
	i := r.rank()
	if i < 0 {
		return "", ErrUnknownRole
	}
	if i == len(ladder)-1 {
		return "", ErrTopRole
	}
	return ladder[i+1], nil
}

// Demote returns the role one step down.
func (r Role) Demote() (Role, error) {
	i := r.rank()
	if i < 0 {
		return "", ErrUnknownRole
	}
	if i == 0 {
		return "", ErrBottomRole
	}
	return ladder[i-1], nil
}
