package policy

import (
	"errors"
	"fmt"
)

type Action string

const (
	ActionPromote    Action = "promote"
	ActionDemote     Action = "demote"
	ActionDeleteUser Action = "delete_user"
	ActionUpdateUser Action = "update_user"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
)

var (
	ErrSelfAction   = errors.New("self action not allowed")
	ErrSelfApproval = errors.New("self approval not allowed")
	ErrForbidden    = errors.New("insufficient permissions")
)

// Actor is the user performing an action.
type Actor struct {
	ID   string
	Role Role
}

// Target describes what the action applies to. For user actions ID and
// Role describe the user; for article actions ID is the article and
// OwnerID its author. An empty Role means the caller does not know it and
// rank checks are skipped.
type Target struct {
	ID      string
	OwnerID string
	Role    Role
}

// CanAct is the single authorization decision for privileged actions. It
// returns nil when the action is allowed; otherwise the error wraps one of
// ErrSelfAction, ErrSelfApproval or ErrForbidden and carries a message that
// can be shown to the user.
func CanAct(actor Actor, target Target, action Action) error {
	switch action {
	case ActionPromote, ActionDemote, ActionDeleteUser, ActionUpdateUser:
		return canActOnUser(actor, target, action)
	case ActionApprove:
		if !actor.Role.CanWrite() {
			return fmt.Errorf("%w: reviewers only", ErrForbidden)
		}
		if target.OwnerID != "" && target.OwnerID == actor.ID && !actor.Role.IsAdmin() {
			return fmt.Errorf("%w: you cannot approve your own article", ErrSelfApproval)
		}
		return nil
	case ActionReject:
		if !actor.Role.CanWrite() {
			return fmt.Errorf("%w: reviewers only", ErrForbidden)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ErrForbidden, action)
}

func canActOnUser(actor Actor, target Target, action Action) error {
	if target.ID != "" && target.ID == actor.ID {
		return fmt.Errorf("%w: you cannot %s your own account", ErrSelfAction, verb(action))
	}
	if !actor.Role.IsAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if target.Role == "" || actor.Role == RoleOwner {
		return nil
	}
	if !actor.Role.Outranks(target.Role) {
		return fmt.Errorf("%w: cannot %s a user with role %s", ErrForbidden, verb(action), target.Role.Display())
	}
	if action == ActionPromote {
		next, err := target.Role.Promote()
		if err != nil {
			return err
		}
		if next.Outranks(actor.Role) {
			return fmt.Errorf("%w: cannot promote above your own role", ErrForbidden)
		}
	}
	return nil
}

func verb(a Action) string {
	switch a {
	case ActionDeleteUser:
		return "delete"
	case ActionUpdateUser:
		return "modify"
	}
	return string(a)
}
