package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/db/sqlc"
	"inquill/internal/logging"
	"inquill/internal/policy"
	"inquill/internal/repository"

	"github.com/google/uuid"
)

const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

var ErrInactive = errors.New("account inactive")

type AuthService struct {
	store  *repository.Store
	tokens *auth.TokenManager
}

func NewAuthService(store *repository.Store, tokens *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// Session is an authentication result plus the cookie lifetime to set.
type Session struct {
	Response api.AuthResponse
	TTL      time.Duration
}

func authUser(u sqlc.User) auth.User {
	role, err := policy.ParseRole(u.Role)
	if err != nil {
		role = policy.RoleUser
	}
	return auth.User{ID: u.ID, Username: u.Username, Email: u.Email, Role: role}
}

// Register creates a user with the default role and signs them in with a
// long-lived token.
func (s *AuthService) Register(ctx context.Context, req api.RegisterRequest) (Session, error) {
	if s.store == nil {
		return Session{}, errNoStore
	}
	username := strings.TrimSpace(req.Username)
	if err := auth.ValidateUsername(username); err != nil {
		return Session{}, invalid(err.Error())
	}
	email := auth.NormalizeEmail(req.Email)
	if err := auth.ValidateEmail(email); err != nil {
		return Session{}, invalid(err.Error())
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return Session{}, invalid(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}
	created, err := s.store.Q.CreateUser(ctx, sqlc.CreateUserParams{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         string(policy.RoleUser),
		Status:       UserStatusActive,
	})
	if err != nil {
		if isUniqueViolation(err) {
			logging.Audit(ctx, "auth.register", "failure", slog.String("reason", "user_exists"))
			return Session{}, NewError(http.StatusBadRequest, "user_exists", "User already exists")
		}
		return Session{}, err
	}

	issued, err := s.tokens.Issue(authUser(created), true)
	if err != nil {
		return Session{}, err
	}
	logging.Audit(ctx, "auth.register", logging.OutcomeSuccess, slog.String("user_id", created.ID.String()))
	return Session{
		Response: api.AuthResponse{User: mapUser(created), Token: issued.Token, ExpiresAt: issued.ExpiresAt},
		TTL:      issued.TTL,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req api.LoginRequest) (Session, error) {
	if s.store == nil {
		return Session{}, errNoStore
	}
	email := auth.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return Session{}, invalid("email and password required")
	}

	user, err := s.store.Q.GetUserByEmail(ctx, email)
	if err != nil {
		if isNoRows(err) {
			logging.Audit(ctx, "auth.login", "failure", slog.String("reason", "unknown_email"))
			return Session{}, unauthorized("Invalid credentials")
		}
		return Session{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		logging.Audit(ctx, "auth.login", "failure", slog.String("user_id", user.ID.String()), slog.String("reason", "bad_password"))
		return Session{}, unauthorized("Invalid credentials")
	}
	if user.Status != UserStatusActive {
		logging.Audit(ctx, "auth.login", "denied", slog.String("user_id", user.ID.String()), slog.String("reason", "inactive"))
		return Session{}, forbidden("Account is inactive")
	}

	if err := s.store.Q.TouchUserLastLogin(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "touch last login failed", "user_id", user.ID, "error", err)
	}

	issued, err := s.tokens.Issue(authUser(user), req.RememberMe)
	if err != nil {
		return Session{}, err
	}
	remember := req.RememberMe
	logging.Audit(ctx, "auth.login", logging.OutcomeSuccess, slog.String("user_id", user.ID.String()), slog.Bool("remember_me", remember))
	return Session{
		Response: api.AuthResponse{User: mapUser(user), Token: issued.Token, RememberMe: &remember, ExpiresAt: issued.ExpiresAt},
		TTL:      issued.TTL,
	}, nil
}

// Logout revokes the presented token. A missing token still logs out; the
// handler clears the cookie either way.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) {
	if claims == nil {
		return
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		logging.Error(ctx, "token revoke failed", err)
	}
	logging.Audit(ctx, "auth.logout", logging.OutcomeSuccess, slog.String("user_id", claims.UserID))
}

func (s *AuthService) Me(ctx context.Context, user auth.User) (api.User, error) {
	if s.store == nil {
		return api.User{}, errNoStore
	}
	row, err := s.store.Q.GetUserByID(ctx, user.ID)
	if err != nil {
		if isNoRows(err) {
			return api.User{}, unauthorized("User not found")
		}
		return api.User{}, err
	}
	return mapUser(row), nil
}

// Refresh swaps the current token for a new one of the same lifetime class.
func (s *AuthService) Refresh(ctx context.Context, claims *auth.Claims, user auth.User) (Session, error) {
	if claims == nil {
		return Session{}, unauthorized("Not authenticated")
	}
	issued, err := s.tokens.Refresh(ctx, claims, user)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Response: api.AuthResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt},
		TTL:      issued.TTL,
	}, nil
}

// LoadUser resolves token claims to the current stored user so role and
// status changes apply immediately.
func (s *AuthService) LoadUser(ctx context.Context, claims *auth.Claims) (auth.User, error) {
	if s.store == nil {
		return auth.User{}, errNoStore
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return auth.User{}, auth.ErrUnauthorized
	}
	row, err := s.store.Q.GetUserByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return auth.User{}, auth.ErrUnauthorized
		}
		return auth.User{}, err
	}
	if row.Status != UserStatusActive {
		return auth.User{}, ErrInactive
	}
	return authUser(row), nil
}
