package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inquill/internal/auth"
	"inquill/internal/logging"
	"inquill/internal/policy"
)

// AuthCookieName is the HttpOnly cookie carrying the session token.
const AuthCookieName = "token"

// UserLoader resolves token claims to the current stored user.
type UserLoader interface {
	LoadUser(ctx context.Context, claims *auth.Claims) (auth.User, error)
}

// TokenFromRequest returns the cookie token or, failing that, the bearer
// token. ok is false when the Authorization header is present but malformed.
func TokenFromRequest(r *http.Request) (token, source string, ok bool) {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, "cookie", true
	}
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", "", true
	}
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", "bearer", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")), "bearer", true
}

// OptionalAuth attaches the user when a token is presented. A bad bearer
// token is rejected with 401. A bad cookie token (expired, revoked, or its
// user gone or inactive) is expired and the request continues anonymously;
// the cookie is HttpOnly, so the browser cannot drop it on its own.
func OptionalAuth(tokens *auth.TokenManager, loader UserLoader, cookies CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, source, ok := TokenFromRequest(r)
			if !ok {
				logUnauthorized(r, "invalid_auth_header", source, nil)
				writeUnauthorized(w)
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			reject := func(reason string, err error) {
				logUnauthorized(r, reason, source, err)
				if source == "cookie" {
					ClearAuthCookie(w, cookies)
					next.ServeHTTP(w, r)
					return
				}
				writeUnauthorized(w)
			}
			if tokens == nil || loader == nil {
				reject("token_manager_missing", nil)
				return
			}

			claims, err := tokens.Parse(r.Context(), token)
			if err != nil {
				reject("token_parse_failed", err)
				return
			}
			user, err := loader.LoadUser(r.Context(), claims)
			if err != nil {
				reject("user_load_failed", err)
				return
			}

			reportUser(r.Context(), user)
			ctx := auth.WithClaims(auth.WithUser(r.Context(), user), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that OptionalAuth did not authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFromContext(r.Context()); !ok {
			logUnauthorized(r, "missing_token", "", nil)
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize allows only the listed roles. It implies RequireAuth.
func Authorize(roles ...policy.Role) func(http.Handler) http.Handler {
	allowed := make(map[policy.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				logUnauthorized(r, "missing_token", "", nil)
				writeUnauthorized(w)
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				slog.WarnContext(r.Context(), "forbidden request",
					slog.String("path", r.URL.Path),
					slog.String("user_id", user.ID.String()),
					slog.String("role", string(user.Role)))
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reportUser(ctx context.Context, user auth.User) {
	logging.SetActor(ctx, user.ID.String())
}

func logUnauthorized(r *http.Request, reason string, authSource string, err error) {
	attrs := []any{
		slog.String("reason", reason),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("remote", r.RemoteAddr),
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}
	if authSource != "" {
		attrs = append(attrs, slog.String("auth_source", authSource))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	slog.WarnContext(r.Context(), "unauthorized request", attrs...)
}

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	Domain string
	// Insecure drops the Secure flag for plain-HTTP local development.
	// SameSite=None requires Secure, so Lax is used instead.
	Insecure bool
}

// SetAuthCookie writes the cross-site session cookie.
func SetAuthCookie(w http.ResponseWriter, opt CookieOptions, token string, ttl time.Duration) {
	http.SetCookie(w, authCookie(opt, token, int(ttl/time.Second)))
}

// ClearAuthCookie expires the session cookie.
func ClearAuthCookie(w http.ResponseWriter, opt CookieOptions) {
	http.SetCookie(w, authCookie(opt, "", -1))
}

func authCookie(opt CookieOptions, value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     AuthCookieName,
		Value:    value,
		Path:     "/",
		Domain:   opt.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	if opt.Insecure {
		c.Secure = false
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}
