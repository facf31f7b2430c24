package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"inquill/internal/auth"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RateLimitOptions struct {
	TrustProxy bool
	Now        func() time.Time
	// Rules replaces the default rule set.
	Rules []RateRule
}

// RateRule caps requests to one route class per subject within a window.
type RateRule struct {
	Route   string
	Limit   int64
	Window  time.Duration
	PerUser bool
}

// DefaultRateRules guards credential endpoints per IP and write-heavy
// endpoints per user.
var DefaultRateRules = []RateRule{
	{Route: "auth_login", Limit: 10, Window: time.Minute},
	{Route: "auth_register", Limit: 5, Window: 10 * time.Minute},
	{Route: "upload", Limit: 30, Window: 10 * time.Minute, PerUser: true},
	{Route: "upload", Limit: 200, Window: 24 * time.Hour, PerUser: true},
	{Route: "article_create", Limit: 20, Window: 10 * time.Minute, PerUser: true},
	{Route: "article_like", Limit: 60, Window: time.Minute, PerUser: true},
	{Route: "comment_create", Limit: 30, Window: 5 * time.Minute, PerUser: true},
}

var incrExpireScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if v == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {v, ttl}
`)

// RateLimit applies Redis fixed-window limits. Without Redis it uses
// in-process token buckets refilled at limit/window, which only hold per
// instance. Redis errors fail open.
func RateLimit(rdb *redis.Client, opt RateLimitOptions) func(http.Handler) http.Handler {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	rules := opt.Rules
	if rules == nil {
		rules = DefaultRateRules
	}
	local := newLimiterCache()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := classifyRoute(r)
			if route == "" {
				next.ServeHTTP(w, r)
				return
			}
			ip := ClientIP(r, opt.TrustProxy)
			user, hasUser := auth.UserFromContext(r.Context())

			for i, rr := range rules {
				if rr.Route != route {
					continue
				}
				subject := "ip:" + ip
				if rr.PerUser && hasUser {
					subject = "user:" + user.ID.String()
				}

				if rdb == nil {
					lim := local.get(strconv.Itoa(i)+":"+subject, rr)
					if !lim.AllowN(opt.Now(), 1) {
						w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(rr), 10))
						writeRateLimited(w)
						return
					}
					continue
				}

				count, ttl, resetUnix, err := hitFixedWindow(r.Context(), rdb, rr, subject, opt.Now())
				if err != nil {
					continue
				}
				remaining := rr.Limit - count
				if remaining < 0 {
					remaining = 0
				}
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rr.Limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix, 10))
				if count > rr.Limit {
					if ttl <= 0 {
						ttl = int64(rr.Window.Seconds())
					}
					w.Header().Set("Retry-After", strconv.FormatInt(ttl, 10))
					writeRateLimited(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later")
}

func retryAfterSeconds(rr RateRule) int64 {
	if rr.Limit <= 0 {
		return int64(rr.Window.Seconds())
	}
	s := int64(rr.Window.Seconds()) / rr.Limit
	if s < 1 {
		s = 1
	}
	return s
}

func hitFixedWindow(ctx context.Context, rdb *redis.Client, rr RateRule, subject string, now time.Time) (count, ttlSeconds, resetUnix int64, err error) {
	windowSeconds := int64(rr.Window.Seconds())
	if windowSeconds <= 0 {
		return 0, 0, 0, nil
	}
	start := (now.Unix() / windowSeconds) * windowSeconds
	resetUnix = start + windowSeconds
	key := "rl:" + rr.Route + ":" + subject + ":" + strconv.FormatInt(windowSeconds, 10) + ":" + strconv.FormatInt(start, 10)

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	res, err := incrExpireScript.Run(ctx, rdb, []string{key}, windowSeconds).Result()
	if err != nil {
		return 0, 0, resetUnix, err
	}
	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return 0, 0, resetUnix, nil
	}
	if v, ok := arr[0].(int64); ok {
		count = v
	}
	if v, ok := arr[1].(int64); ok {
		ttlSeconds = v
	}
	return count, ttlSeconds, resetUnix, nil
}

const maxLocalLimiters = 10000

type limiterCache struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterCache() *limiterCache {
	return &limiterCache{limiters: make(map[string]*rate.Limiter)}
}

func (c *limiterCache) get(key string, rr RateRule) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[key]; ok {
		return l
	}
	if len(c.limiters) >= maxLocalLimiters {
		c.limiters = make(map[string]*rate.Limiter)
	}
	every := rr.Window / time.Duration(max(rr.Limit, 1))
	l := rate.NewLimiter(rate.Every(every), int(rr.Limit))
	c.limiters[key] = l
	return l
}

// classifyRoute maps requests to stable rate-limit classes. Paths are
// matched by prefix so it works before chi resolves the route.
func classifyRoute(r *http.Request) string {
	if r.Method != http.MethodPost {
		return ""
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/auth/login":
		return "auth_login"
	case path == "/api/auth/register":
		return "auth_register"
	case strings.HasPrefix(path, "/api/uploads/"):
		return "upload"
	case path == "/api/articles":
		return "article_create"
	case strings.HasPrefix(path, "/api/articles/") && strings.HasSuffix(path, "/like"):
		return "article_like"
	case path == "/api/comments":
		return "comment_create"
	}
	return ""
}
