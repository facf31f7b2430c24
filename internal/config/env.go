package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// MinJWTSecretLength is the minimum accepted length of JWT_SECRET.
const MinJWTSecretLength = 32

var jwtPlaceholders = []string{"replace", "changeme", "change-me", "jwt-secret", "your-secret"}

// Env holds the process configuration read from environment variables.
type Env struct {
	DatabaseURL    string   `env:"DATABASE_URL"`
	JWTSecret      string   `env:"JWT_SECRET,required"`
	Port           int      `env:"PORT" envDefault:"5000"`
	Environment    string   `env:"ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	RedisAddr      string   `env:"REDIS_ADDR"`
	RedisPassword  string   `env:"REDIS_PASSWORD"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	CookieDomain   string   `env:"COOKIE_DOMAIN"`
	TrustProxy     bool     `env:"TRUST_PROXY" envDefault:"false"`
	SiteConfigPath string   `env:"SITE_CONFIG_PATH" envDefault:"./config/site.yaml"`

	S3 S3Env `envPrefix:"S3_"`
}

// S3Env configures image hosting. An empty bucket disables uploads.
type S3Env struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	PublicURL string `env:"PUBLIC_URL"`
}

func (e Env) IsProduction() bool {
	return e.Environment == "production" || e.Environment == "prod"
}

func (e Env) Addr() string { return fmt.Sprintf(":%d", e.Port) }

func (e Env) UseRedis() bool { return strings.TrimSpace(e.RedisAddr) != "" }

func (s S3Env) Enabled() bool { return strings.TrimSpace(s.Bucket) != "" }

// LoadEnv parses the environment and validates secrets.
func LoadEnv() (*Env, error) {
	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects short or placeholder secrets and incomplete production
// settings.
func (e *Env) Validate() error {
	secret := strings.TrimSpace(e.JWTSecret)
	if len(secret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET too short (minimum %d characters, hint: generate with: openssl rand -base64 32)", MinJWTSecretLength)
	}
	lower := strings.ToLower(secret)
	for _, p := range jwtPlaceholders {
		if strings.Contains(lower, p) {
			return fmt.Errorf("JWT_SECRET contains placeholder value %q", p)
		}
	}
	if e.IsProduction() {
		if strings.TrimSpace(e.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL not set (required in production)")
		}
		if e.UseRedis() && len(e.RedisPassword) < 16 && !strings.Contains(e.RedisAddr, "@") {
			return fmt.Errorf("REDIS_PASSWORD must be at least 16 characters in production")
		}
	}
	return nil
}

// LoadDotEnv loads .env.local and .env from the working directory or the
// nearest parent that has one. DOTENV_PATH selects an explicit file.
func LoadDotEnv() []string {
	if p := strings.TrimSpace(os.Getenv("DOTENV_PATH")); p != "" {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return []string{p}
			}
		}
		return nil
	}

	candidates := []string{".env.local", ".env"}
	var loaded []string
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	for dir := wd; ; {
		for _, name := range candidates {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := godotenv.Load(p); err == nil {
				loaded = append(loaded, p)
			}
		}
		if len(loaded) > 0 {
			return loaded
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return loaded
}

// RedisOptions accepts either a redis:// URL or a bare host:port. The
// returned warning is non-empty when the setup is usable but suspicious.
func (e Env) RedisOptions() (*redis.Options, string, error) {
	addr := strings.TrimSpace(e.RedisAddr)
	if addr == "" {
		addr = "localhost:6379"
	}

	if strings.Contains(addr, "://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			if e.IsProduction() && opts.Password == "" {
				return opts, "redis has no password in production environment", nil
			}
			return opts, "", nil
		}
		parsed, err := url.Parse(addr)
		if err != nil {
			return nil, "", fmt.Errorf("parse REDIS_ADDR: %w", err)
		}
		if parsed.Host == "" {
			return nil, "", fmt.Errorf("REDIS_ADDR missing host: %q", addr)
		}
		return &redis.Options{Addr: parsed.Host}, fmt.Sprintf("REDIS_ADDR uses %q scheme; using host %q", parsed.Scheme, parsed.Host), nil
	}

	opts := &redis.Options{Addr: addr, Password: e.RedisPassword}
	if e.IsProduction() && opts.Password == "" {
		return opts, "redis has no password in production environment", nil
	}
	return opts, "", nil
}
