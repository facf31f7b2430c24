package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inquill/internal/auth"
	"inquill/internal/cache"
	"inquill/internal/config"
	"inquill/internal/db"
	"inquill/internal/handlers"
	"inquill/internal/logging"
	"inquill/internal/middleware"
	"inquill/internal/repository"
	"inquill/internal/scheduler"
	"inquill/internal/service"
	"inquill/internal/storage"

	"github.com/go-chi/docgen"
	"github.com/redis/go-redis/v9"
)

var routesDoc = flag.Bool("routes", false, "print the route table as markdown and exit")

func main() {
	flag.Parse()

	// Passing -routes prints the HTTP surface without touching any backing
	// service.
	if *routesDoc {
		r := handlers.NewRouter(handlers.API{}, handlers.RouterOptions{})
		fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: "inquill",
			Intro:       "InQuill HTTP API routes.",
		}))
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var loadedEnv []string
	if os.Getenv("DISABLE_DOTENV") == "" {
		loadedEnv = config.LoadDotEnv()
	}
	env, err := config.LoadEnv()
	if err != nil {
		logging.Init("info")
		return fmt.Errorf("configuration: %w", err)
	}
	logging.Init(env.LogLevel)
	for _, p := range loadedEnv {
		slog.Info("loaded env file", "path", p)
	}

	site, err := config.NewManager(env.SiteConfigPath)
	if err != nil {
		return err
	}
	slog.Info("loaded site config", "path", env.SiteConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := openRedis(ctx, env)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, closeStore, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := auth.NewTokenManager([]byte(env.JWTSecret))
	if redisClient != nil {
		tokens.SetRedis(redisClient)
		slog.Info("token revocation enabled via redis")
	} else {
		slog.Warn("token revocation disabled; redis not available")
	}

	var cacheImpl cache.Cache = cache.NewNoOpCache()
	if redisClient != nil {
		cacheImpl = cache.NewRedisCache(redisClient, "inquill:")
	}

	var images storage.ImageStore
	if env.S3.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    env.S3.Bucket,
			Region:    env.S3.Region,
			Endpoint:  env.S3.Endpoint,
			AccessKey: env.S3.AccessKey,
			SecretKey: env.S3.SecretKey,
			PublicURL: env.S3.PublicURL,
		})
		if err != nil {
			slog.Error("image storage unavailable; uploads will return 503", "error", err)
		} else {
			images = s3Store
			slog.Info("image storage configured", "bucket", env.S3.Bucket)
		}
	} else {
		slog.Warn("S3_BUCKET not set; uploads will return 503")
	}

	logs := service.NewLogsService(store)
	uploads := service.NewUploadsService(images, site)
	admin := service.NewAdminService(store, cacheImpl, logs)
	apiServer := handlers.API{
		Auth:        service.NewAuthService(store, tokens),
		Articles:    service.NewArticlesService(store, site, uploads, logs),
		Comments:    service.NewCommentsService(store),
		Uploads:     uploads,
		Newsletters: service.NewNewsletterService(store, site, logs),
		Admin:       admin,
		Logs:        logs,
		Tokens:      tokens,
		Cookies: middleware.CookieOptions{
			Domain:   env.CookieDomain,
			Insecure: !env.IsProduction(),
		},
	}
	router := handlers.NewRouter(apiServer, handlers.RouterOptions{
		Redis:          redisClient,
		TrustProxy:     env.TrustProxy,
		AllowedOrigins: env.AllowedOrigins,
	})

	sched := scheduler.New(slog.Default())
	spec := site.Get().Admin.DatabaseStatsInterval
	if _, err := sched.AddTableStats(spec, scheduler.RefresherFunc(func(ctx context.Context) error {
		_, err := admin.RefreshDatabaseTables(ctx)
		return err
	})); err != nil {
		slog.Warn("table stats refresh not scheduled", "spec", spec, "error", err)
	}
	sched.Start()
	defer sched.Stop()

	server := &http.Server{
		Addr:    env.Addr(),
		Handler: router,
		// uploads of up to the configured image size over slow links
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// image resizing happens before the response is written
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", "addr", server.Addr, "env", env.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openRedis returns nil when Redis is not configured or not reachable; the
// rate limiter, cache and token revocation all degrade without it.
func openRedis(ctx context.Context, env *config.Env) *redis.Client {
	if !env.UseRedis() {
		slog.Info("REDIS_ADDR not set; running without redis")
		return nil
	}
	opts, warn, err := env.RedisOptions()
	if err != nil {
		slog.Warn("invalid REDIS_ADDR; redis disabled", "error", err)
		return nil
	}
	if warn != "" {
		slog.Warn(warn)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis not reachable; continuing without it", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// openStore connects to Postgres and applies migrations. Without
// DATABASE_URL, which production rejects, it falls back to the in-memory
// store.
func openStore(ctx context.Context, env *config.Env) (*repository.Store, func(), error) {
	if env.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set; using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}
	sqlDB, err := db.Open(env.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := db.Migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	slog.Info("database ready")
	return repository.NewStore(sqlDB), func() { _ = sqlDB.Close() }, nil
}
