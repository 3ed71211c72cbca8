package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docsmanager/docs"
	"docsmanager/internal/auth"
	"docsmanager/internal/config"
	"docsmanager/internal/database"
	"docsmanager/internal/database/migration"
	handlers "docsmanager/internal/http/handler"
	"docsmanager/internal/http/middleware"
	"docsmanager/internal/logger"
	tracing "docsmanager/internal/otel"
	"docsmanager/internal/repository/postgres"
	"docsmanager/internal/service"
	"docsmanager/internal/storage"
	"docsmanager/internal/validation"
)

const shutdownTimeout = 10 * time.Second

// @title Document Manager API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_exit", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	store, err := storage.New(cfg, log)
	if err != nil {
		return err
	}

	revoker, err := newRevoker(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}

	// Repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	rules := validation.NewFileRules(cfg.Upload.MaxSizeBytes, cfg.Upload.AllowedExtensions)
	docSvc := service.NewDocumentService(store, docRepo, rules, log)
	commentSvc := service.NewCommentService(docRepo, postgres.NewCommentPostgres(db))
	authSvc := service.NewAuthService(
		postgres.NewUserPostgres(db),
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		revoker,
		log,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandlerFor(cfg.Upload.MaxSizeBytes),
		BodyLimit:             bodyLimit(cfg.Upload.MaxSizeBytes),
		DisableStartupMessage: true,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:        db,
		Documents: docSvc,
		Comments:  commentSvc,
		Auth:      authSvc,
		Cookie:    handlers.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		Log:       log,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server_listening", zap.String("addr", addr), zap.String("storage_driver", cfg.Storage.Driver))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server_shutting_down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}

// newRevoker connects the logout denylist. Without REDIS_ADDR logout only clears the cookie.
func newRevoker(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (auth.Revoker, error) {
	if cfg.Addr == "" {
		log.Warn("session_revocation_disabled")
		return auth.NoopRevoker{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info("redis connected", zap.String("redis_addr", cfg.Addr))
	return auth.NewRedisRevoker(client), nil
}

// bodyLimit lets files somewhat over the upload limit through so they get a field error instead of 413.
func bodyLimit(maxUpload int64) int {
	if maxUpload <= 0 {
		return fiber.DefaultBodyLimit
	}
	return int(2 * maxUpload)
}
