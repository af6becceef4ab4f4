package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"textscrub/docs"
	"textscrub/internal/auth"
	"textscrub/internal/config"
	"textscrub/internal/database"
	"textscrub/internal/database/migration"
	handlers "textscrub/internal/http/handler"
	"textscrub/internal/http/middleware"
	"textscrub/internal/logger"
	"textscrub/internal/otel"
	"textscrub/internal/repository"
	"textscrub/internal/repository/memory"
	"textscrub/internal/repository/postgres"
	"textscrub/internal/scrubber"
	"textscrub/internal/service"
	"textscrub/internal/storage"
)

// @title Translation Scrubber API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	log, logCloser, err := logger.New(cfg.Log, loc)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	cwd, _ := os.Getwd()
	root := config.ResolveProjectRoot(cfg.Scrubber.ProjectRoot, cwd)
	sc, err := scrubber.New(root, scrubber.Options{
		SourceDirs: cfg.Scrubber.SourceDirs,
		Extensions: cfg.Scrubber.Extensions,
		BackupDir:  cfg.Scrubber.BackupDir,
		LocaleFile: cfg.Scrubber.LocaleFile,
		ImportLine: cfg.Scrubber.ImportLine,
		HookLine:   cfg.Scrubber.HookLine,
		Logger:     log.With("component", "scrubber"),
	})
	if err != nil {
		return err
	}
	log.Info("project_root_resolved", "root", sc.Root())

	// Scan sessions live in PostgreSQL when configured, otherwise in memory
	db, repo, err := openSessionStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	// Optional S3-compatible mirror for backups (MinIO-supported)
	var objStore storage.Storage
	if cfg.MinIO.Enabled() {
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
	}

	authn, err := auth.New(cfg.Auth.Tokens, cfg.Auth.AdminRole)
	if err != nil {
		return fmt.Errorf("invalid AUTH_TOKENS: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return err
	}
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	svc := service.NewScrubService(sc, repo, objStore, service.Options{
		SessionTTL: time.Duration(cfg.Scrubber.SessionTTLMin) * time.Minute,
		Logger:     log.With("component", "service"),
		Metrics:    metrics,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			rid, _ := c.Locals(middleware.RequestIDLocalKey).(string)
			log.Error("panic_recovered", "request_id", rid, "path", c.Path(), "panic", fmt.Sprint(e))
		},
	}))
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log.With("component", "http")))
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// A nil *sql.DB must not reach the Pinger interface
	deps := handlers.Deps{Service: svc, Auth: authn, Logger: log}
	if db != nil {
		deps.DB = db
	}
	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", "addr", ":"+cfg.Port, "app_host", cfg.AppHost)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	return app.ShutdownWithTimeout(10 * time.Second)
}

// openSessionStore returns the postgres session store when DB_HOST is set and
// the in-memory one otherwise.
func openSessionStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, repository.ScanRepository, error) {
	db, err := database.NewPostgres(ctx, cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		log.Info("session_store_selected", "store", "memory")
		return nil, memory.NewScanMemory(), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, log, cfg.Host); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("session_store_selected", "store", "postgres")
	return db, postgres.NewScanPostgres(db), nil
}
