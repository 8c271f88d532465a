package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/medisense/medisense-api/internal/application"
	appassess "github.com/medisense/medisense-api/internal/application/assessment"
	appintake "github.com/medisense/medisense-api/internal/application/intake"
	appreports "github.com/medisense/medisense-api/internal/application/reports"
	"github.com/medisense/medisense-api/internal/config"
	"github.com/medisense/medisense-api/internal/domain/report"
	"github.com/medisense/medisense-api/internal/domain/share"
	"github.com/medisense/medisense-api/internal/infra/ai/gemini"
	mysqldb "github.com/medisense/medisense-api/internal/infra/db/mysql"
	postgresdb "github.com/medisense/medisense-api/internal/infra/db/postgres"
	"github.com/medisense/medisense-api/internal/infra/httpserver"
	minioStore "github.com/medisense/medisense-api/internal/infra/storage"
	"github.com/medisense/medisense-api/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	ctx := context.Background()

	db, reportRepo, shareRepo, err := connectDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database connect error")
	}
	defer db.Close()

	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("minio init error")
	}

	gateway, err := gemini.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini init error")
	}

	clock := application.SystemClock{}

	intakeSvc := appintake.NewService(gateway, clock, log, cfg.Gemini.FlashModel)
	intakeSvc.ExtractTimeout = time.Duration(cfg.Gemini.ExtractTimeoutSec) * time.Second

	assessSvc := appassess.NewService(gateway, log, cfg.Gemini.ProModel)
	assessSvc.Timeout = time.Duration(cfg.Gemini.AnalysisTimeoutSec) * time.Second

	reportsSvc := appreports.NewService(reportRepo, shareRepo, store, clock, log)
	reportsSvc.Policy = report.SavePolicy{
		PayloadCap:      cfg.Limits.MediaPayloadCap,
		TruncatedPrefix: cfg.Limits.TruncatedPrefix,
	}
	reportsSvc.ShareHours = cfg.Share.DefaultTTLHours

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	mux.Use(middleware.RateLimit(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  middleware.CheckerFunc(store.Ping),
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Mount("/", httpserver.NewRouter(intakeSvc, assessSvc, reportsSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:           addr,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute, // analysis calls can run up to the model deadline
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.Log.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, report.Repository, share.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, postgresdb.NewReportRepository(db), postgresdb.NewShareRepository(db), nil
	case "mysql", "":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, mysqldb.NewReportRepository(db), mysqldb.NewShareRepository(db), nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}
