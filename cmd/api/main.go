package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/bryanwahyu/labellens/internal/application"
	appreports "github.com/bryanwahyu/labellens/internal/application/reports"
	"github.com/bryanwahyu/labellens/internal/config"
	failures "github.com/bryanwahyu/labellens/internal/domain/analysisfailures"
	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
	"github.com/bryanwahyu/labellens/internal/domain/uploads"
	"github.com/bryanwahyu/labellens/internal/infra/analyzer"
	mysqldb "github.com/bryanwahyu/labellens/internal/infra/db/mysql"
	pgdb "github.com/bryanwahyu/labellens/internal/infra/db/postgres"
	sqlitedb "github.com/bryanwahyu/labellens/internal/infra/db/sqlite"
	"github.com/bryanwahyu/labellens/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/labellens/internal/infra/storage"
	"github.com/bryanwahyu/labellens/internal/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	db, repo, failureRepo, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store connect error: %v", err)
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
		log.Fatalf("minio init error: %v", err)
	}

	client := analyzer.NewClient(cfg.Analyzer.BaseURL, time.Duration(cfg.Analyzer.TimeoutSeconds)*time.Second)

	svc := &appreports.Service{
		Repo:     repo,
		Analyzer: client,
		Files:    store,
		Failures: failureRepo,
		Session:  uploads.NewSession(),
		Clock:    application.SystemClock{},
	}

	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  middleware.CheckFunc(store.Ping),
	})

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(middleware.Logging)
	mux.Use(middleware.CollectMetrics)
	mux.Use(middleware.RateLimit(30, 1))
	mux.Mount("/", httpserver.NewRouter(svc, health, cfg.Server.MaxUploadMB<<20))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, domain.Repository, failures.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, mysqldb.NewReportRepository(db), mysqldb.NewFailureRepository(db), nil
	case "postgres":
		db, err := pgdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, pgdb.NewReportRepository(db), pgdb.NewFailureRepository(db), nil
	case "sqlite":
		db, err := sqlitedb.Connect(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, sqlitedb.NewReportRepository(db), sqlitedb.NewFailureRepository(db), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
}
