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

	"simpledrive/internal/auth"
	"simpledrive/internal/config"
	"simpledrive/internal/db"
	"simpledrive/internal/httpapi"
	"simpledrive/internal/service"
	"simpledrive/internal/sigv4"
	"simpledrive/internal/storage"
	"simpledrive/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	blobs, err := newBlobStorage(cfg, database)
	if err != nil {
		log.Fatalf("init storage backend: %v", err)
	}

	st := store.New(database)
	svc := service.New(st, blobs, cfg.StorageBackend, cfg.MaxUploadBytes, log.Default())

	authn, err := auth.NewAuthenticator(cfg.AuthToken)
	if err != nil {
		log.Fatalf("init auth: %v", err)
	}

	api := httpapi.New(cfg, svc, authn)
	echoServer := api.NewEcho()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      echoServer,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Printf("listening on %s (backend: %s)", cfg.ListenAddr, cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
		os.Exit(1)
	}
}

// newBlobStorage constructs the backend named by STORAGE_BACKEND. The choice
// is made once here; everything downstream sees only storage.BlobStorage.
func newBlobStorage(cfg config.Config, database *sql.DB) (storage.BlobStorage, error) {
	switch cfg.StorageBackend {
	case config.BackendLocal:
		return storage.NewLocalStore(cfg.LocalStorageDir)
	case config.BackendDB:
		return storage.NewDBStore(database), nil
	case config.BackendS3:
		return storage.NewS3Store(storage.S3Options{
			Endpoint: cfg.S3Endpoint,
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Credentials: sigv4.Credentials{
				AccessKey:    cfg.S3AccessKey,
				SecretKey:    cfg.S3SecretKey,
				SessionToken: cfg.S3SessionToken,
			},
			Timeout: cfg.S3Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
