package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/amandeep2102/photoedit/backend/config"
	"github.com/amandeep2102/photoedit/backend/library"
	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.SlogLevel()})))

	if conf.DatabaseDSN == "" {
		slog.Error("DATABASE_DSN is required to browse the photo library")
		os.Exit(1)
	}

	if err := run(ctx, conf); err != nil {
		slog.Error("gallery failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conf *config.Config) error {
	db, err := library.OpenDB(ctx, conf.DatabaseDSN, conf.DatabaseRetries)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := library.Migrate(ctx, db); err != nil {
		return err
	}

	dir, err := library.NewDir(conf.LibraryDir)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(conf.GalleryPort),
		Handler:           newRouter(library.NewCatalog(db, dir)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Gallery listening", "addr", srv.Addr, "library", dir.Root())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
