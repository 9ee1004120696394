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
	"github.com/amandeep2102/photoedit/backend/editor"
	"github.com/amandeep2102/photoedit/backend/library"
	"github.com/amandeep2102/photoedit/backend/worker"
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

	if err := run(ctx, conf); err != nil {
		slog.Error("editor service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conf *config.Config) error {
	dir, err := library.NewDir(conf.LibraryDir)
	if err != nil {
		return err
	}

	var lib worker.Library = dir
	if conf.DatabaseDSN != "" {
		db, err := library.OpenDB(ctx, conf.DatabaseDSN, conf.DatabaseRetries)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := library.Migrate(ctx, db); err != nil {
			return err
		}
		lib = library.NewCatalog(db, dir)
		slog.Info("Asset catalogue enabled")
	}

	pool := worker.NewPool(conf.SaveWorkers, lib)
	pool.Start()
	defer pool.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := newRouter(editor.NewSession(pool), pool, routerOptions{
		MaxUploadBytes: conf.MaxUploadBytes(),
		PreviewSize:    conf.PreviewSize,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(conf.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Editor service listening", "addr", srv.Addr, "library", dir.Root())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
