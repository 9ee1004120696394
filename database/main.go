package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/amandeep2102/photoedit/backend/config"
	"github.com/amandeep2102/photoedit/backend/library"
	"github.com/dustin/go-humanize"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s migrate|refresh|list\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "  migrate  create or upgrade the assets table")
	fmt.Fprintln(os.Stderr, "  refresh  drop catalogue rows whose photo file is gone")
	fmt.Fprintln(os.Stderr, "  list     print catalogued photos, newest first")
}

func main() {
	if len(os.Args) != 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if conf.DatabaseDSN == "" {
		slog.Error("DATABASE_DSN is required for catalogue maintenance")
		os.Exit(1)
	}

	db, err := library.OpenDB(ctx, conf.DatabaseDSN, conf.DatabaseRetries)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	dir, err := library.NewDir(conf.LibraryDir)
	if err != nil {
		slog.Error("failed to open library", "error", err)
		os.Exit(1)
	}
	catalog := library.NewCatalog(db, dir)

	switch os.Args[1] {
	case "migrate":
		err = library.Migrate(ctx, db)
	case "refresh":
		var removed int
		removed, err = catalog.Refresh(ctx)
		slog.Info("Catalogue refreshed", "removed", removed)
	case "list":
		err = list(ctx, catalog)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func list(ctx context.Context, catalog *library.Catalog) error {
	assets, err := catalog.List(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, a := range assets {
		fmt.Printf("%s  %5dx%-5d  %8s  %s  %s\n",
			a.ID, a.Width, a.Height, humanize.Bytes(uint64(a.SizeBytes)), humanize.Time(a.CreatedAt), a.Path)
		total += a.SizeBytes
	}
	fmt.Printf("%d photos, %s\n", len(assets), humanize.Bytes(uint64(total)))
	return nil
}
