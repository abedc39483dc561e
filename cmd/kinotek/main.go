package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/kinotek/kinotek/internal/config"
	"github.com/kinotek/kinotek/internal/database"
	"github.com/kinotek/kinotek/internal/events"
	"github.com/kinotek/kinotek/internal/logger"
	"github.com/kinotek/kinotek/internal/modules/catalogmodule"
	"github.com/kinotek/kinotek/internal/modules/imagemodule"
	"github.com/kinotek/kinotek/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("KINOTEK_CONFIG"), "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "kinotek: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New("kinotek", logger.Options{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.JSON,
	})
	log.Info("starting kinotek",
		"data_dir", cfg.Storage.DataDir,
		"database", cfg.Database.Type)

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	bus := events.NewBus(log.Named("events"))

	cache := imagemodule.NewCache(cfg.Cache.MaxEntries, cfg.Cache.MaxBytes)
	images, err := imagemodule.NewStore(cfg.ImagePath(), cfg.Storage.BundledDir, cache, bus, log.Named("images"))
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	watcher, err := imagemodule.NewWatcher(cfg.ImagePath(), cache, log.Named("watcher"))
	if err != nil {
		log.Warn("image directory watcher unavailable", "error", err)
	} else {
		watcher.Start()
		defer watcher.Close()
	}

	movies := catalogmodule.NewMovieRepository(db, log.Named("movies"))
	actors := catalogmodule.NewActorRepository(db, log.Named("actors"))
	genres := catalogmodule.NewGenreRepository(db, log.Named("genres"))

	catalog := catalogmodule.NewCatalogService(movies, actors, genres, images, bus, log.Named("catalog"))
	search := catalogmodule.NewSearchIndex(movies, actors, genres)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedIfNeeded(ctx, cfg, catalog, images, bus, log); err != nil {
		return err
	}

	catalog.Refresh(ctx)

	srv := server.New(cfg, server.Deps{
		Catalog: catalog,
		Search:  search,
		Images:  images,
		Logger:  log.Named("server"),
	})

	if err := srv.Run(ctx); err != nil {
		if catalogmodule.IsFatal(err) {
			log.Error("fatal persistence failure", "error", err)
		}
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// seedIfNeeded runs the bundled catalog seed exactly once per install,
// tracked by a marker file in the data directory.
func seedIfNeeded(ctx context.Context, cfg *config.Config, catalog *catalogmodule.CatalogService, images *imagemodule.Store, bus events.EventBus, log hclog.Logger) error {
	marker := cfg.SeedMarkerPath()
	if _, err := os.Stat(marker); err == nil {
		log.Debug("seed marker present, skipping seed")
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check seed marker: %w", err)
	}

	log.Info("first start, seeding bundled catalog")
	loader := catalogmodule.NewSeedLoader(catalog, images, bus, log.Named("seed"))
	if err := loader.Run(ctx); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	if err := os.WriteFile(marker, []byte("v1\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write seed marker: %w", err)
	}
	return nil
}
