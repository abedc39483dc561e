package catalogmodule

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/kinotek/kinotek/internal/database"
	"github.com/kinotek/kinotek/internal/events"
	"github.com/kinotek/kinotek/internal/modules/imagemodule"
)

//go:embed seeddata/catalog.json
var seedDataset []byte

type seedGenre struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

type seedActor struct {
	Name       string `json:"name"`
	PhotoAsset string `json:"photo_asset"`
	Summary    string `json:"summary"`
}

type seedMovie struct {
	Title       string      `json:"title"`
	PosterAsset string      `json:"poster_asset"`
	Summary     string      `json:"summary"`
	Rating      int         `json:"rating"`
	ReleaseYear int         `json:"release_year"`
	Genres      []seedGenre `json:"genres"`
	Actors      []seedActor `json:"actors"`
}

// SeedLoader populates an empty catalog from the bundled dataset. The
// loader performs no "have I already run" check: idempotency is the
// caller's job via an external one-shot flag, and running it twice will
// duplicate movies whose titles were since renamed. Any dataset decode
// or persistence error aborts the run; entities persisted before the
// failure stay persisted (no rollback).
type SeedLoader struct {
	catalog *CatalogService
	images  *imagemodule.Store
	bus     events.EventBus
	logger  hclog.Logger
}

// NewSeedLoader creates a seed loader
func NewSeedLoader(catalog *CatalogService, images *imagemodule.Store, bus events.EventBus, logger hclog.Logger) *SeedLoader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SeedLoader{catalog: catalog, images: images, bus: bus, logger: logger}
}

// Run imports the bundled dataset. Bundled images are migrated into
// managed storage first so every persisted entity references a
// generated asset; genres and actors are deduplicated by exact name
// (first record wins) through the catalog service; movies are created
// last, after their dependencies exist.
func (l *SeedLoader) Run(ctx context.Context) error {
	var records []seedMovie
	if err := json.Unmarshal(seedDataset, &records); err != nil {
		return fmt.Errorf("failed to decode seed dataset: %w", err)
	}

	names := make([]string, 0, len(records)*2)
	for _, rec := range records {
		if rec.PosterAsset != "" {
			names = append(names, rec.PosterAsset)
		}
		for _, actor := range rec.Actors {
			if actor.PhotoAsset != "" {
				names = append(names, actor.PhotoAsset)
			}
		}
	}
	migrated := l.images.MigrateBundled(ctx, names)
	l.logger.Info("migrated bundled seed images", "requested", len(names), "migrated", len(migrated))

	for _, rec := range records {
		genres := make([]*database.Genre, 0, len(rec.Genres))
		for _, sg := range rec.Genres {
			genre, err := l.catalog.AddGenre(ctx, database.NewGenre(sg.Name, sg.Summary))
			if err != nil {
				return fmt.Errorf("failed to seed genre %q: %w", sg.Name, err)
			}
			genres = append(genres, genre)
		}

		actors := make([]*database.Actor, 0, len(rec.Actors))
		for _, sa := range rec.Actors {
			actor, err := l.catalog.AddActor(ctx, database.NewActor(sa.Name, sa.Summary, migrated[sa.PhotoAsset]))
			if err != nil {
				return fmt.Errorf("failed to seed actor %q: %w", sa.Name, err)
			}
			actors = append(actors, actor)
		}

		movie := database.NewMovie(rec.Title, rec.Summary, migrated[rec.PosterAsset], rec.Rating, rec.ReleaseYear)
		movie.Genres = genres
		movie.Actors = actors
		if _, err := l.catalog.AddMovie(ctx, movie); err != nil {
			return fmt.Errorf("failed to seed movie %q: %w", rec.Title, err)
		}
	}

	if l.bus != nil {
		event := events.NewEvent(events.EventSeedCompleted, "seed", "seed import completed")
		event.Data["movies"] = len(records)
		l.bus.PublishAsync(event)
	}
	l.logger.Info("seed import completed", "movies", len(records))
	return nil
}
