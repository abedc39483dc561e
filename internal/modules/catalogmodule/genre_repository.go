package catalogmodule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/kinotek/kinotek/internal/database"
)

// GenreRepository owns the genres table exclusively, serialized per
// instance. The genre side is the owning collection of the movie_genres
// association: ReplaceMovies rewrites the join rows, which the inverse
// Movie.Genres view picks up on its next fetch.
type GenreRepository struct {
	db     *gorm.DB
	logger hclog.Logger
	mu     sync.Mutex
}

// NewGenreRepository creates a genre repository
func NewGenreRepository(db *gorm.DB, logger hclog.Logger) *GenreRepository {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GenreRepository{db: db, logger: logger}
}

// FetchAll returns every genre ordered by name ascending, id ascending.
// Read failures are logged and degrade to an empty list.
func (r *GenreRepository) FetchAll(ctx context.Context) []*database.Genre {
	return r.Fetch(ctx, GenreFilter{})
}

// Fetch returns genres matching the filter
func (r *GenreRepository) Fetch(ctx context.Context, filter GenreFilter) []*database.Genre {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := r.db.WithContext(ctx).
		Preload("Movies").
		Order("LOWER(name) ASC, id ASC")

	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", containsPattern(filter.Name))
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern)
	}
	if filter.Favorite != nil {
		query = query.Where("favorite = ?", *filter.Favorite)
	}

	var genres []*database.Genre
	if err := query.Find(&genres).Error; err != nil {
		r.logger.Error("genre fetch failed, returning empty result", "error", err)
		return []*database.Genre{}
	}

	return filterGenresByMovies(genres, filter.MovieIDs)
}

// Get returns the genre with the given id or ErrNotFound
func (r *GenreRepository) Get(ctx context.Context, id string) (*database.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx, id)
}

func (r *GenreRepository) get(ctx context.Context, id string) (*database.Genre, error) {
	var genre database.Genre
	err := r.db.WithContext(ctx).
		Preload("Movies").
		First(&genre, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("genre %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load genre %s: %w", id, err)
	}
	return &genre, nil
}

// Add inserts the genre, committing immediately
func (r *GenreRepository) Add(ctx context.Context, genre *database.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if genre.ID == "" {
		genre.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(genre).Error; err != nil {
		return fatal("genre insert", err)
	}
	return nil
}

// GenreUpdate is a partial field set for Update, same conventions as
// MovieUpdate and ActorUpdate
type GenreUpdate struct {
	Name     *string
	Summary  *string
	Favorite *bool
	Movies   []*database.Movie
}

// Update applies the partial field set and commits immediately
func (r *GenreRepository) Update(ctx context.Context, id string, upd GenreUpdate) (*database.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Summary != nil {
		fields["summary"] = *upd.Summary
	}
	if upd.Favorite != nil {
		fields["favorite"] = *upd.Favorite
	}
	if len(fields) > 0 {
		if err := r.db.WithContext(ctx).Model(genre).Updates(fields).Error; err != nil {
			return nil, fatal("genre update", err)
		}
	}

	if len(upd.Movies) > 0 {
		if err := r.db.WithContext(ctx).Model(genre).Association("Movies").Replace(upd.Movies); err != nil {
			return nil, fatal("genre movie relationship update", err)
		}
	}

	return r.get(ctx, id)
}

// ReplaceMovies rewrites the owning movie collection for the genre,
// updating the inverse Movie.Genres side through the shared join table
func (r *GenreRepository) ReplaceMovies(ctx context.Context, id string, movies []*database.Movie) (*database.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(genre).Association("Movies").Replace(movies); err != nil {
		return nil, fatal("genre movie relationship replace", err)
	}
	return r.get(ctx, id)
}

// ClearMovies empties the genre's movie relationship
func (r *GenreRepository) ClearMovies(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(genre).Association("Movies").Clear(); err != nil {
		return fatal("genre movie relationship clear", err)
	}
	return nil
}

// Delete removes the genre and detaches it from every movie that
// referenced it
func (r *GenreRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(genre).Association("Movies").Clear(); err != nil {
		return fatal("genre movie detach", err)
	}
	if err := r.db.WithContext(ctx).Delete(&database.Genre{}, "id = ?", id).Error; err != nil {
		return fatal("genre delete", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and commits immediately
func (r *GenreRepository) ToggleFavorite(ctx context.Context, id string) (*database.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := !genre.Favorite
	if err := r.db.WithContext(ctx).Model(genre).Update("favorite", next).Error; err != nil {
		return nil, fatal("genre favorite toggle", err)
	}
	genre.Favorite = next
	return genre, nil
}
