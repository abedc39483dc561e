// Package catalogmodule holds the durable repositories, the query and
// search engine, the working-set catalog service, and the one-time seed
// loader for the movie/actor/genre catalog.
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

// MovieRepository owns the movies table exclusively. Every operation is
// serialized against the instance so concurrent callers observe
// sequential, non-interleaved execution; serialization is per
// repository, not global.
type MovieRepository struct {
	db     *gorm.DB
	logger hclog.Logger
	mu     sync.Mutex
}

// NewMovieRepository creates a movie repository
func NewMovieRepository(db *gorm.DB, logger hclog.Logger) *MovieRepository {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &MovieRepository{db: db, logger: logger}
}

// FetchAll returns every movie ordered by title ascending, id ascending.
// Read failures are logged and degrade to an empty list.
func (r *MovieRepository) FetchAll(ctx context.Context) []*database.Movie {
	return r.Fetch(ctx, MovieFilter{})
}

// Fetch returns movies matching the filter, same ordering as FetchAll.
// Scalar criteria run in the store query; genre/actor membership is an
// in-memory pass over the already-filtered result, so a membership
// filter always intersects and never widens the result.
func (r *MovieRepository) Fetch(ctx context.Context, filter MovieFilter) []*database.Movie {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := r.db.WithContext(ctx).
		Preload("Actors").
		Preload("Genres").
		Order("LOWER(title) ASC, id ASC")

	if filter.Name != "" {
		query = query.Where("LOWER(title) LIKE ?", containsPattern(filter.Name))
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern)
	}
	if filter.Favorite != nil {
		query = query.Where("favorite = ?", *filter.Favorite)
	}
	if filter.Rating != nil {
		query = query.Where("rating = ?", *filter.Rating)
	}
	if filter.ReleaseYear != nil {
		query = query.Where("release_year = ?", *filter.ReleaseYear)
	}

	var movies []*database.Movie
	if err := query.Find(&movies).Error; err != nil {
		r.logger.Error("movie fetch failed, returning empty result", "error", err)
		return []*database.Movie{}
	}

	movies = filterMoviesByGenres(movies, filter.GenreIDs)
	movies = filterMoviesByActors(movies, filter.ActorIDs)
	return movies
}

// Get returns the movie with the given id or ErrNotFound
func (r *MovieRepository) Get(ctx context.Context, id string) (*database.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx, id)
}

func (r *MovieRepository) get(ctx context.Context, id string) (*database.Movie, error) {
	var movie database.Movie
	err := r.db.WithContext(ctx).
		Preload("Actors").
		Preload("Genres").
		First(&movie, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load movie %s: %w", id, err)
	}
	return &movie, nil
}

// Add inserts the movie and its relationship edges, committing
// immediately. The repository has no dedup contract; name-level
// deduplication lives in the catalog service.
func (r *MovieRepository) Add(ctx context.Context, movie *database.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if movie.ID == "" {
		movie.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		return fatal("movie insert", err)
	}
	return nil
}

// MovieUpdate is a partial field set for Update. Nil scalar pointers
// leave the prior value in place. A nil or empty relationship slice
// means "no relationship change"; use ClearActors or ClearGenres to
// empty a relationship on purpose.
type MovieUpdate struct {
	Title       *string
	Summary     *string
	PosterRef   *string
	Rating      *int
	ReleaseYear *int
	Favorite    *bool
	Actors      []*database.Actor
	Genres      []*database.Genre
}

// Update applies the partial field set and commits immediately,
// returning the refreshed movie
func (r *MovieRepository) Update(ctx context.Context, id string, upd MovieUpdate) (*database.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Summary != nil {
		fields["summary"] = *upd.Summary
	}
	if upd.PosterRef != nil {
		fields["poster_ref"] = *upd.PosterRef
	}
	if upd.Rating != nil {
		fields["rating"] = *upd.Rating
	}
	if upd.ReleaseYear != nil {
		fields["release_year"] = *upd.ReleaseYear
	}
	if upd.Favorite != nil {
		fields["favorite"] = *upd.Favorite
	}
	if len(fields) > 0 {
		if err := r.db.WithContext(ctx).Model(movie).Updates(fields).Error; err != nil {
			return nil, fatal("movie update", err)
		}
	}

	if len(upd.Actors) > 0 {
		if err := r.db.WithContext(ctx).Model(movie).Association("Actors").Replace(upd.Actors); err != nil {
			return nil, fatal("movie actor relationship update", err)
		}
	}
	if len(upd.Genres) > 0 {
		if err := r.db.WithContext(ctx).Model(movie).Association("Genres").Replace(upd.Genres); err != nil {
			return nil, fatal("movie genre relationship update", err)
		}
	}

	return r.get(ctx, id)
}

// ClearActors empties the movie's actor relationship
func (r *MovieRepository) ClearActors(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(movie).Association("Actors").Clear(); err != nil {
		return fatal("movie actor relationship clear", err)
	}
	return nil
}

// ClearGenres empties the movie's genre relationship
func (r *MovieRepository) ClearGenres(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(movie).Association("Genres").Clear(); err != nil {
		return fatal("movie genre relationship clear", err)
	}
	return nil
}

// Delete removes the movie and detaches it from every actor and genre
// that referenced it. Relationship rows go first so no dangling edge
// survives the entity.
func (r *MovieRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(movie).Association("Actors").Clear(); err != nil {
		return fatal("movie actor detach", err)
	}
	if err := r.db.WithContext(ctx).Model(movie).Association("Genres").Clear(); err != nil {
		return fatal("movie genre detach", err)
	}
	if err := r.db.WithContext(ctx).Delete(&database.Movie{}, "id = ?", id).Error; err != nil {
		return fatal("movie delete", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and commits immediately
func (r *MovieRepository) ToggleFavorite(ctx context.Context, id string) (*database.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := !movie.Favorite
	if err := r.db.WithContext(ctx).Model(movie).Update("favorite", next).Error; err != nil {
		return nil, fatal("movie favorite toggle", err)
	}
	movie.Favorite = next
	return movie, nil
}

// SetRating stores the rating as supplied; the repository does not
// clamp, the 0-5 or 0-10 convention belongs to the caller
func (r *MovieRepository) SetRating(ctx context.Context, id string, rating int) (*database.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(movie).Update("rating", rating).Error; err != nil {
		return nil, fatal("movie rating update", err)
	}
	movie.Rating = rating
	return movie, nil
}
