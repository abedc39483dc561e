package catalogmodule

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/kinotek/kinotek/internal/database"
	"github.com/kinotek/kinotek/internal/events"
	"github.com/kinotek/kinotek/internal/modules/imagemodule"
)

// CatalogService binds the three repositories to an in-memory working
// set mirroring persisted state for the presentation layer. Writes go
// through the repository first, then patch the working set (append on
// add, in-place update, removal on delete). The mirror may transiently
// diverge from the store between two refreshes if another writer hits
// the store; the single-writer assumption holds only within one service
// instance's lifetime, and callers needing guaranteed freshness must
// re-fetch.
type CatalogService struct {
	movies *MovieRepository
	actors *ActorRepository
	genres *GenreRepository
	images *imagemodule.Store
	bus    events.EventBus
	logger hclog.Logger

	mu        sync.RWMutex
	movieList []*database.Movie
	actorList []*database.Actor
	genreList []*database.Genre
}

// NewCatalogService creates a catalog service over the repositories.
// The image store handles owned-asset deletion on entity delete; the
// event bus may be nil.
func NewCatalogService(movies *MovieRepository, actors *ActorRepository, genres *GenreRepository, images *imagemodule.Store, bus events.EventBus, logger hclog.Logger) *CatalogService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CatalogService{
		movies: movies,
		actors: actors,
		genres: genres,
		images: images,
		bus:    bus,
		logger: logger,
	}
}

// Refresh replaces the entire working set from the repositories
func (c *CatalogService) Refresh(ctx context.Context) {
	movieList := c.movies.FetchAll(ctx)
	actorList := c.actors.FetchAll(ctx)
	genreList := c.genres.FetchAll(ctx)

	c.mu.Lock()
	c.movieList = movieList
	c.actorList = actorList
	c.genreList = genreList
	c.mu.Unlock()
}

// Movies returns a snapshot of the movie working set
func (c *CatalogService) Movies() []*database.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*database.Movie, len(c.movieList))
	copy(out, c.movieList)
	return out
}

// Actors returns a snapshot of the actor working set
func (c *CatalogService) Actors() []*database.Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*database.Actor, len(c.actorList))
	copy(out, c.actorList)
	return out
}

// Genres returns a snapshot of the genre working set
func (c *CatalogService) Genres() []*database.Genre {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*database.Genre, len(c.genreList))
	copy(out, c.genreList)
	return out
}

// FetchMovies runs a filtered movie query against the repository
func (c *CatalogService) FetchMovies(ctx context.Context, filter MovieFilter) []*database.Movie {
	return c.movies.Fetch(ctx, filter)
}

// FetchActors runs a filtered actor query against the repository
func (c *CatalogService) FetchActors(ctx context.Context, filter ActorFilter) []*database.Actor {
	return c.actors.Fetch(ctx, filter)
}

// FetchGenres runs a filtered genre query against the repository
func (c *CatalogService) FetchGenres(ctx context.Context, filter GenreFilter) []*database.Genre {
	return c.genres.Fetch(ctx, filter)
}

// GetMovie fetches a movie straight from the repository
func (c *CatalogService) GetMovie(ctx context.Context, id string) (*database.Movie, error) {
	return c.movies.Get(ctx, id)
}

// GetActor fetches an actor straight from the repository
func (c *CatalogService) GetActor(ctx context.Context, id string) (*database.Actor, error) {
	return c.actors.Get(ctx, id)
}

// GetGenre fetches a genre straight from the repository
func (c *CatalogService) GetGenre(ctx context.Context, id string) (*database.Genre, error) {
	return c.genres.Get(ctx, id)
}

// ResolveActors loads the actors for the given ids, failing with the
// repository's ErrNotFound if any id is unknown
func (c *CatalogService) ResolveActors(ctx context.Context, ids []string) ([]*database.Actor, error) {
	actors := make([]*database.Actor, 0, len(ids))
	for _, id := range ids {
		actor, err := c.actors.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	return actors, nil
}

// ResolveGenres loads the genres for the given ids
func (c *CatalogService) ResolveGenres(ctx context.Context, ids []string) ([]*database.Genre, error) {
	genres := make([]*database.Genre, 0, len(ids))
	for _, id := range ids {
		genre, err := c.genres.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// ClearMovieActors empties a movie's actor relationship and patches the
// working set
func (c *CatalogService) ClearMovieActors(ctx context.Context, id string) (*database.Movie, error) {
	if err := c.movies.ClearActors(ctx, id); err != nil {
		return nil, err
	}
	updated, err := c.movies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.patchMovie(updated)
	return updated, nil
}

// ClearMovieGenres empties a movie's genre relationship and patches the
// working set
func (c *CatalogService) ClearMovieGenres(ctx context.Context, id string) (*database.Movie, error) {
	if err := c.movies.ClearGenres(ctx, id); err != nil {
		return nil, err
	}
	updated, err := c.movies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.patchMovie(updated)
	return updated, nil
}

// FindMovieByTitle returns the working-set movie with the exact title
func (c *CatalogService) FindMovieByTitle(title string) *database.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.movieList {
		if m.Title == title {
			return m
		}
	}
	return nil
}

// FindActorByName returns the working-set actor with the exact name
func (c *CatalogService) FindActorByName(name string) *database.Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.actorList {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FindGenreByName returns the working-set genre with the exact name
func (c *CatalogService) FindGenreByName(name string) *database.Genre {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.genreList {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// AddMovie persists the movie unless one with the same title is already
// in the working set, in which case the add is a silent no-op and the
// existing movie is returned. The dedup lives here, not in the
// repository.
func (c *CatalogService) AddMovie(ctx context.Context, movie *database.Movie) (*database.Movie, error) {
	if existing := c.FindMovieByTitle(movie.Title); existing != nil {
		return existing, nil
	}
	if err := c.movies.Add(ctx, movie); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.movieList = append(c.movieList, movie)
	c.mu.Unlock()

	c.publish(events.EventMovieCreated, "movie created", movie.ID, movie.Title)
	return movie, nil
}

// UpdateMovie applies a partial update and patches the working set
func (c *CatalogService) UpdateMovie(ctx context.Context, id string, upd MovieUpdate) (*database.Movie, error) {
	updated, err := c.movies.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, m := range c.movieList {
		if m.ID == id {
			c.movieList[i] = updated
			break
		}
	}
	c.mu.Unlock()

	c.publish(events.EventMovieUpdated, "movie updated", updated.ID, updated.Title)
	return updated, nil
}

// DeleteMovie removes the movie, its relationship edges, and its owned
// poster asset, then patches the working set
func (c *CatalogService) DeleteMovie(ctx context.Context, id string) error {
	movie, err := c.movies.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.movies.Delete(ctx, id); err != nil {
		return err
	}
	if movie.PosterRef != "" {
		if err := c.images.Delete(ctx, movie.PosterRef); err != nil {
			c.logger.Warn("failed to delete movie poster", "movie", id, "reference", movie.PosterRef, "error", err)
		}
	}

	c.mu.Lock()
	c.movieList = removeMovie(c.movieList, id)
	for _, a := range c.actorList {
		a.Movies = removeMovie(a.Movies, id)
	}
	for _, g := range c.genreList {
		g.Movies = removeMovie(g.Movies, id)
	}
	c.mu.Unlock()

	c.publish(events.EventEntityDeleted, "movie deleted", id, movie.Title)
	return nil
}

// ToggleMovieFavorite flips the flag and patches the working set
func (c *CatalogService) ToggleMovieFavorite(ctx context.Context, id string) (*database.Movie, error) {
	updated, err := c.movies.ToggleFavorite(ctx, id)
	if err != nil {
		return nil, err
	}
	c.patchMovie(updated)
	return updated, nil
}

// RateMovie sets the rating and patches the working set
func (c *CatalogService) RateMovie(ctx context.Context, id string, rating int) (*database.Movie, error) {
	updated, err := c.movies.SetRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}
	c.patchMovie(updated)
	return updated, nil
}

// AddActor persists the actor unless one with the same name is already
// in the working set (silent no-op, existing returned)
func (c *CatalogService) AddActor(ctx context.Context, actor *database.Actor) (*database.Actor, error) {
	if existing := c.FindActorByName(actor.Name); existing != nil {
		return existing, nil
	}
	if err := c.actors.Add(ctx, actor); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.actorList = append(c.actorList, actor)
	c.mu.Unlock()

	c.publish(events.EventActorCreated, "actor created", actor.ID, actor.Name)
	return actor, nil
}

// UpdateActor applies a partial update and patches the working set
func (c *CatalogService) UpdateActor(ctx context.Context, id string, upd ActorUpdate) (*database.Actor, error) {
	updated, err := c.actors.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, a := range c.actorList {
		if a.ID == id {
			c.actorList[i] = updated
			break
		}
	}
	c.mu.Unlock()

	c.publish(events.EventActorUpdated, "actor updated", updated.ID, updated.Name)
	return updated, nil
}

// DeleteActor removes the actor, its relationship edges, and its owned
// photo asset, then patches the working set
func (c *CatalogService) DeleteActor(ctx context.Context, id string) error {
	actor, err := c.actors.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.actors.Delete(ctx, id); err != nil {
		return err
	}
	if actor.PhotoRef != "" {
		if err := c.images.Delete(ctx, actor.PhotoRef); err != nil {
			c.logger.Warn("failed to delete actor photo", "actor", id, "reference", actor.PhotoRef, "error", err)
		}
	}

	c.mu.Lock()
	c.actorList = removeActor(c.actorList, id)
	for _, m := range c.movieList {
		m.Actors = removeActor(m.Actors, id)
	}
	c.mu.Unlock()

	c.publish(events.EventEntityDeleted, "actor deleted", id, actor.Name)
	return nil
}

// ToggleActorFavorite flips the flag and patches the working set
func (c *CatalogService) ToggleActorFavorite(ctx context.Context, id string) (*database.Actor, error) {
	updated, err := c.actors.ToggleFavorite(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, a := range c.actorList {
		if a.ID == updated.ID {
			c.actorList[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return updated, nil
}

// AddGenre persists the genre unless one with the same name is already
// in the working set (silent no-op, existing returned)
func (c *CatalogService) AddGenre(ctx context.Context, genre *database.Genre) (*database.Genre, error) {
	if existing := c.FindGenreByName(genre.Name); existing != nil {
		return existing, nil
	}
	if err := c.genres.Add(ctx, genre); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.genreList = append(c.genreList, genre)
	c.mu.Unlock()

	c.publish(events.EventGenreCreated, "genre created", genre.ID, genre.Name)
	return genre, nil
}

// UpdateGenre applies a partial update and patches the working set
func (c *CatalogService) UpdateGenre(ctx context.Context, id string, upd GenreUpdate) (*database.Genre, error) {
	updated, err := c.genres.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, g := range c.genreList {
		if g.ID == id {
			c.genreList[i] = updated
			break
		}
	}
	c.mu.Unlock()

	c.publish(events.EventGenreUpdated, "genre updated", updated.ID, updated.Name)
	return updated, nil
}

// AssignGenreMovies rewrites the owning movie collection of a genre and
// refreshes both affected working sets so the inverse side is mirrored
func (c *CatalogService) AssignGenreMovies(ctx context.Context, genreID string, movieIDs []string) (*database.Genre, error) {
	movies := make([]*database.Movie, 0, len(movieIDs))
	for _, movieID := range movieIDs {
		movie, err := c.movies.Get(ctx, movieID)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}

	updated, err := c.genres.ReplaceMovies(ctx, genreID, movies)
	if err != nil {
		return nil, err
	}

	// The inverse Movie.Genres side changed for an unknown set of
	// movies; a wholesale refresh is simpler than diffing.
	movieList := c.movies.FetchAll(ctx)
	c.mu.Lock()
	c.movieList = movieList
	for i, g := range c.genreList {
		if g.ID == genreID {
			c.genreList[i] = updated
			break
		}
	}
	c.mu.Unlock()

	c.publish(events.EventGenreUpdated, "genre movies assigned", updated.ID, updated.Name)
	return updated, nil
}

// DeleteGenre removes the genre and its relationship edges, then
// patches the working set
func (c *CatalogService) DeleteGenre(ctx context.Context, id string) error {
	genre, err := c.genres.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.genres.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	c.genreList = removeGenre(c.genreList, id)
	for _, m := range c.movieList {
		m.Genres = removeGenre(m.Genres, id)
	}
	c.mu.Unlock()

	c.publish(events.EventEntityDeleted, "genre deleted", id, genre.Name)
	return nil
}

// ToggleGenreFavorite flips the flag and patches the working set
func (c *CatalogService) ToggleGenreFavorite(ctx context.Context, id string) (*database.Genre, error) {
	updated, err := c.genres.ToggleFavorite(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, g := range c.genreList {
		if g.ID == updated.ID {
			c.genreList[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return updated, nil
}

func (c *CatalogService) patchMovie(updated *database.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.movieList {
		if m.ID == updated.ID {
			c.movieList[i] = updated
			return
		}
	}
}

func (c *CatalogService) publish(eventType events.EventType, message, id, name string) {
	if c.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "catalog", message)
	event.Data["id"] = id
	event.Data["name"] = name
	c.bus.PublishAsync(event)
}

func removeMovie(movies []*database.Movie, id string) []*database.Movie {
	kept := movies[:0]
	for _, m := range movies {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	return kept
}

func removeActor(actors []*database.Actor, id string) []*database.Actor {
	kept := actors[:0]
	for _, a := range actors {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return kept
}

func removeGenre(genres []*database.Genre, id string) []*database.Genre {
	kept := genres[:0]
	for _, g := range genres {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	return kept
}
