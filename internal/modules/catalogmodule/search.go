package catalogmodule

import (
	"context"
	"sync"

	"github.com/kinotek/kinotek/internal/database"
)

// SearchIndex runs one substring query across all three entity types as
// a single logical search action. There is no relevance scoring and no
// merged ranking: the three result lists come back independently.
type SearchIndex struct {
	movies *MovieRepository
	actors *ActorRepository
	genres *GenreRepository
}

// NewSearchIndex creates a search index over the three repositories
func NewSearchIndex(movies *MovieRepository, actors *ActorRepository, genres *GenreRepository) *SearchIndex {
	return &SearchIndex{movies: movies, actors: actors, genres: genres}
}

// FetchByPartialString matches the term case-insensitively against name
// OR summary of each entity type. An empty term is equivalent to
// FetchAll on each repository. The three queries run concurrently; a
// failing query degrades to an empty list for that type only, matching
// the repositories' graceful-read contract.
func (s *SearchIndex) FetchByPartialString(ctx context.Context, term string) ([]*database.Movie, []*database.Actor, []*database.Genre) {
	var (
		movies []*database.Movie
		actors []*database.Actor
		genres []*database.Genre
		wg     sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		movies = s.movies.Fetch(ctx, MovieFilter{Search: term})
	}()
	go func() {
		defer wg.Done()
		actors = s.actors.Fetch(ctx, ActorFilter{Search: term})
	}()
	go func() {
		defer wg.Done()
		genres = s.genres.Fetch(ctx, GenreFilter{Search: term})
	}()
	wg.Wait()

	return movies, actors, genres
}
