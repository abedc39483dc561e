package catalogmodule

import (
	"strings"

	"github.com/kinotek/kinotek/internal/database"
)

// Filters combine with AND semantics across criteria; within a
// relationship id-set the test is membership (OR). Scalar criteria are
// pushed into the store query, relationship criteria are applied as an
// in-memory pass over the query result because they traverse the
// association collections.

// MovieFilter selects movies
type MovieFilter struct {
	// Name is a case-insensitive substring test against the title
	Name string
	// Search is a case-insensitive substring test against title OR summary
	Search string
	Favorite    *bool
	Rating      *int
	ReleaseYear *int
	// GenreIDs keeps movies linked to at least one of these genres
	GenreIDs []string
	// ActorIDs keeps movies linked to at least one of these actors
	ActorIDs []string
}

// ActorFilter selects actors
type ActorFilter struct {
	Name     string
	Search   string
	Favorite *bool
	// MovieIDs keeps actors linked to at least one of these movies
	MovieIDs []string
}

// GenreFilter selects genres
type GenreFilter struct {
	Name     string
	Search   string
	Favorite *bool
	// MovieIDs keeps genres linked to at least one of these movies
	MovieIDs []string
}

// containsPattern builds the LIKE pattern for a case-insensitive
// substring test
func containsPattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

func filterMoviesByGenres(movies []*database.Movie, genreIDs []string) []*database.Movie {
	if len(genreIDs) == 0 {
		return movies
	}
	kept := make([]*database.Movie, 0, len(movies))
	for _, m := range movies {
		for _, id := range genreIDs {
			if m.HasGenre(id) {
				kept = append(kept, m)
				break
			}
		}
	}
	return kept
}

func filterMoviesByActors(movies []*database.Movie, actorIDs []string) []*database.Movie {
	if len(actorIDs) == 0 {
		return movies
	}
	kept := make([]*database.Movie, 0, len(movies))
	for _, m := range movies {
		for _, id := range actorIDs {
			if m.HasActor(id) {
				kept = append(kept, m)
				break
			}
		}
	}
	return kept
}

func filterActorsByMovies(actors []*database.Actor, movieIDs []string) []*database.Actor {
	if len(movieIDs) == 0 {
		return actors
	}
	kept := make([]*database.Actor, 0, len(actors))
	for _, a := range actors {
		for _, id := range movieIDs {
			if a.HasMovie(id) {
				kept = append(kept, a)
				break
			}
		}
	}
	return kept
}

func filterGenresByMovies(genres []*database.Genre, movieIDs []string) []*database.Genre {
	if len(movieIDs) == 0 {
		return genres
	}
	kept := make([]*database.Genre, 0, len(genres))
	for _, g := range genres {
		for _, id := range movieIDs {
			if g.HasMovie(id) {
				kept = append(kept, g)
				break
			}
		}
	}
	return kept
}
