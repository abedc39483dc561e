package catalogmodule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinotek/kinotek/internal/database"
)

func TestSearchIndexSpansAllEntityTypes(t *testing.T) {
	movies, actors, genres := testRepos(t)
	ctx := context.Background()

	require.NoError(t, movies.Add(ctx, database.NewMovie("Golden Years", "", "", 0, 1990)))
	require.NoError(t, actors.Add(ctx, database.NewActor("Goldie Hawn", "", "")))
	require.NoError(t, genres.Add(ctx, database.NewGenre("Golden Age", "")))
	require.NoError(t, genres.Add(ctx, database.NewGenre("Horror", "")))

	index := NewSearchIndex(movies, actors, genres)

	gotMovies, gotActors, gotGenres := index.FetchByPartialString(ctx, "gold")
	assert.Len(t, gotMovies, 1)
	assert.Len(t, gotActors, 1)
	assert.Len(t, gotGenres, 1)

	gotMovies, gotActors, gotGenres = index.FetchByPartialString(ctx, "HORROR")
	assert.Empty(t, gotMovies)
	assert.Empty(t, gotActors)
	require.Len(t, gotGenres, 1)
	assert.Equal(t, "Horror", gotGenres[0].Name)
}

func TestSearchIndexMatchesSummaries(t *testing.T) {
	movies, actors, genres := testRepos(t)
	ctx := context.Background()

	require.NoError(t, movies.Add(ctx, database.NewMovie("Untitled", "a heist gone wrong", "", 0, 2005)))

	index := NewSearchIndex(movies, actors, genres)
	gotMovies, _, _ := index.FetchByPartialString(ctx, "heist")
	assert.Len(t, gotMovies, 1)
}
