package catalogmodule

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinotek/kinotek/internal/database"
	"github.com/kinotek/kinotek/internal/modules/imagemodule"
)

func testImageStore(t *testing.T) *imagemodule.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := imagemodule.NewStore(
		filepath.Join(dir, "images"),
		filepath.Join(dir, "bundled"),
		imagemodule.NewCache(imagemodule.DefaultMaxEntries, imagemodule.DefaultMaxBytes),
		nil,
		hclog.NewNullLogger(),
	)
	require.NoError(t, err)
	return store
}

func testService(t *testing.T) (*CatalogService, *imagemodule.Store) {
	t.Helper()
	movies, actors, genres := testRepos(t)
	images := testImageStore(t)
	svc := NewCatalogService(movies, actors, genres, images, nil, hclog.NewNullLogger())
	svc.Refresh(context.Background())
	return svc, images
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestServiceAddMovieDeduplicatesByTitle(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	first, err := svc.AddMovie(ctx, database.NewMovie("Metropolis", "", "", 0, 1927))
	require.NoError(t, err)

	second, err := svc.AddMovie(ctx, database.NewMovie("Metropolis", "different summary", "", 0, 1927))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same title must return the existing record")
	assert.Len(t, svc.Movies(), 1)
}

func TestServiceWorkingSetTracksWrites(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	movie, err := svc.AddMovie(ctx, database.NewMovie("Sunrise", "", "", 0, 1927))
	require.NoError(t, err)
	assert.NotNil(t, svc.FindMovieByTitle("Sunrise"))

	_, err = svc.UpdateMovie(ctx, movie.ID, MovieUpdate{Title: strPtr("Sunrise: A Song of Two Humans")})
	require.NoError(t, err)
	assert.Nil(t, svc.FindMovieByTitle("Sunrise"))
	assert.NotNil(t, svc.FindMovieByTitle("Sunrise: A Song of Two Humans"))

	require.NoError(t, svc.DeleteMovie(ctx, movie.ID))
	assert.Empty(t, svc.Movies())
}

func TestServiceDeleteMovieDetachesFromWorkingSetInverse(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	actor, err := svc.AddActor(ctx, database.NewActor("Charlie Chaplin", "", ""))
	require.NoError(t, err)

	movie := database.NewMovie("The Gold Rush", "", "", 0, 1925)
	movie.Actors = []*database.Actor{actor}
	movie, err = svc.AddMovie(ctx, movie)
	require.NoError(t, err)

	svc.Refresh(ctx)
	require.NoError(t, svc.DeleteMovie(ctx, movie.ID))

	got := svc.FindActorByName("Charlie Chaplin")
	require.NotNil(t, got)
	assert.False(t, got.HasMovie(movie.ID))
}

func TestServiceDeleteMovieRemovesOwnedPoster(t *testing.T) {
	svc, images := testService(t)
	ctx := context.Background()

	ref, err := images.Save(ctx, testPNG(t, 160, 100))
	require.NoError(t, err)
	path := filepath.Join(images.ImageDir(), ref)
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	movie, err := svc.AddMovie(ctx, database.NewMovie("Nosferatu", "", ref, 0, 1922))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMovie(ctx, movie.ID))

	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "owned poster must be deleted with the movie")
}

func TestServiceDeleteActorKeepsMovie(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	actor, err := svc.AddActor(ctx, database.NewActor("Buster Keaton", "", ""))
	require.NoError(t, err)

	movie := database.NewMovie("The General", "", "", 0, 1926)
	movie.Actors = []*database.Actor{actor}
	movie, err = svc.AddMovie(ctx, movie)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteActor(ctx, actor.ID))

	got, err := svc.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Actors)
}

func TestServiceAssignGenreMoviesMirrorsInverseSide(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	genre, err := svc.AddGenre(ctx, database.NewGenre("Drama", ""))
	require.NoError(t, err)
	movie, err := svc.AddMovie(ctx, database.NewMovie("Sunrise", "", "", 0, 1927))
	require.NoError(t, err)

	updated, err := svc.AssignGenreMovies(ctx, genre.ID, []string{movie.ID})
	require.NoError(t, err)
	assert.True(t, updated.HasMovie(movie.ID))

	got := svc.FindMovieByTitle("Sunrise")
	require.NotNil(t, got)
	assert.True(t, got.HasGenre(genre.ID))
}

func TestServiceResolveActorsUnknownID(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.ResolveActors(context.Background(), []string{"missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceClearMovieGenres(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	genre, err := svc.AddGenre(ctx, database.NewGenre("Comedy", ""))
	require.NoError(t, err)
	movie := database.NewMovie("Modern Times", "", "", 0, 1936)
	movie.Genres = []*database.Genre{genre}
	movie, err = svc.AddMovie(ctx, movie)
	require.NoError(t, err)

	cleared, err := svc.ClearMovieGenres(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Genres)

	gotGenre, err := svc.GetGenre(ctx, genre.ID)
	require.NoError(t, err)
	assert.False(t, gotGenre.HasMovie(movie.ID))
}
