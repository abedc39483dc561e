package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kinotek/kinotek/internal/database"
	"github.com/kinotek/kinotek/internal/modules/catalogmodule"
)

// CatalogHandler exposes catalog CRUD and search endpoints
type CatalogHandler struct {
	catalog *catalogmodule.CatalogService
	search  *catalogmodule.SearchIndex
	fatal   func(error)
}

// NewCatalogHandler creates a catalog handler. fatal is invoked after
// the response is written whenever a write path reports an
// unrecoverable commit failure; the server uses it to stop serving.
func NewCatalogHandler(catalog *catalogmodule.CatalogService, search *catalogmodule.SearchIndex, fatal func(error)) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, search: search, fatal: fatal}
}

// writeError answers the request, then escalates unrecoverable commit
// failures. Once a durable commit fails the in-memory and durable
// states have split; continuing to serve would hand out inconsistent
// data, so the process must stop rather than degrade.
func (h *CatalogHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, catalogmodule.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	if catalogmodule.IsFatal(err) && h.fatal != nil {
		h.fatal(err)
	}
}

func parseBoolParam(c *gin.Context, name string) *bool {
	if v, ok := c.GetQuery(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return &b
		}
	}
	return nil
}

func parseIntParam(c *gin.Context, name string) *int {
	if v, ok := c.GetQuery(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func parseIDSet(c *gin.Context, name string) []string {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// ListMovies returns movies matching the query-string filter criteria
func (h *CatalogHandler) ListMovies(c *gin.Context) {
	filter := catalogmodule.MovieFilter{
		Name:        c.Query("name"),
		Favorite:    parseBoolParam(c, "favorite"),
		Rating:      parseIntParam(c, "rating"),
		ReleaseYear: parseIntParam(c, "year"),
		GenreIDs:    parseIDSet(c, "genres"),
		ActorIDs:    parseIDSet(c, "actors"),
	}
	movies := h.catalog.FetchMovies(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{"movies": movies, "count": len(movies)})
}

type createMovieRequest struct {
	Title       string   `json:"title" binding:"required"`
	Summary     string   `json:"summary"`
	PosterRef   string   `json:"poster_ref"`
	Rating      int      `json:"rating"`
	ReleaseYear int      `json:"release_year"`
	ActorIDs    []string `json:"actor_ids"`
	GenreIDs    []string `json:"genre_ids"`
}

// CreateMovie adds a movie; an existing movie with the same title makes
// the call a no-op that returns the existing record
func (h *CatalogHandler) CreateMovie(c *gin.Context) {
	var req createMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	actors, err := h.catalog.ResolveActors(ctx, req.ActorIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	genres, err := h.catalog.ResolveGenres(ctx, req.GenreIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}

	movie := database.NewMovie(req.Title, req.Summary, req.PosterRef, req.Rating, req.ReleaseYear)
	movie.Actors = actors
	movie.Genres = genres

	created, err := h.catalog.AddMovie(ctx, movie)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetMovie returns one movie by id
func (h *CatalogHandler) GetMovie(c *gin.Context) {
	movie, err := h.catalog.GetMovie(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

type updateMovieRequest struct {
	Title       *string  `json:"title"`
	Summary     *string  `json:"summary"`
	PosterRef   *string  `json:"poster_ref"`
	Rating      *int     `json:"rating"`
	ReleaseYear *int     `json:"release_year"`
	Favorite    *bool    `json:"favorite"`
	ActorIDs    []string `json:"actor_ids"`
	GenreIDs    []string `json:"genre_ids"`
	ClearActors bool     `json:"clear_actors"`
	ClearGenres bool     `json:"clear_genres"`
}

// UpdateMovie applies a partial update. Omitted fields keep their prior
// values; an omitted or empty id list leaves that relationship
// unchanged, and the explicit clear flags empty it on purpose.
func (h *CatalogHandler) UpdateMovie(c *gin.Context) {
	var req updateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	upd := catalogmodule.MovieUpdate{
		Title:       req.Title,
		Summary:     req.Summary,
		PosterRef:   req.PosterRef,
		Rating:      req.Rating,
		ReleaseYear: req.ReleaseYear,
		Favorite:    req.Favorite,
	}
	if len(req.ActorIDs) > 0 {
		actors, err := h.catalog.ResolveActors(ctx, req.ActorIDs)
		if err != nil {
			h.writeError(c, err)
			return
		}
		upd.Actors = actors
	}
	if len(req.GenreIDs) > 0 {
		genres, err := h.catalog.ResolveGenres(ctx, req.GenreIDs)
		if err != nil {
			h.writeError(c, err)
			return
		}
		upd.Genres = genres
	}

	updated, err := h.catalog.UpdateMovie(ctx, id, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if req.ClearActors {
		if updated, err = h.catalog.ClearMovieActors(ctx, id); err != nil {
			h.writeError(c, err)
			return
		}
	}
	if req.ClearGenres {
		if updated, err = h.catalog.ClearMovieGenres(ctx, id); err != nil {
			h.writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteMovie removes a movie, detaches it everywhere, and deletes its
// owned poster asset
func (h *CatalogHandler) DeleteMovie(c *gin.Context) {
	if err := h.catalog.DeleteMovie(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleMovieFavorite flips the favorite flag
func (h *CatalogHandler) ToggleMovieFavorite(c *gin.Context) {
	updated, err := h.catalog.ToggleMovieFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type rateMovieRequest struct {
	Rating int `json:"rating"`
}

// RateMovie sets the movie rating
func (h *CatalogHandler) RateMovie(c *gin.Context) {
	var req rateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.catalog.RateMovie(c.Request.Context(), c.Param("id"), req.Rating)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListActors returns actors matching the query-string filter criteria
func (h *CatalogHandler) ListActors(c *gin.Context) {
	filter := catalogmodule.ActorFilter{
		Name:     c.Query("name"),
		Favorite: parseBoolParam(c, "favorite"),
		MovieIDs: parseIDSet(c, "movies"),
	}
	actors := h.catalog.FetchActors(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{"actors": actors, "count": len(actors)})
}

type createActorRequest struct {
	Name     string `json:"name" binding:"required"`
	Summary  string `json:"summary"`
	PhotoRef string `json:"photo_ref"`
}

// CreateActor adds an actor with name-level dedup
func (h *CatalogHandler) CreateActor(c *gin.Context) {
	var req createActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.catalog.AddActor(c.Request.Context(), database.NewActor(req.Name, req.Summary, req.PhotoRef))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetActor returns one actor by id
func (h *CatalogHandler) GetActor(c *gin.Context) {
	actor, err := h.catalog.GetActor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, actor)
}

type updateActorRequest struct {
	Name     *string `json:"name"`
	Summary  *string `json:"summary"`
	PhotoRef *string `json:"photo_ref"`
	Favorite *bool   `json:"favorite"`
}

// UpdateActor applies a partial update
func (h *CatalogHandler) UpdateActor(c *gin.Context) {
	var req updateActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.catalog.UpdateActor(c.Request.Context(), c.Param("id"), catalogmodule.ActorUpdate{
		Name:     req.Name,
		Summary:  req.Summary,
		PhotoRef: req.PhotoRef,
		Favorite: req.Favorite,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteActor removes an actor and detaches it from every movie
func (h *CatalogHandler) DeleteActor(c *gin.Context) {
	if err := h.catalog.DeleteActor(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleActorFavorite flips the favorite flag
func (h *CatalogHandler) ToggleActorFavorite(c *gin.Context) {
	updated, err := h.catalog.ToggleActorFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListGenres returns genres matching the query-string filter criteria
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	filter := catalogmodule.GenreFilter{
		Name:     c.Query("name"),
		Favorite: parseBoolParam(c, "favorite"),
		MovieIDs: parseIDSet(c, "movies"),
	}
	genres := h.catalog.FetchGenres(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{"genres": genres, "count": len(genres)})
}

type createGenreRequest struct {
	Name    string `json:"name" binding:"required"`
	Summary string `json:"summary"`
}

// CreateGenre adds a genre with name-level dedup
func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var req createGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.catalog.AddGenre(c.Request.Context(), database.NewGenre(req.Name, req.Summary))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetGenre returns one genre by id
func (h *CatalogHandler) GetGenre(c *gin.Context) {
	genre, err := h.catalog.GetGenre(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, genre)
}

type updateGenreRequest struct {
	Name     *string `json:"name"`
	Summary  *string `json:"summary"`
	Favorite *bool   `json:"favorite"`
}

// UpdateGenre applies a partial update
func (h *CatalogHandler) UpdateGenre(c *gin.Context) {
	var req updateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.catalog.UpdateGenre(c.Request.Context(), c.Param("id"), catalogmodule.GenreUpdate{
		Name:     req.Name,
		Summary:  req.Summary,
		Favorite: req.Favorite,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteGenre removes a genre and detaches it from every movie
func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	if err := h.catalog.DeleteGenre(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleGenreFavorite flips the favorite flag
func (h *CatalogHandler) ToggleGenreFavorite(c *gin.Context) {
	updated, err := h.catalog.ToggleGenreFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type assignGenreMoviesRequest struct {
	MovieIDs []string `json:"movie_ids"`
}

// AssignGenreMovies rewrites the owning movie collection of a genre
func (h *CatalogHandler) AssignGenreMovies(c *gin.Context) {
	var req assignGenreMoviesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.catalog.AssignGenreMovies(c.Request.Context(), c.Param("id"), req.MovieIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Search runs one substring query across all three entity types
func (h *CatalogHandler) Search(c *gin.Context) {
	movies, actors, genres := h.search.FetchByPartialString(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"movies": movies,
		"actors": actors,
		"genres": genres,
	})
}
