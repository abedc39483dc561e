// Package server wires the HTTP boundary over the catalog and image
// modules. It only marshals requests to and from the module APIs; all
// catalog semantics live below it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/kinotek/kinotek/internal/config"
	"github.com/kinotek/kinotek/internal/logger"
	"github.com/kinotek/kinotek/internal/modules/catalogmodule"
	"github.com/kinotek/kinotek/internal/modules/imagemodule"
	"github.com/kinotek/kinotek/internal/server/handlers"
)

// Deps collects the services the HTTP layer exposes
type Deps struct {
	Catalog *catalogmodule.CatalogService
	Search  *catalogmodule.SearchIndex
	Images  *imagemodule.Store
	Logger  hclog.Logger
}

// Server wraps the HTTP server lifecycle
type Server struct {
	httpServer *http.Server
	logger     hclog.Logger
	fatalCh    chan error
}

// New builds the router and server
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Default("server")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		logger:  deps.Logger,
		fatalCh: make(chan error, 1),
	}
	registerRoutes(router, deps, s.reportFatal)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// reportFatal records an unrecoverable store failure so Run can stop
// serving. Only the first report matters; later ones are dropped.
func (s *Server) reportFatal(err error) {
	select {
	case s.fatalCh <- err:
	default:
	}
}

func registerRoutes(router *gin.Engine, deps Deps, reportFatal func(error)) {
	catalog := handlers.NewCatalogHandler(deps.Catalog, deps.Search, reportFatal)
	images := handlers.NewImageHandler(deps.Images)
	status := handlers.NewStatusHandler(deps.Images)

	api := router.Group("/api/v1")
	{
		api.GET("/movies", catalog.ListMovies)
		api.POST("/movies", catalog.CreateMovie)
		api.GET("/movies/:id", catalog.GetMovie)
		api.PATCH("/movies/:id", catalog.UpdateMovie)
		api.DELETE("/movies/:id", catalog.DeleteMovie)
		api.POST("/movies/:id/favorite", catalog.ToggleMovieFavorite)
		api.POST("/movies/:id/rating", catalog.RateMovie)

		api.GET("/actors", catalog.ListActors)
		api.POST("/actors", catalog.CreateActor)
		api.GET("/actors/:id", catalog.GetActor)
		api.PATCH("/actors/:id", catalog.UpdateActor)
		api.DELETE("/actors/:id", catalog.DeleteActor)
		api.POST("/actors/:id/favorite", catalog.ToggleActorFavorite)

		api.GET("/genres", catalog.ListGenres)
		api.POST("/genres", catalog.CreateGenre)
		api.GET("/genres/:id", catalog.GetGenre)
		api.PATCH("/genres/:id", catalog.UpdateGenre)
		api.DELETE("/genres/:id", catalog.DeleteGenre)
		api.POST("/genres/:id/favorite", catalog.ToggleGenreFavorite)
		api.PUT("/genres/:id/movies", catalog.AssignGenreMovies)

		api.GET("/search", catalog.Search)

		api.POST("/images", images.Upload)
		api.GET("/images/:ref", images.Serve)
		api.DELETE("/images/:ref", images.Delete)

		api.GET("/status", status.Status)
	}
}

// Run serves until the context is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case err := <-s.fatalCh:
		s.logger.Error("unrecoverable store failure, stopping server", "error", err)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error("shutdown after store failure did not complete", "error", shutdownErr)
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
