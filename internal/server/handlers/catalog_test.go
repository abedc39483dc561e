package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kinotek/kinotek/internal/database"
	"github.com/kinotek/kinotek/internal/modules/catalogmodule"
	"github.com/kinotek/kinotek/internal/modules/imagemodule"
)

func newTestCatalog(t *testing.T) (*catalogmodule.CatalogService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := hclog.NewNullLogger()
	dir := t.TempDir()
	images, err := imagemodule.NewStore(
		filepath.Join(dir, "images"),
		filepath.Join(dir, "bundled"),
		imagemodule.NewCache(0, 0),
		nil,
		log,
	)
	require.NoError(t, err)

	svc := catalogmodule.NewCatalogService(
		catalogmodule.NewMovieRepository(db, log),
		catalogmodule.NewActorRepository(db, log),
		catalogmodule.NewGenreRepository(db, log),
		images, nil, log,
	)
	return svc, db
}

func TestCreateMovieCommitFailureEscalatesAsFatal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, db := newTestCatalog(t)

	// With the table gone every insert fails at commit time
	require.NoError(t, db.Migrator().DropTable(&database.Movie{}))

	var reported error
	h := NewCatalogHandler(svc, nil, func(err error) { reported = err })

	router := gin.New()
	router.POST("/movies", h.CreateMovie)

	req := httptest.NewRequest(http.MethodPost, "/movies", strings.NewReader(`{"title":"Metropolis"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Error(t, reported, "commit failure must be escalated to the fatal hook")
	assert.True(t, catalogmodule.IsFatal(reported))
}

func TestGetMovieUnknownIDIsNotFoundNotFatal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestCatalog(t)

	var reported error
	h := NewCatalogHandler(svc, nil, func(err error) { reported = err })

	router := gin.New()
	router.GET("/movies/:id", h.GetMovie)

	req := httptest.NewRequest(http.MethodGet, "/movies/no-such-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, reported, "a missing id is a caller error, never fatal")
}
