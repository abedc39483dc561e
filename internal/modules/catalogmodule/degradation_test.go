package catalogmodule

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// failingDB returns a GORM handle whose every query errors out, for
// exercising the read-degradation path without a real store.
func failingDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mock.ExpectQuery(".*").WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(".*").WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(".*").WillReturnError(errors.New("connection reset"))

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestFetchDegradesToEmptyOnReadFailure(t *testing.T) {
	db := failingDB(t)
	ctx := context.Background()
	log := hclog.NewNullLogger()

	movies := NewMovieRepository(db, log).FetchAll(ctx)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)

	actors := NewActorRepository(db, log).FetchAll(ctx)
	assert.NotNil(t, actors)
	assert.Empty(t, actors)

	genres := NewGenreRepository(db, log).FetchAll(ctx)
	assert.NotNil(t, genres)
	assert.Empty(t, genres)
}

func TestGetSurfacesReadErrorWithoutFatalMark(t *testing.T) {
	db := failingDB(t)

	_, err := NewMovieRepository(db, hclog.NewNullLogger()).Get(context.Background(), "some-id")
	require.Error(t, err)
	assert.False(t, IsFatal(err), "read failures must not be marked fatal")
}
