package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinotek/kinotek/internal/config"
	"github.com/kinotek/kinotek/internal/modules/catalogmodule"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // any free port
	return cfg
}

func TestNewFallsBackToRealLogger(t *testing.T) {
	srv := New(testConfig(), Deps{})
	require.NotNil(t, srv)
	assert.NotNil(t, srv.logger)
	assert.NotEqual(t, "", srv.logger.Name())
}

func TestRunStopsOnReportedFatalFailure(t *testing.T) {
	srv := New(testConfig(), Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	fatalErr := &catalogmodule.FatalError{Op: "movie insert", Err: context.DeadlineExceeded}
	srv.reportFatal(fatalErr)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, catalogmodule.IsFatal(err), "Run must surface the reported failure")
	case <-time.After(5 * time.Second):
		t.Fatal("server kept running after a fatal store failure")
	}
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	srv := New(testConfig(), Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down on context cancel")
	}
}
