package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/circle/backend/internal/handlers"
	"github.com/anonto42/circle/backend/internal/repositories/memory"
	"github.com/anonto42/circle/backend/pkg/config"
)

func TestRun_ClosesStoreWhenStartupFails(t *testing.T) {
	cfg := &config.Config{
		Host:                    "127.0.0.1",
		Port:                    0,
		Store:                   config.StoreMemory,
		StoreTimeout:            time.Second,
		JWTSecret:               "secret",
		TokenTTL:                time.Hour,
		BcryptCost:              4,
		BodyLimit:               "1M",
		ShutdownGrace:           time.Second,
		FirebaseCredentialsPath: filepath.Join(t.TempDir(), "missing.json"),
	}

	closed := false
	open := func(context.Context, *config.Config) (*store, error) {
		return &store{
			users:  memory.NewUserRepository(),
			posts:  memory.NewPostRepository(),
			notes:  memory.NewNoteRepository(),
			checks: map[string]handlers.Pinger{},
			close:  func() { closed = true },
		}, nil
	}

	err := run(context.Background(), cfg, open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firebase")
	assert.True(t, closed, "store must be closed when startup fails")
}

func TestRun_ReportsStoreOpenFailure(t *testing.T) {
	open := func(context.Context, *config.Config) (*store, error) {
		return nil, errors.New("connection refused")
	}

	err := run(context.Background(), &config.Config{Store: config.StoreMongo}, open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
