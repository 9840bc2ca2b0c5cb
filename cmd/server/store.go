package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/circle/backend/internal/handlers"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/internal/repositories/memory"
	"github.com/anonto42/circle/backend/pkg/config"
)

// store bundles the repositories of the selected backend with its health
// checks and shutdown hook.
type store struct {
	users  repositories.UserRepository
	posts  repositories.PostRepository
	notes  repositories.NoteRepository
	checks map[string]handlers.Pinger
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logrus.Warn("using in-memory store, data is lost on restart")
		return &store{
			users:  memory.NewUserRepository(),
			posts:  memory.NewPostRepository(),
			notes:  memory.NewNoteRepository(),
			checks: map[string]handlers.Pinger{},
			close:  func() {},
		}, nil
	case config.StoreMongo:
		return openDatabaseStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openDatabaseStore(ctx context.Context, cfg *config.Config) (*store, error) {
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	users := repositories.NewMongoUserRepository(db.Database, cfg.StoreTimeout)
	posts := repositories.NewMongoPostRepository(db.Database, cfg.StoreTimeout)
	notes := repositories.NewPostgresNoteRepository(db.Postgres, cfg.StoreTimeout)

	if err := users.EnsureIndexes(ctx); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to create user indexes: %w", err)
	}
	if err := posts.EnsureIndexes(ctx); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to create post indexes: %w", err)
	}
	if err := notes.Migrate(ctx); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to migrate notes: %w", err)
	}

	return &store{
		users: users,
		posts: posts,
		notes: notes,
		checks: map[string]handlers.Pinger{
			"mongo":    handlers.PingFunc(db.PingMongo),
			"postgres": handlers.PingFunc(db.PingPostgres),
		},
		close: db.CloseDB,
	}, nil
}
