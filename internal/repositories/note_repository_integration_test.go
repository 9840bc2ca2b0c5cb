//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
)

// setupNoteRepository starts a PostgreSQL container and migrates the notes table
func setupNoteRepository(t *testing.T) *PostgresNoteRepository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	repo := NewPostgresNoteRepository(db, 5*time.Second)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func newNote(owner, title string, pinned bool, createdAt time.Time) *models.Note {
	return &models.Note{
		UserID:    owner,
		Title:     title,
		Content:   "content of " + title,
		Tags:      []string{},
		IsPinned:  pinned,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestPostgresNoteRepository(t *testing.T) {
	repo := setupNoteRepository(t)
	ctx := context.Background()

	const owner = "507f1f77bcf86cd799439011"
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := newNote(owner, "older pinned", true, now.Add(-time.Hour))
	newer := newNote(owner, "newer", false, now)
	newer.Tags = []string{"b", "a"}
	other := newNote("507f1f77bcf86cd799439012", "someone else's", false, now)

	for _, n := range []*models.Note{newer, older, other} {
		require.NoError(t, repo.CreateNote(ctx, n))
		require.NotEqual(t, uuid.Nil, n.ID)
	}

	t.Run("list is owner scoped and pinned first", func(t *testing.T) {
		notes, err := repo.GetNotesByUser(ctx, owner)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, older.ID, notes[0].ID)
		assert.Equal(t, newer.ID, notes[1].ID)
		assert.Equal(t, []string{"b", "a"}, []string(notes[1].Tags))
	})

	t.Run("update writes zero values", func(t *testing.T) {
		older.IsPinned = false
		older.Tags = []string{}
		older.Title = "unpinned"
		require.NoError(t, repo.UpdateNote(ctx, older))

		got, err := repo.GetNoteByID(ctx, older.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPinned)
		assert.Empty(t, got.Tags)
		assert.Equal(t, "unpinned", got.Title)
	})

	t.Run("missing note", func(t *testing.T) {
		_, err := repo.GetNoteByID(ctx, uuid.New())
		assert.ErrorIs(t, err, apperror.ErrNoteNotFound)

		err = repo.UpdateNote(ctx, &models.Note{ID: uuid.New(), Title: "x", Content: "y"})
		assert.ErrorIs(t, err, apperror.ErrNoteNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteNote(ctx, newer.ID))
		assert.ErrorIs(t, repo.DeleteNote(ctx, newer.ID), apperror.ErrNoteNotFound)
	})
}
