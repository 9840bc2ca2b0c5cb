package repositories

import (
	"context"
	"time"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteRepository defines the interface for note data operations
type NoteRepository interface {
	CreateNote(ctx context.Context, note *models.Note) error
	GetNoteByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	// GetNotesByUser lists a user's notes pinned first, then newest first.
	GetNotesByUser(ctx context.Context, userID string) ([]models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id uuid.UUID) error
}

// PostgresNoteRepository implements NoteRepository for PostgreSQL
type PostgresNoteRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository
func NewPostgresNoteRepository(db *gorm.DB, timeout time.Duration) *PostgresNoteRepository {
	return &PostgresNoteRepository{db: db, timeout: timeout}
}

// Migrate creates or updates the notes table
func (r *PostgresNoteRepository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return translate(r.db.WithContext(ctx).AutoMigrate(&models.Note{}), apperror.ErrNoteNotFound)
}

// CreateNote creates a new note in PostgreSQL
func (r *PostgresNoteRepository) CreateNote(ctx context.Context, note *models.Note) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(note).Error, apperror.ErrNoteNotFound)
}

// GetNoteByID retrieves a note by ID from PostgreSQL
func (r *PostgresNoteRepository) GetNoteByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var note models.Note
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, translate(err, apperror.ErrNoteNotFound)
	}
	return &note, nil
}

// GetNotesByUser retrieves all notes owned by userID
func (r *PostgresNoteRepository) GetNotesByUser(ctx context.Context, userID string) ([]models.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	notes := []models.Note{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_pinned DESC").
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, translate(err, apperror.ErrNoteNotFound)
	}
	return notes, nil
}

// UpdateNote writes the editable fields of note, including zero values
func (r *PostgresNoteRepository) UpdateNote(ctx context.Context, note *models.Note) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(note).
		Select("title", "content", "tags", "is_pinned", "updated_at").
		Updates(note)
	if res.Error != nil {
		return translate(res.Error, apperror.ErrNoteNotFound)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNoteNotFound
	}
	return nil
}

// DeleteNote deletes a note by ID from PostgreSQL
func (r *PostgresNoteRepository) DeleteNote(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.Note{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, apperror.ErrNoteNotFound)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNoteNotFound
	}
	return nil
}
