package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// NoteService owns private notes. A note is only ever visible to its owner.
type NoteService struct {
	notes repositories.NoteRepository
	now   func() time.Time
}

func NewNoteService(notes repositories.NoteRepository) *NoteService {
	return &NoteService{notes: notes, now: time.Now}
}

// List returns the owner's notes, pinned first and then newest first.
func (s *NoteService) List(ctx context.Context, ownerID primitive.ObjectID) ([]models.Note, error) {
	return s.notes.GetNotesByUser(ctx, ownerID.Hex())
}

// Create stores a new note. Tags default to empty and IsPinned to false.
func (s *NoteService) Create(ctx context.Context, ownerID primitive.ObjectID, in models.NoteInput) (*models.Note, error) {
	if err := validateNote(in); err != nil {
		return nil, err
	}

	now := s.now()
	note := &models.Note{
		ID:        uuid.New(),
		UserID:    ownerID.Hex(),
		Title:     in.Title,
		Content:   in.Content,
		Tags:      normalizeTags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.IsPinned != nil {
		note.IsPinned = *in.IsPinned
	}

	if err := s.notes.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Update rewrites a note owned by actorID. An omitted IsPinned keeps the
// stored value while omitted tags reset to empty.
func (s *NoteService) Update(ctx context.Context, noteID uuid.UUID, actorID primitive.ObjectID, in models.NoteInput) (*models.Note, error) {
	note, err := s.owned(ctx, noteID, actorID)
	if err != nil {
		return nil, err
	}
	if err := validateNote(in); err != nil {
		return nil, err
	}

	note.Title = in.Title
	note.Content = in.Content
	note.Tags = normalizeTags(in.Tags)
	if in.IsPinned != nil {
		note.IsPinned = *in.IsPinned
	}
	note.UpdatedAt = s.now()

	if err := s.notes.UpdateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note owned by actorID.
func (s *NoteService) Delete(ctx context.Context, noteID uuid.UUID, actorID primitive.ObjectID) error {
	if _, err := s.owned(ctx, noteID, actorID); err != nil {
		return err
	}
	return s.notes.DeleteNote(ctx, noteID)
}

func (s *NoteService) owned(ctx context.Context, noteID uuid.UUID, actorID primitive.ObjectID) (*models.Note, error) {
	note, err := s.notes.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != actorID.Hex() {
		return nil, apperror.ErrNotAuthorized
	}
	return note, nil
}

func validateNote(in models.NoteInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return apperror.ErrInvalidInput
	}
	if utf8.RuneCountInString(in.Title) > models.MaxNoteTitleLength ||
		utf8.RuneCountInString(in.Content) > models.MaxNoteContentLength {
		return apperror.New(apperror.ValidationFailed, "title or content is too long")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
