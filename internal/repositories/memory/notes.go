package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/google/uuid"
)

// NoteRepository is an in-memory repositories.NoteRepository.
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*models.Note
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[uuid.UUID]*models.Note)}
}

func (r *NoteRepository) CreateNote(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	r.notes[note.ID] = cloneNote(note)
	return nil
}

func (r *NoteRepository) GetNoteByID(_ context.Context, id uuid.UUID) (*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok {
		return nil, apperror.ErrNoteNotFound
	}
	return cloneNote(n), nil
}

func (r *NoteRepository) GetNotesByUser(_ context.Context, userID string) ([]models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := []models.Note{}
	for _, n := range r.notes {
		if n.UserID == userID {
			notes = append(notes, *cloneNote(n))
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].IsPinned != notes[j].IsPinned {
			return notes[i].IsPinned
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (r *NoteRepository) UpdateNote(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[note.ID]
	if !ok {
		return apperror.ErrNoteNotFound
	}
	n.Title = note.Title
	n.Content = note.Content
	n.Tags = slices.Clone(note.Tags)
	n.IsPinned = note.IsPinned
	n.UpdatedAt = time.Now()
	note.UpdatedAt = n.UpdatedAt
	return nil
}

func (r *NoteRepository) DeleteNote(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[id]; !ok {
		return apperror.ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}

func cloneNote(n *models.Note) *models.Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	return &c
}
