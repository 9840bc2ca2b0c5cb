package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	MaxNoteTitleLength   = 200
	MaxNoteContentLength = 5000
)

// Note is a private note stored in PostgreSQL. UserID holds the owner's
// ObjectID in hex.
type Note struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string         `json:"user" gorm:"size:24;not null;index"`
	Title     string         `json:"title" gorm:"size:200;not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Tags      pq.StringArray `json:"tags" gorm:"type:text[];not null;default:'{}'"`
	IsPinned  bool           `json:"isPinned" gorm:"not null;default:false;index"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NoteInput carries the writable note fields. A nil IsPinned means the
// caller did not specify it.
type NoteInput struct {
	Title    string
	Content  string
	Tags     []string
	IsPinned *bool
}

// NoteRequest defines the request body for creating or updating a note
type NoteRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required,max=5000"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=30"`
	IsPinned *bool    `json:"isPinned,omitempty"`
}

// ToInput converts the request into the service input.
func (r NoteRequest) ToInput() NoteInput {
	return NoteInput{Title: r.Title, Content: r.Content, Tags: r.Tags, IsPinned: r.IsPinned}
}
