package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/services"
)

// NoteHandler handles HTTP requests related to private notes
type NoteHandler struct {
	notes *services.NoteService
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(notes *services.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// RegisterNoteRoutes registers note-related routes
func (h *NoteHandler) RegisterNoteRoutes(g *echo.Group) {
	g.GET("/notes", h.GetNotes)
	g.POST("/notes", h.CreateNote)
	g.PUT("/notes/:id", h.UpdateNote)
	g.DELETE("/notes/:id", h.DeleteNote)
}

// GetNotes lists the caller's notes, pinned first
func (h *NoteHandler) GetNotes(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	notes, err := h.notes.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// CreateNote creates a note owned by the caller
func (h *NoteHandler) CreateNote(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.NoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.notes.Create(c.Request().Context(), userID, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// UpdateNote rewrites one of the caller's notes
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	noteID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req models.NoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.notes.Update(c.Request().Context(), noteID, userID, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// DeleteNote deletes one of the caller's notes
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	noteID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notes.Delete(c.Request().Context(), noteID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
