package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/moodlog/moodlog-be/internal/auth"
	"github.com/moodlog/moodlog-be/internal/models"
	"github.com/moodlog/moodlog-be/internal/services"
)

// EntryHandler handles HTTP requests for diary entries.
type EntryHandler struct {
	entries services.EntryServiceProvider
	events  services.EventServiceProvider
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entries services.EntryServiceProvider, events services.EventServiceProvider) *EntryHandler {
	return &EntryHandler{entries: entries, events: events}
}

// EntryPayload defines the client-supplied fields of an entry. Mood is a
// pointer so a missing field can be told apart from a zero score.
type EntryPayload struct {
	Mood         *int                `json:"mood"`
	Sleep        int                 `json:"sleep"`
	Irritability int                 `json:"irritability"`
	Medications  []models.Medication `json:"medications"`
	Diet         []models.DietItem   `json:"diet"`
	Exercise     string              `json:"exercise"`
	Notes        string              `json:"notes"`
}

func (p *EntryPayload) input() services.EntryInput {
	return services.EntryInput{
		Mood:         *p.Mood,
		Sleep:        p.Sleep,
		Irritability: p.Irritability,
		Medications:  p.Medications,
		Diet:         p.Diet,
		Exercise:     p.Exercise,
		Notes:        p.Notes,
	}
}

func decodeEntryPayload(w http.ResponseWriter, r *http.Request) (*EntryPayload, bool) {
	var payload EntryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if payload.Mood == nil {
		writeMessage(w, http.StatusBadRequest, "Missing required field: mood")
		return nil, false
	}
	return &payload, true
}

// Create stores a new entry for the authenticated user. The server stamps the
// id, date and time; client-supplied values for those are ignored.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}

	payload, ok := decodeEntryPayload(w, r)
	if !ok {
		return
	}

	id, err := h.entries.Create(r.Context(), identity, payload.input())
	if err != nil {
		log.Error().Err(err).Str("username", identity).Msg("Failed to insert entry")
		writeMessage(w, http.StatusInternalServerError, "Failed to insert entry to database")
		return
	}

	h.events.Record(r.Context(), "entry.create", "info", fmt.Sprintf("Entry %d added", id), &identity)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Entry added successfully",
		"id":      id,
	})
}

// GetLatest returns the most recently created entry of the authenticated user
// as a list of zero or one entries.
func (h *EntryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}

	entries, err := h.entries.GetLatest(r.Context(), identity)
	if err != nil {
		log.Error().Err(err).Str("username", identity).Msg("Failed to fetch latest entry")
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch latest entry")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// DeleteLatest removes the most recently created entry of the authenticated
// user.
func (h *EntryHandler) DeleteLatest(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}

	err := h.entries.DeleteLatest(r.Context(), identity)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "No entries to delete")
		return
	case err != nil:
		log.Error().Err(err).Str("username", identity).Msg("Failed to delete latest entry")
		writeMessage(w, http.StatusInternalServerError, "Entry cannot be deleted")
		return
	}

	h.events.Record(r.Context(), "entry.delete", "info", "Latest entry deleted", &identity)
	w.WriteHeader(http.StatusNoContent)
}

// Update replaces the payload fields of an entry the authenticated user owns.
// The stored date and time are preserved.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	payload, ok := decodeEntryPayload(w, r)
	if !ok {
		return
	}

	err = h.entries.Update(r.Context(), id, identity, payload.input())
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Entry does not exist")
		return
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "You do not own this entry")
		return
	case err != nil:
		log.Error().Err(err).Int64("entry_id", id).Msg("Failed to update entry")
		writeMessage(w, http.StatusInternalServerError, "Failed to update entry")
		return
	}

	h.events.Record(r.Context(), "entry.update", "info", fmt.Sprintf("Entry %d updated", id), &identity)
	w.WriteHeader(http.StatusNoContent)
}

// List returns every entry the authenticated user owns.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}

	entries, err := h.entries.List(r.Context(), identity)
	if err != nil {
		log.Error().Err(err).Str("username", identity).Msg("Failed to list entries")
		writeMessage(w, http.StatusInternalServerError, "Cannot find your entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
