package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/gyancoder/backend/internal/auth"
	"github.com/ayush/gyancoder/backend/internal/models"
	"github.com/ayush/gyancoder/backend/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds the chat HTTP handlers. Messages are serialized in their
// stored [role, text, code-or-null] form everywhere, so the sidebar and the
// live conversation share one representation.
type Handler struct {
	registry    *Registry
	transcripts TranscriptStore
}

func NewHandler(registry *Registry, transcripts TranscriptStore) *Handler {
	return &Handler{registry: registry, transcripts: transcripts}
}

// SendMessage submits a user message to the active conversation and returns
// the assistant turn.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}

	turn, err := h.registry.ForUser(username).SubmitUserMessage(r.Context(), req.Message)
	if err != nil {
		http.Error(w, `{"error":"failed to save conversation"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// NewChat flushes the active conversation and starts a fresh one.
func (h *Handler) NewChat(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())

	if err := h.registry.ForUser(username).NewChat(); err != nil {
		http.Error(w, `{"error":"failed to save conversation"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "new chat started"})
}

// ListHistory returns the user's stored transcripts, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())

	entries, err := h.transcripts.List(username)
	if err != nil {
		http.Error(w, `{"error":"failed to list conversations"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// LoadHistory loads a stored transcript into the active session and returns
// its turns.
func (h *Handler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())
	filename := chi.URLParam(r, "filename")

	turns, err := h.registry.ForUser(username).LoadTranscript(filename)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"failed to load conversation"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": turns})
}

// DeleteHistory removes a stored transcript.
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())
	filename := chi.URLParam(r, "filename")

	removed, err := h.transcripts.Delete(username, filename)
	if err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]bool{"deleted": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
