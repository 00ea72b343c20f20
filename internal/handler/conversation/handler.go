package conversation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	tutormodel "github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/internal/pipeline"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
)

// Handler 会话生命周期的HTTP处理器. Session create, transcript read, clear
// and destroy; all transcript mutation beyond that belongs to the pipeline.
type Handler struct {
	conversations *conversationservice.Service
	pipe          *pipeline.Pipeline
	profile       tutormodel.Profile
}

// New 创建会话处理器
func New(conversations *conversationservice.Service, pipe *pipeline.Pipeline, profile tutormodel.Profile) *Handler {
	return &Handler{
		conversations: conversations,
		pipe:          pipe,
		profile:       profile,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
	r.Get("/session/{sessionID}/state", h.handleState)
	r.Post("/session/{sessionID}/clear", h.handleClear)
	r.Delete("/session/{sessionID}", h.handleDestroy)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// The body is optional; there is only one tutor, but a mismatched id is
	// still an error rather than a silent substitution.
	var payload struct {
		TutorID string `json:"tutorId"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if payload.TutorID != "" && payload.TutorID != h.profile.ID {
		respondError(w, http.StatusBadRequest, "unknown tutor")
		return
	}

	session, err := h.conversations.CreateSession(r.Context(), h.profile.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"session":     session,
		"openingLine": h.profile.OpeningLine,
	})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.conversations.Transcript(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"turns":     turns,
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.conversations.GetSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"state":     h.pipe.State(sessionID),
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.pipe.Clear(r.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, conversationservice.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, pipeline.ErrTurnInProgress):
			respondError(w, http.StatusConflict, "wait for the current turn to finish")
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleDestroy(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.pipe.Destroy(r.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, conversationservice.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, pipeline.ErrTurnInProgress):
			respondError(w, http.StatusConflict, "wait for the current turn to finish")
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondJSON 发送JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError 发送错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
