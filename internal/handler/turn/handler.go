package turn

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fluentlab/fluent-partner/internal/pipeline"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
	speechservice "github.com/fluentlab/fluent-partner/internal/service/speech"
	"github.com/fluentlab/fluent-partner/pkg/utils"
)

const maxUploadBytes = 32 << 20 // multipart memory cap, matches capture sizes with headroom

// Handler drives one pipeline traversal per uploaded recording and serves
// the resulting reply audio exactly once.
type Handler struct {
	pipe  *pipeline.Pipeline
	clips *speechservice.ClipStore
}

// New 创建语音轮次处理器
func New(pipe *pipeline.Pipeline, clips *speechservice.ClipStore) *Handler {
	return &Handler{pipe: pipe, clips: clips}
}

// RegisterRoutes 注册轮次相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/turn", h.handleTurn)
	r.Get("/audio/{clipID}", h.handleAudio)
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	clip, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio upload")
		return
	}

	result, err := h.pipe.ProcessTurn(r.Context(), sessionID, clip, inferAudioFormat(header.Filename))
	if err != nil {
		h.respondTurnError(w, sessionID, err)
		return
	}

	if result.SynthesisFailed {
		utils.RespondNotice(w, http.StatusOK, result, "reply audio is unavailable, showing text only")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

func (h *Handler) respondTurnError(w http.ResponseWriter, sessionID string, err error) {
	log.Printf("[turn] session=%s: %v", sessionID, err)

	switch {
	case errors.Is(err, conversationservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, pipeline.ErrInvalidInput):
		utils.RespondError(w, http.StatusBadRequest, "the recording was empty or unreadable, please try again")
	case errors.Is(err, pipeline.ErrTurnInProgress):
		utils.RespondError(w, http.StatusConflict, "the previous turn is still being processed")
	case errors.Is(err, pipeline.ErrTranscription):
		utils.RespondError(w, http.StatusBadGateway, "could not understand the recording, please speak again")
	case errors.Is(err, pipeline.ErrGeneration):
		utils.RespondError(w, http.StatusBadGateway, "the tutor could not reply, please try again")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "turn processing failed")
	}
}

// handleAudio serves a synthesized clip exactly once; a second fetch finds
// nothing because playback disposes the clip.
func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipID")

	clip, ok := h.clips.Take(clipID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "audio clip not found or already played")
		return
	}

	format := clip.Format
	if format == "" {
		format = "octet-stream"
	}

	w.Header().Set("Content-Type", "audio/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(len(clip.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(clip.Data); err != nil {
		log.Printf("[turn] failed to write audio response: %v", err)
	}
}

// inferAudioFormat 从文件名推断音频格式. The capture container is fixed to
// WAV; validation rejects anything else, this only names the upload.
func inferAudioFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "wav"
	}
	return strings.TrimPrefix(ext, ".")
}
