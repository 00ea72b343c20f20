package shell

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/internal/pipeline"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
	speechservice "github.com/fluentlab/fluent-partner/internal/service/speech"
)

// WebSocketHandler 会话语音通道处理器
type WebSocketHandler struct {
	pipe          *pipeline.Pipeline
	conversations *conversationservice.Service
	clips         *speechservice.ClipStore
	profile       tutor.Profile
	hub           *Hub
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(pipe *pipeline.Pipeline, conversations *conversationservice.Service, clips *speechservice.ClipStore, profile tutor.Profile, hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{
		pipe:          pipe,
		conversations: conversations,
		clips:         clips,
		profile:       profile,
		hub:           hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AudioMessage carries one capture chunk. Chunks accumulate until IsFinal,
// then the whole recording goes through the pipeline as one utterance.
type AudioMessage struct {
	AudioData  []byte `json:"audioData"`
	Format     string `json:"format"`
	IsFinal    bool   `json:"isFinal"`
	ChunkIndex int    `json:"chunkIndex"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// ConfigMessage 配置消息
type ConfigMessage struct {
	TTSEnabled *bool `json:"ttsEnabled,omitempty"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type connectionState struct {
	sessionID   string
	ttsEnabled  bool
	audioFormat string
	buffer      bytes.Buffer
}

func newConnectionState(sessionID string) *connectionState {
	return &connectionState{
		sessionID:  sessionID,
		ttsEnabled: true,
	}
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.conversations.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[shell] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[shell] new connection for session: %s", sessionID)

	c := &client{conn: conn}
	h.hub.register(sessionID, c)
	defer h.hub.unregister(sessionID, c)

	state := newConnectionState(sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, c)

	h.sendEvent(c, sessionID, "connected", map[string]any{
		"tutor":          h.profile.ID,
		"captureEnabled": h.pipe.State(sessionID) == pipeline.StateIdle,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[shell] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var msg inboundMessage
			if err := sonic.Unmarshal(payload, &msg); err != nil {
				h.sendError(c, "invalid message")
				continue
			}

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(c, "session mismatch")
				continue
			}

			h.handleMessage(ctx, c, state, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *client, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "audio":
		h.handleAudioMessage(ctx, c, state, msg.Data)
	case "text":
		h.handleTextMessage(ctx, c, state, msg.Data)
	case "clear":
		h.handleClearMessage(ctx, c, state)
	case "config":
		h.handleConfigMessage(c, state, msg.Data)
	default:
		h.sendError(c, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleAudioMessage(ctx context.Context, c *client, state *connectionState, raw json.RawMessage) {
	var audio AudioMessage
	if err := sonic.Unmarshal(raw, &audio); err != nil {
		h.sendError(c, "invalid audio payload")
		return
	}

	if len(audio.AudioData) > 0 {
		written, _ := state.buffer.Write(audio.AudioData)
		log.Printf("[shell] buffered audio chunk session=%s size=%d total=%d", state.sessionID, written, state.buffer.Len())
	}
	if audio.Format != "" {
		state.audioFormat = audio.Format
	}

	if audio.IsFinal {
		h.processBufferedAudio(ctx, c, state)
	}
}

func (h *WebSocketHandler) processBufferedAudio(ctx context.Context, c *client, state *connectionState) {
	clip := make([]byte, state.buffer.Len())
	copy(clip, state.buffer.Bytes())
	state.buffer.Reset()

	format := state.audioFormat
	if format == "" {
		format = "wav"
	}

	log.Printf("[shell] processing recording session=%s format=%s bytes=%d", state.sessionID, format, len(clip))

	result, err := h.pipe.ProcessTurn(ctx, state.sessionID, clip, format)
	if err != nil {
		h.sendError(c, turnErrorMessage(err))
		return
	}

	h.sendResult(c, state, result)
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, c *client, state *connectionState, raw json.RawMessage) {
	var text TextMessage
	if err := sonic.Unmarshal(raw, &text); err != nil {
		h.sendError(c, "invalid text payload")
		return
	}

	// Empty input still goes through the pipeline so the user gets the
	// invalid-input notice instead of silence.
	result, err := h.pipe.ProcessText(ctx, state.sessionID, text.Text)
	if err != nil {
		h.sendError(c, turnErrorMessage(err))
		return
	}

	h.sendResult(c, state, result)
}

// sendResult pushes both committed turns and, when the clip is there and the
// client wants audio, the synthesized speech. Delivering the clip over the
// socket is its one playback, so the store entry goes away either way.
func (h *WebSocketHandler) sendResult(c *client, state *connectionState, result *pipeline.Result) {
	h.sendEvent(c, state.sessionID, "user", map[string]any{
		"turnId": result.User.ID,
		"text":   result.User.Text,
	})

	h.sendEvent(c, state.sessionID, "assistant", map[string]any{
		"turnId":          result.Assistant.ID,
		"text":            result.Assistant.Text,
		"synthesisFailed": result.SynthesisFailed,
	})

	if result.Assistant.AudioID == "" {
		return
	}

	clip, ok := h.clips.Take(result.Assistant.AudioID)
	if !ok {
		return
	}
	if !state.ttsEnabled {
		return
	}

	h.sendEvent(c, state.sessionID, "tts", map[string]any{
		"turnId":    result.Assistant.ID,
		"audioData": base64.StdEncoding.EncodeToString(clip.Data),
		"format":    clip.Format,
		"isFinal":   true,
	})
}

func (h *WebSocketHandler) handleClearMessage(ctx context.Context, c *client, state *connectionState) {
	if err := h.pipe.Clear(ctx, state.sessionID); err != nil {
		h.sendError(c, turnErrorMessage(err))
		return
	}

	h.sendEvent(c, state.sessionID, "cleared", map[string]any{
		"openingLine": h.profile.OpeningLine,
	})
}

func (h *WebSocketHandler) handleConfigMessage(c *client, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := sonic.Unmarshal(raw, &cfg); err != nil {
		h.sendError(c, "invalid config payload")
		return
	}

	h.applyConfig(state, cfg)

	log.Printf("[shell] config applied session=%s tts=%v", state.sessionID, state.ttsEnabled)

	h.sendEvent(c, state.sessionID, "config", map[string]any{
		"tts": state.ttsEnabled,
	})
}

func (h *WebSocketHandler) applyConfig(state *connectionState, cfg ConfigMessage) {
	if cfg.TTSEnabled != nil {
		state.ttsEnabled = *cfg.TTSEnabled
	}
}

func turnErrorMessage(err error) string {
	switch {
	case errors.Is(err, conversationservice.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, pipeline.ErrTurnInProgress):
		return "a turn is already being processed"
	case errors.Is(err, pipeline.ErrInvalidInput):
		return "the recording or message could not be used, please try again"
	case errors.Is(err, pipeline.ErrTranscription):
		return "I couldn't hear that, please try again"
	case errors.Is(err, pipeline.ErrGeneration):
		return "the tutor could not respond, please try again"
	default:
		return fmt.Sprintf("turn failed: %v", err)
	}
}

func (h *WebSocketHandler) sendEvent(c *client, sessionID, eventType string, data map[string]any) {
	msg := outgoingMessage{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[shell] write %s failed: %v", eventType, err)
	}
}

func (h *WebSocketHandler) sendError(c *client, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[shell] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}
