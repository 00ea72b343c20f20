package shell

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	conversationmodel "github.com/fluentlab/fluent-partner/internal/model/conversation"
	speechmodel "github.com/fluentlab/fluent-partner/internal/model/speech"
	"github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/internal/pipeline"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
	speechservice "github.com/fluentlab/fluent-partner/internal/service/speech"
)

func boolPtr(v bool) *bool { return &v }

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(_ context.Context, sessionID string, _ []byte, _ string) (*speechmodel.TranscriptionResult, error) {
	return &speechmodel.TranscriptionResult{SessionID: sessionID, Text: "hello", CreatedAt: time.Now()}, nil
}

type stubChatModel struct{}

func (stubChatModel) Reply(context.Context, []conversationmodel.Turn, string) (string, error) {
	return "hi there", nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(_ context.Context, sessionID, _ string) (*speechmodel.SynthesisResult, error) {
	return &speechmodel.SynthesisResult{SessionID: sessionID, AudioData: []byte("a"), Format: "mp3", CreatedAt: time.Now()}, nil
}

// dialShell spins up the full websocket stack and returns a connected client.
func dialShell(t *testing.T) *websocket.Conn {
	t.Helper()

	conversations := conversationservice.NewService()
	clips := speechservice.NewClipStore()
	pipe := pipeline.New(stubTranscriber{}, stubChatModel{}, stubSynthesizer{}, conversations, clips)

	hub := NewHub()
	pipe.SetStateNotifier(hub.NotifyState)

	session, err := conversations.CreateSession(context.Background(), "aleyna")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	NewWebSocketHandler(pipe, conversations, clips, tutor.Default(), hub).RegisterWebSocketRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + session.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Drain the connected frame.
	var connected outgoingMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&connected); err != nil {
		t.Fatalf("read connected frame err: %v", err)
	}
	if connected.Type != "connected" {
		t.Fatalf("expected connected frame, got %q", connected.Type)
	}
	return conn
}

// readUntilType skips interleaved state frames and returns the first frame of
// the wanted type.
func readUntilType(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()

	for i := 0; i < 10; i++ {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read frame err: %v", err)
		}
		if msg.Type != wantType {
			continue
		}
		var data map[string]any
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				t.Fatalf("decode frame data err: %v", err)
			}
		}
		return data
	}
	t.Fatalf("no %q frame arrived", wantType)
	return nil
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write err: %v", err)
	}
}

func TestEmptyRecordingGetsVisibleNotice(t *testing.T) {
	conn := dialShell(t)

	sendMessage(t, conn, "audio", map[string]any{"isFinal": true})

	data := readUntilType(t, conn, "error")
	message, _ := data["message"].(string)
	if !strings.Contains(message, "could not be used") {
		t.Fatalf("expected an invalid-input notice, got %q", message)
	}
}

func TestEmptyTextGetsVisibleNotice(t *testing.T) {
	conn := dialShell(t)

	sendMessage(t, conn, "text", map[string]any{"text": ""})

	data := readUntilType(t, conn, "error")
	message, _ := data["message"].(string)
	if !strings.Contains(message, "could not be used") {
		t.Fatalf("expected an invalid-input notice, got %q", message)
	}
}

func TestTextMessageRoundTrip(t *testing.T) {
	conn := dialShell(t)

	sendMessage(t, conn, "text", map[string]any{"text": "Hello Aleyna"})

	userData := readUntilType(t, conn, "user")
	if got, _ := userData["text"].(string); got != "Hello Aleyna" {
		t.Fatalf("unexpected user event text: %q", got)
	}

	assistantData := readUntilType(t, conn, "assistant")
	if got, _ := assistantData["text"].(string); got != "hi there" {
		t.Fatalf("unexpected assistant event text: %q", got)
	}

	ttsData := readUntilType(t, conn, "tts")
	if ttsData["audioData"] == nil {
		t.Fatal("expected inline reply audio")
	}
}

func TestApplyConfigUpdatesState(t *testing.T) {
	handler := &WebSocketHandler{}
	state := newConnectionState("session")

	if !state.ttsEnabled {
		t.Fatal("TTS should default to enabled")
	}

	handler.applyConfig(state, ConfigMessage{TTSEnabled: boolPtr(false)})
	if state.ttsEnabled {
		t.Fatal("expected TTS disabled")
	}

	handler.applyConfig(state, ConfigMessage{})
	if state.ttsEnabled {
		t.Fatal("an empty config must not flip TTS back on")
	}

	handler.applyConfig(state, ConfigMessage{TTSEnabled: boolPtr(true)})
	if !state.ttsEnabled {
		t.Fatal("expected TTS re-enabled")
	}
}

func TestTurnErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{conversationservice.ErrSessionNotFound, "session not found"},
		{pipeline.ErrTurnInProgress, "already being processed"},
		{pipeline.ErrInvalidInput, "could not be used"},
		{pipeline.ErrTranscription, "couldn't hear"},
		{pipeline.ErrGeneration, "could not respond"},
		{errors.New("boom"), "turn failed"},
	}

	for _, tc := range cases {
		got := turnErrorMessage(tc.err)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("turnErrorMessage(%v) = %q, want it to mention %q", tc.err, got, tc.want)
		}
	}
}
