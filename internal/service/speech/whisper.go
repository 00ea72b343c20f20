package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	speechmodel "github.com/fluentlab/fluent-partner/internal/model/speech"
)

// ErrNoAudio is returned when a transcription request carries no payload.
var ErrNoAudio = errors.New("no audio payload")

// WhisperClient wraps OpenAI's transcription endpoint. One recorded clip in,
// one best-effort transcript out; no partial results, no confidence score.
type WhisperClient struct {
	client *openai.Client
	config *speechmodel.Config
}

// NewWhisperClient 创建语音识别客户端
func NewWhisperClient(config *speechmodel.Config) *WhisperClient {
	return &WhisperClient{
		client: openai.NewClient(config.APIKey),
		config: config,
	}
}

// Transcribe sends the clip upstream and returns its transcript. The
// language hint is fixed by configuration (English for this product).
func (c *WhisperClient) Transcribe(ctx context.Context, sessionID string, clip []byte, format string) (*speechmodel.TranscriptionResult, error) {
	if len(clip) == 0 {
		return nil, ErrNoAudio
	}

	if format == "" {
		format = "wav"
	}

	req := openai.AudioRequest{
		Model:    c.config.TranscribeModel,
		Reader:   bytes.NewReader(clip),
		FilePath: "clip." + format,
		Language: c.config.Language,
	}

	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	log.Printf("[speech] transcribed session=%s bytes=%d chars=%d", sessionID, len(clip), len(text))

	return &speechmodel.TranscriptionResult{
		SessionID: sessionID,
		Text:      text,
		Language:  c.config.Language,
		CreatedAt: time.Now().UTC(),
	}, nil
}
