package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	speechmodel "github.com/fluentlab/fluent-partner/internal/model/speech"
)

// ErrEmptyText is returned when a synthesis request has nothing to speak.
var ErrEmptyText = errors.New("synthesis text is required")

// SynthesisClient wraps OpenAI's speech endpoint with the product's fixed
// voice profile.
type SynthesisClient struct {
	client *openai.Client
	config *speechmodel.Config
}

// NewSynthesisClient 创建语音合成客户端
func NewSynthesisClient(config *speechmodel.Config) *SynthesisClient {
	return &SynthesisClient{
		client: openai.NewClient(config.APIKey),
		config: config,
	}
}

// Synthesize renders the reply text as one audio clip in the configured
// container format.
func (c *SynthesisClient) Synthesize(ctx context.Context, sessionID, text string) (*speechmodel.SynthesisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.config.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.config.TTSVoice),
		ResponseFormat: openai.SpeechResponseFormat(c.config.TTSFormat),
	}
	if c.config.TTSSpeed > 0 {
		req.Speed = c.config.TTSSpeed
	}

	resp, err := c.client.CreateSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned empty audio")
	}

	log.Printf("[speech] synthesized session=%s chars=%d bytes=%d format=%s", sessionID, len(text), len(audio), c.config.TTSFormat)

	return &speechmodel.SynthesisResult{
		SessionID: sessionID,
		AudioData: audio,
		Format:    c.config.TTSFormat,
		Voice:     c.config.TTSVoice,
		CreatedAt: time.Now().UTC(),
	}, nil
}
