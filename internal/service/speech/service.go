package speech

import (
	"context"
	"time"

	speechmodel "github.com/fluentlab/fluent-partner/internal/model/speech"
)

// Service 语音服务核心业务逻辑. It fronts the two provider clients and the
// transient clip store.
type Service struct {
	config *speechmodel.Config
	stt    *WhisperClient
	tts    *SynthesisClient
	clips  *ClipStore
}

// NewService 创建语音服务实例
func NewService(config *speechmodel.Config) *Service {
	return &Service{
		config: config,
		stt:    NewWhisperClient(config),
		tts:    NewSynthesisClient(config),
		clips:  NewClipStore(),
	}
}

// Clips exposes the transient clip store for playback handlers and cleanup.
func (s *Service) Clips() *ClipStore {
	return s.clips
}

// Transcribe 语音转文字
func (s *Service) Transcribe(ctx context.Context, sessionID string, clip []byte, format string) (*speechmodel.TranscriptionResult, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.stt.Transcribe(ctx, sessionID, clip, format)
}

// Synthesize 文字转语音
func (s *Service) Synthesize(ctx context.Context, sessionID, text string) (*speechmodel.SynthesisResult, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.tts.Synthesize(ctx, sessionID, text)
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
