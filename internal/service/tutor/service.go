package tutor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/fluentlab/fluent-partner/internal/config"
	"github.com/fluentlab/fluent-partner/internal/model/conversation"
	"github.com/fluentlab/fluent-partner/internal/model/tutor"
)

// ErrEmptyReply signals the model answered with no usable text. The caller
// treats it as a generation failure so a retry can resume cleanly.
var ErrEmptyReply = errors.New("tutor model returned an empty reply")

// Service generates tutor replies with the Gemini API. The conversation
// context is rebuilt from the stored transcript on every call, so nothing in
// this service mutates on failure and the session always resumes from the
// last committed turn.
type Service struct {
	client  *genai.Client
	profile tutor.Profile
	cfg     config.TutorConfig
	system  *genai.Content
}

// NewService creates the tutor service and its Gemini client.
func NewService(ctx context.Context, profile tutor.Profile, cfg config.TutorConfig) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Service{
		client:  client,
		profile: profile,
		cfg:     cfg,
		system:  genai.NewContentFromText(BuildSystemPrompt(profile), genai.RoleUser),
	}, nil
}

// Profile returns the persona this service speaks as.
func (s *Service) Profile() tutor.Profile {
	return s.profile
}

// Reply sends the user's utterance together with the transcript-derived
// history and returns the tutor's full reply text.
func (s *Service) Reply(ctx context.Context, history []conversation.Turn, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", fmt.Errorf("user text is required")
	}

	contents := s.buildHistory(history)
	contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

	resp, err := s.client.Models.GenerateContent(ctx, s.cfg.Model, contents, s.generateConfig())
	if err != nil {
		return "", fmt.Errorf("tutor generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[tutor] generated reply model=%s history=%d length=%d", s.cfg.Model, len(history), len(text))
	return text, nil
}

func (s *Service) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: s.system,
		MaxOutputTokens:   int32(s.cfg.MaxOutputTokens),
	}

	if s.cfg.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*s.cfg.Temperature))
	}
	if s.cfg.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*s.cfg.TopP))
	}
	if s.cfg.TopK != nil {
		cfg.TopK = genai.Ptr(float32(*s.cfg.TopK))
	}

	return cfg
}

// buildHistory converts the most recent transcript turns into model contents.
// The window is bounded so long practice sessions do not outgrow the model
// context.
func (s *Service) buildHistory(turns []conversation.Turn) []*genai.Content {
	if len(turns) == 0 {
		return nil
	}

	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		limit = 20
	}

	startIdx := 0
	if len(turns) > limit {
		startIdx = len(turns) - limit
	}

	history := make([]*genai.Content, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case conversation.RoleUser:
			history = append(history, genai.NewContentFromText(turn.Text, genai.RoleUser))
		case conversation.RoleAssistant:
			history = append(history, genai.NewContentFromText(turn.Text, genai.RoleModel))
		}
	}

	return history
}
