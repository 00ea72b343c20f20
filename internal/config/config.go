package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	speechmodel "github.com/fluentlab/fluent-partner/internal/model/speech"
)

// Credentials for both providers are mandatory: without them the product can
// do nothing, so Load fails and startup halts.
var (
	ErrMissingOpenAIKey = errors.New("OPENAI_API_KEY is required for transcription and synthesis")
	ErrMissingGeminiKey = errors.New("GEMINI_API_KEY is required for the tutor chat model")
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Tutor  TutorConfig
	Speech speechmodel.Config
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	tutor, err := loadTutorConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Tutor: tutor, Speech: speech}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// TutorConfig 描述大模型相关配置。Sampling defaults mirror the shipped
// product; each one can be overridden through the environment.
type TutorConfig struct {
	APIKey          string
	Model           string
	Temperature     *float64
	TopP            *float64
	TopK            *int
	MaxOutputTokens int
	HistoryLimit    int
}

func loadTutorConfig() (TutorConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return TutorConfig{}, ErrMissingGeminiKey
	}

	temperature, err := parseOptionalFloatEnv("GEMINI_TEMPERATURE")
	if err != nil {
		return TutorConfig{}, err
	}
	if temperature == nil {
		temperature = floatPtr(0.7)
	}

	topP, err := parseOptionalFloatEnv("GEMINI_TOP_P")
	if err != nil {
		return TutorConfig{}, err
	}
	if topP == nil {
		topP = floatPtr(0.95)
	}

	topK, err := parseOptionalIntEnv("GEMINI_TOP_K")
	if err != nil {
		return TutorConfig{}, err
	}
	if topK == nil {
		topK = intPtr(64)
	}

	maxTokens := 8192
	if override, err := parseOptionalIntEnv("GEMINI_MAX_OUTPUT_TOKENS"); err != nil {
		return TutorConfig{}, err
	} else if override != nil && *override > 0 {
		maxTokens = *override
	}

	historyLimit := 20
	if override, err := parseOptionalIntEnv("TUTOR_HISTORY_LIMIT"); err != nil {
		return TutorConfig{}, err
	} else if override != nil {
		if *override < 2 {
			historyLimit = 2
		} else {
			historyLimit = *override
		}
	}

	return TutorConfig{
		APIKey:          apiKey,
		Model:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Temperature:     temperature,
		TopP:            topP,
		TopK:            topK,
		MaxOutputTokens: maxTokens,
		HistoryLimit:    historyLimit,
	}, nil
}

func loadSpeechConfig() (speechmodel.Config, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return speechmodel.Config{}, ErrMissingOpenAIKey
	}

	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return speechmodel.Config{}, err
	}
	timeoutSeconds := 30
	if timeout != nil && *timeout > 0 {
		timeoutSeconds = *timeout
	}

	speed, err := parseOptionalFloatEnv("SPEECH_TTS_SPEED")
	if err != nil {
		return speechmodel.Config{}, err
	}
	ttsSpeed := 1.0
	if speed != nil {
		ttsSpeed = *speed
	}

	return speechmodel.Config{
		APIKey:          apiKey,
		TranscribeModel: getEnvOrDefault("SPEECH_STT_MODEL", "whisper-1"),
		Language:        getEnvOrDefault("SPEECH_LANGUAGE", "en"),
		TTSModel:        getEnvOrDefault("SPEECH_TTS_MODEL", "tts-1"),
		TTSVoice:        getEnvOrDefault("SPEECH_TTS_VOICE", "alloy"),
		TTSFormat:       getEnvOrDefault("SPEECH_TTS_FORMAT", "mp3"),
		TTSSpeed:        ttsSpeed,
		Timeout:         timeoutSeconds,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
