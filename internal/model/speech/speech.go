package speech

import "time"

// TranscriptionResult 语音识别结果
type TranscriptionResult struct {
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// SynthesisResult holds one synthesized reply clip.
type SynthesisResult struct {
	SessionID string    `json:"sessionId"`
	AudioData []byte    `json:"-"`
	Format    string    `json:"format"`
	Voice     string    `json:"voice"`
	CreatedAt time.Time `json:"createdAt"`
}

// Config carries the speech provider settings.
type Config struct {
	// OpenAI credentials cover both directions: Whisper for speech-to-text
	// and the TTS endpoint for synthesis.
	APIKey string `json:"-"`

	// STT settings.
	TranscribeModel string `json:"transcribeModel"`
	Language        string `json:"language"`

	// TTS settings.
	TTSModel  string  `json:"ttsModel"`
	TTSVoice  string  `json:"ttsVoice"`
	TTSFormat string  `json:"ttsFormat"`
	TTSSpeed  float64 `json:"ttsSpeed"`

	Timeout int `json:"timeout"` // seconds
}
