package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fluentlab/fluent-partner/internal/config"
	"github.com/fluentlab/fluent-partner/internal/model/conversation"
	tutormodel "github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/internal/service/speech"
	"github.com/fluentlab/fluent-partner/internal/service/tutor"
)

// voicecheck exercises the provider integrations one at a time so credential
// or quota problems surface before a learner hits them mid-session.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "", "check to run: stt, tts or chat")
	audioPath := flag.String("audio", "", "input audio file for stt mode")
	text := flag.String("text", "", "input text for tts or chat mode")
	outputPath := flag.String("out", "", "output audio file for tts mode (defaults to a generated name)")
	format := flag.String("format", "", "audio format for stt input")
	session := flag.String("session", "", "session id, generated when empty")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *mode != "stt" && *mode != "tts" && *mode != "chat" {
		flag.Usage()
		log.Fatal("specify a check with -mode=stt, -mode=tts or -mode=chat")
	}

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "stt":
		runSTT(ctx, cfg, sessionID, *audioPath, *format)
	case "tts":
		runTTS(ctx, cfg, sessionID, *text, *outputPath)
	case "chat":
		runChat(ctx, cfg, *text)
	}
}

func runSTT(ctx context.Context, cfg *config.Config, sessionID, audioPath, format string) {
	if audioPath == "" {
		log.Fatal("stt mode needs an audio file via -audio")
	}

	clip, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("failed to read audio file: %v", err)
	}

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
		if format == "" {
			format = "wav"
		}
	}

	svc := speech.NewService(&cfg.Speech)

	log.Printf("running stt check: session=%s format=%s bytes=%d", sessionID, format, len(clip))

	result, err := svc.Transcribe(ctx, sessionID, clip, format)
	if err != nil {
		log.Fatalf("transcription failed: %v", err)
	}

	log.Printf("transcription succeeded: text=%q language=%s", result.Text, result.Language)
}

func runTTS(ctx context.Context, cfg *config.Config, sessionID, text, outputPath string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode needs input text via -text")
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.%s", time.Now().Unix(), cfg.Speech.TTSFormat)
	}

	svc := speech.NewService(&cfg.Speech)

	log.Printf("running tts check: session=%s voice=%s format=%s", sessionID, cfg.Speech.TTSVoice, cfg.Speech.TTSFormat)

	result, err := svc.Synthesize(ctx, sessionID, text)
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}

	if err := os.WriteFile(outputPath, result.AudioData, 0o644); err != nil {
		log.Fatalf("failed to write audio file: %v", err)
	}

	log.Printf("synthesis succeeded: wrote %d bytes to %s", len(result.AudioData), outputPath)
}

func runChat(ctx context.Context, cfg *config.Config, text string) {
	if strings.TrimSpace(text) == "" {
		text = "Hi Aleyna, can you introduce yourself?"
	}

	svc, err := tutor.NewService(ctx, tutormodel.Default(), cfg.Tutor)
	if err != nil {
		log.Fatalf("failed to initialize tutor service: %v", err)
	}

	log.Printf("running chat check: model=%s", cfg.Tutor.Model)

	reply, err := svc.Reply(ctx, []conversation.Turn{}, text)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	log.Printf("generation succeeded: reply=%q", reply)
}
