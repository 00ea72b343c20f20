package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fluentlab/fluent-partner/internal/config"
	"github.com/fluentlab/fluent-partner/internal/handler"
	"github.com/fluentlab/fluent-partner/internal/handler/shell"
	tutormodel "github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/internal/pipeline"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
	speechservice "github.com/fluentlab/fluent-partner/internal/service/speech"
	tutorservice "github.com/fluentlab/fluent-partner/internal/service/tutor"
)

// clipMaxAge bounds how long an unplayed reply clip may linger before the
// janitor reclaims it.
const clipMaxAge = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	profile := tutormodel.Default()
	conversations := conversationservice.NewService()

	tutorSvc, err := tutorservice.NewService(ctx, profile, cfg.Tutor)
	if err != nil {
		log.Fatalf("failed to initialize tutor service: %v", err)
	}
	log.Println("tutor service initialized successfully")

	speechSvc := speechservice.NewService(&cfg.Speech)
	log.Println("speech service initialized successfully")

	pipe := pipeline.New(speechSvc, tutorSvc, speechSvc, conversations, speechSvc.Clips())

	hub := shell.NewHub()
	pipe.SetStateNotifier(hub.NotifyState)

	go sweepClips(ctx, speechSvc.Clips())

	router := handler.NewRouter(profile, conversations, pipe, speechSvc.Clips(), hub)

	startServer(ctx, cfg.Server, router)
}

// sweepClips reclaims reply audio that was never fetched for playback.
func sweepClips(ctx context.Context, clips *speechservice.ClipStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clips.Sweep(clipMaxAge)
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Fluent Partner backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
