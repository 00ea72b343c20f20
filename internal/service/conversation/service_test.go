package conversation_test

import (
	"context"
	"errors"
	"testing"

	conversationmodel "github.com/fluentlab/fluent-partner/internal/model/conversation"
	conversation "github.com/fluentlab/fluent-partner/internal/service/conversation"
)

func TestServiceGetSession(t *testing.T) {
	svc := conversation.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "aleyna")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.TutorID != "aleyna" {
		t.Fatalf("unexpected tutor ID: got %s", got.TutorID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := conversation.NewService()

	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, conversation.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendTurnKeepsOrder(t *testing.T) {
	svc := conversation.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "aleyna")

	texts := []struct {
		role conversationmodel.Role
		text string
	}{
		{conversationmodel.RoleUser, "Hello!"},
		{conversationmodel.RoleAssistant, "Hi, how was your day?"},
		{conversationmodel.RoleUser, "Pretty good, thanks."},
	}
	for _, tt := range texts {
		if _, err := svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: session.ID, Role: tt.role, Text: tt.text}); err != nil {
			t.Fatalf("AppendTurn err: %v", err)
		}
	}

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != len(texts) {
		t.Fatalf("expected %d turns, got %d", len(texts), len(transcript))
	}
	for i, tt := range texts {
		if transcript[i].Text != tt.text || transcript[i].Role != tt.role {
			t.Fatalf("turn %d out of order: got %s %q", i, transcript[i].Role, transcript[i].Text)
		}
		if transcript[i].ID == "" {
			t.Fatalf("turn %d missing assigned ID", i)
		}
	}
}

func TestAppendTurnValidation(t *testing.T) {
	svc := conversation.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "aleyna")

	if _, err := svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: session.ID, Role: "narrator", Text: "hi"}); !errors.Is(err, conversation.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: session.ID, Role: conversationmodel.RoleUser}); !errors.Is(err, conversation.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: "missing", Role: conversationmodel.RoleUser, Text: "hi"}); !errors.Is(err, conversation.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAttachAudio(t *testing.T) {
	svc := conversation.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "aleyna")
	turn, _ := svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: session.ID, Role: conversationmodel.RoleAssistant, Text: "Hi!"})

	if err := svc.AttachAudio(ctx, session.ID, turn.ID, "clip-1"); err != nil {
		t.Fatalf("AttachAudio err: %v", err)
	}

	transcript, _ := svc.Transcript(ctx, session.ID)
	if transcript[0].AudioID != "clip-1" {
		t.Fatalf("expected audio reference on turn, got %q", transcript[0].AudioID)
	}

	if err := svc.AttachAudio(ctx, session.ID, "missing", "clip-2"); !errors.Is(err, conversation.ErrTurnNotFound) {
		t.Fatalf("expected ErrTurnNotFound, got %v", err)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	svc := conversation.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "aleyna")
	svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: session.ID, Role: conversationmodel.RoleUser, Text: "Hello"})

	if err := svc.Reset(ctx, session.ID); err != nil {
		t.Fatalf("Reset err: %v", err)
	}
	if err := svc.Reset(ctx, session.ID); err != nil {
		t.Fatalf("second Reset err: %v", err)
	}

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err after reset: %v", err)
	}
	if len(transcript) != 0 {
		t.Fatalf("expected empty transcript after reset, got %d turns", len(transcript))
	}

	// Session stays usable after a reset.
	if _, err := svc.AppendTurn(ctx, conversationmodel.Turn{SessionID: session.ID, Role: conversationmodel.RoleUser, Text: "Again"}); err != nil {
		t.Fatalf("AppendTurn after reset err: %v", err)
	}
}

func TestDestroyRemovesEverything(t *testing.T) {
	svc := conversation.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "aleyna")

	if err := svc.Destroy(ctx, session.ID); err != nil {
		t.Fatalf("Destroy err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, conversation.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after destroy, got %v", err)
	}
	if err := svc.Destroy(ctx, session.ID); !errors.Is(err, conversation.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second destroy, got %v", err)
	}
}
