package tutor

import (
	"strings"
	"testing"

	tutormodel "github.com/fluentlab/fluent-partner/internal/model/tutor"
)

func TestBuildSystemPromptIncludesInstruction(t *testing.T) {
	profile := tutormodel.Default()

	prompt := BuildSystemPrompt(profile)

	if !strings.HasPrefix(prompt, strings.TrimSpace(profile.Instruction)) {
		t.Fatal("prompt should start with the profile instruction")
	}
	if !strings.Contains(prompt, "Session rules:") {
		t.Fatal("prompt should list the session rules")
	}
	for _, rule := range sessionRules {
		if !strings.Contains(prompt, rule) {
			t.Fatalf("prompt missing rule %q", rule)
		}
	}
}

func TestBuildSystemPromptFocusAreas(t *testing.T) {
	profile := tutormodel.Profile{
		ID:          "custom",
		Instruction: "You are a friendly tutor.",
		FocusAreas:  []string{"fluency", "pronunciation"},
	}

	prompt := BuildSystemPrompt(profile)
	if !strings.Contains(prompt, "fluency, pronunciation") {
		t.Fatal("prompt should mention the focus areas")
	}

	bare := BuildSystemPrompt(tutormodel.Profile{ID: "bare", Instruction: "Tutor."})
	if strings.Contains(bare, "Focus areas") {
		t.Fatal("prompt should omit focus areas when there are none")
	}
}
