package tutor

import (
	"fmt"
	"strings"

	"github.com/fluentlab/fluent-partner/internal/model/tutor"
)

// sessionRules frame every practice session on top of the profile's own
// instruction. They are intentionally short; the persona text does the heavy
// lifting.
var sessionRules = []string{
	"The user is practicing spoken English; their messages are voice transcriptions and may contain recognition noise.",
	"Never switch away from English, even if the user does.",
	"When you correct a mistake, repeat the corrected phrase naturally instead of lecturing about grammar rules.",
	"End most replies with a question that invites the user to keep talking.",
}

// BuildSystemPrompt assembles the full system instruction for a profile.
func BuildSystemPrompt(profile tutor.Profile) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(profile.Instruction))

	b.WriteString("\n\nSession rules:\n")
	for _, rule := range sessionRules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}

	if len(profile.FocusAreas) > 0 {
		fmt.Fprintf(&b, "\nFocus areas for this learner: %s.", strings.Join(profile.FocusAreas, ", "))
	}

	return b.String()
}
