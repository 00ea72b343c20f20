package conversation

import "time"

// Role identifies which participant produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the two known participants.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one utterance in the transcript. AudioID references a transient
// clip in the speech clip store and is only ever set once, by the pipeline,
// during the traversal that created the turn.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	AudioID   string    `json:"audioId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
