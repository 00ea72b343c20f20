package conversation

import "time"

// Session captures one transient practice conversation.
type Session struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutorId"`
	CreatedAt time.Time `json:"createdAt"`
}
