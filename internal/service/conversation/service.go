package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fluentlab/fluent-partner/internal/model/conversation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnNotFound    = errors.New("turn not found")
	ErrInvalidRole     = errors.New("invalid turn role")
	ErrEmptyText       = errors.New("turn text is required")
)

// Service owns every session's append-only transcript. Turns are only ever
// appended by the pipeline; handlers get copies for rendering.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]conversation.Session
	turns    map[string][]conversation.Turn
}

// NewService bootstraps the in-memory conversation store. Nothing survives a
// restart, which matches the single-session product scope.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]conversation.Session),
		turns:    make(map[string][]conversation.Turn),
	}
}

// CreateSession provisions an anonymous practice session.
func (s *Service) CreateSession(_ context.Context, tutorID string) (conversation.Session, error) {
	session := conversation.Session{
		ID:        uuid.NewString(),
		TutorID:   tutorID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]conversation.Turn, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// AppendTurn appends one turn to the session transcript and returns the
// stored copy with its assigned identifier.
func (s *Service) AppendTurn(_ context.Context, turn conversation.Turn) (conversation.Turn, error) {
	if turn.SessionID == "" {
		return conversation.Turn{}, ErrSessionNotFound
	}
	if !turn.Role.Valid() {
		return conversation.Turn{}, ErrInvalidRole
	}
	if turn.Text == "" {
		return conversation.Turn{}, ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[turn.SessionID]; !ok {
		return conversation.Turn{}, ErrSessionNotFound
	}

	turn.ID = uuid.NewString()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return turn, nil
}

// AttachAudio records the clip reference on an already appended turn. Called
// at most once per turn, by the pipeline, within the same traversal.
func (s *Service) AttachAudio(_ context.Context, sessionID, turnID, audioID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	for i := range turns {
		if turns[i].ID == turnID {
			turns[i].AudioID = audioID
			return nil
		}
	}
	return ErrTurnNotFound
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return conversation.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Transcript returns a copy of the stored turns in append order.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]conversation.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Reset clears the transcript but keeps the session alive. The conversation
// context is derived from the transcript, so clearing it also starts the
// tutor from a blank slate. Resetting twice equals resetting once.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	s.turns[sessionID] = s.turns[sessionID][:0]
	return nil
}

// Destroy removes a session and its transcript entirely.
func (s *Service) Destroy(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	delete(s.sessions, sessionID)
	delete(s.turns, sessionID)
	return nil
}
