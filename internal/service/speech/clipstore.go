package speech

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clip is a transient synthesized audio payload awaiting its single playback.
type Clip struct {
	ID        string
	SessionID string
	Data      []byte
	Format    string
	CreatedAt time.Time
}

// ClipStore holds synthesized clips between the traversal that produced them
// and the one playback that consumes them. Clips are single-owner: Take
// removes the clip, and clearing a session drops everything it still holds.
type ClipStore struct {
	mu    sync.Mutex
	clips map[string]Clip
}

// NewClipStore 创建临时音频存储
func NewClipStore() *ClipStore {
	return &ClipStore{clips: make(map[string]Clip)}
}

// Put stores a clip and returns its playback reference.
func (s *ClipStore) Put(sessionID string, data []byte, format string) string {
	clip := Clip{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Data:      data,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.clips[clip.ID] = clip
	s.mu.Unlock()

	return clip.ID
}

// Take returns a clip and removes it; a clip is played back at most once.
func (s *ClipStore) Take(id string) (Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[id]
	if ok {
		delete(s.clips, id)
	}
	return clip, ok
}

// Drop discards a clip that will never be played.
func (s *ClipStore) Drop(id string) {
	s.mu.Lock()
	delete(s.clips, id)
	s.mu.Unlock()
}

// DropSession discards every clip still held for a session. Used by clear
// conversation and session destroy.
func (s *ClipStore) DropSession(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, clip := range s.clips {
		if clip.SessionID == sessionID {
			delete(s.clips, id)
			dropped++
		}
	}
	return dropped
}

// Sweep evicts clips older than maxAge that were never fetched, so an
// abandoned tab cannot pin audio buffers forever.
func (s *ClipStore) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, clip := range s.clips {
		if clip.CreatedAt.Before(cutoff) {
			delete(s.clips, id)
			swept++
		}
	}
	if swept > 0 {
		log.Printf("[speech] swept %d expired clips", swept)
	}
	return swept
}

// Len reports how many clips are currently pending playback.
func (s *ClipStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}
