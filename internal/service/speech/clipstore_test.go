package speech

import (
	"testing"
	"time"
)

func TestClipStoreTakeIsOneShot(t *testing.T) {
	store := NewClipStore()

	id := store.Put("session-1", []byte("mp3-bytes"), "mp3")

	clip, ok := store.Take(id)
	if !ok {
		t.Fatal("expected clip on first take")
	}
	if string(clip.Data) != "mp3-bytes" || clip.Format != "mp3" {
		t.Fatalf("unexpected clip contents: %q %s", clip.Data, clip.Format)
	}

	if _, ok := store.Take(id); ok {
		t.Fatal("clip must be gone after one playback")
	}
}

func TestClipStoreDropSession(t *testing.T) {
	store := NewClipStore()

	store.Put("session-1", []byte("a"), "mp3")
	store.Put("session-1", []byte("b"), "mp3")
	keep := store.Put("session-2", []byte("c"), "mp3")

	if dropped := store.DropSession("session-1"); dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", dropped)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining clip, got %d", store.Len())
	}
	if _, ok := store.Take(keep); !ok {
		t.Fatal("other session's clip should survive")
	}
}

func TestClipStoreSweep(t *testing.T) {
	store := NewClipStore()

	stale := store.Put("session-1", []byte("old"), "mp3")
	clip := store.clips[stale]
	clip.CreatedAt = time.Now().Add(-time.Hour)
	store.clips[stale] = clip

	fresh := store.Put("session-1", []byte("new"), "mp3")

	if swept := store.Sweep(10 * time.Minute); swept != 1 {
		t.Fatalf("expected 1 swept clip, got %d", swept)
	}
	if _, ok := store.Take(stale); ok {
		t.Fatal("stale clip should be gone")
	}
	if _, ok := store.Take(fresh); !ok {
		t.Fatal("fresh clip should survive the sweep")
	}
}
