package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/fluentlab/fluent-partner/internal/audio"
	"github.com/fluentlab/fluent-partner/internal/model/conversation"
	speechmodel "github.com/fluentlab/fluent-partner/internal/model/speech"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
	speechservice "github.com/fluentlab/fluent-partner/internal/service/speech"
)

// State is where a session's pipeline currently sits. Anything other than
// StateIdle means a traversal is in flight and the capture control must stay
// disabled.
type State string

const (
	StateIdle         State = "idle"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateSynthesizing State = "synthesizing"
)

// Transcriber turns one recorded clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, sessionID string, clip []byte, format string) (*speechmodel.TranscriptionResult, error)
}

// ChatModel produces the tutor's reply for one user utterance given the
// transcript-derived history.
type ChatModel interface {
	Reply(ctx context.Context, history []conversation.Turn, userText string) (string, error)
}

// Synthesizer turns reply text into one playable clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, sessionID, text string) (*speechmodel.SynthesisResult, error)
}

// StateNotifier receives every state transition. Used by the shell channel to
// gate the capture control; may be nil.
type StateNotifier func(sessionID string, state State)

// Result is what one completed traversal hands back to the presentation
// boundary. SynthesisFailed marks the text-only degradation path: the
// assistant turn exists but carries no audio reference.
type Result struct {
	User            conversation.Turn `json:"userTurn"`
	Assistant       conversation.Turn `json:"assistantTurn"`
	SynthesisFailed bool              `json:"synthesisFailed,omitempty"`
}

// Pipeline drives one captured clip through transcribe, generate and
// synthesize, and owns all transcript mutation. One traversal per session at
// a time; the three provider calls run strictly in sequence because each
// consumes the previous one's output.
type Pipeline struct {
	transcriber   Transcriber
	chatModel     ChatModel
	synthesizer   Synthesizer
	conversations *conversationservice.Service
	clips         *speechservice.ClipStore
	notify        StateNotifier

	mu     sync.Mutex
	states map[string]State
}

// New wires the pipeline. The notifier is optional and must be set before
// traffic arrives.
func New(transcriber Transcriber, chatModel ChatModel, synthesizer Synthesizer, conversations *conversationservice.Service, clips *speechservice.ClipStore) *Pipeline {
	return &Pipeline{
		transcriber:   transcriber,
		chatModel:     chatModel,
		synthesizer:   synthesizer,
		conversations: conversations,
		clips:         clips,
		states:        make(map[string]State),
	}
}

// SetStateNotifier registers the transition observer.
func (p *Pipeline) SetStateNotifier(fn StateNotifier) {
	p.notify = fn
}

// State reports the session's current pipeline state.
func (p *Pipeline) State(sessionID string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.states[sessionID]; ok {
		return state
	}
	return StateIdle
}

// ProcessTurn runs one full traversal for a captured clip.
//
// Commit points, in order: a failed validation or transcription commits
// nothing; once transcription succeeds exactly one user turn is appended
// before generation starts; a failed generation leaves that user turn in
// place; a failed synthesis leaves the assistant turn text-only and the
// traversal still succeeds. The session always returns to idle.
func (p *Pipeline) ProcessTurn(ctx context.Context, sessionID string, clip []byte, format string) (*Result, error) {
	if _, err := p.conversations.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	if err := p.acquire(sessionID, StateTranscribing); err != nil {
		return nil, err
	}
	defer p.release(sessionID)

	if err := audio.ValidateClip(clip); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	transcript, err := p.transcriber.Transcribe(ctx, sessionID, clip, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if transcript.Text == "" {
		return nil, fmt.Errorf("%w: nothing recognized in the recording", ErrTranscription)
	}

	return p.runExchange(ctx, sessionID, transcript.Text)
}

// ProcessText runs a traversal that starts from typed text instead of a
// recording: the transcription stage is skipped, everything after it behaves
// exactly like ProcessTurn. Kept for the shell's no-microphone fallback.
// Typed turns enter at Generating; there is no transcription phase to show.
func (p *Pipeline) ProcessText(ctx context.Context, sessionID, userText string) (*Result, error) {
	if _, err := p.conversations.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	if err := p.acquire(sessionID, StateGenerating); err != nil {
		return nil, err
	}
	defer p.release(sessionID)

	if userText == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	return p.runExchange(ctx, sessionID, userText)
}

// runExchange is the shared back half of a traversal: commit the user turn,
// generate, commit the assistant turn, then best-effort synthesis.
func (p *Pipeline) runExchange(ctx context.Context, sessionID, userText string) (*Result, error) {
	// History snapshot precedes the new user turn: the model receives the
	// utterance once, as the query, not twice.
	history, err := p.conversations.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userTurn, err := p.conversations.AppendTurn(ctx, conversation.Turn{
		SessionID: sessionID,
		Role:      conversation.RoleUser,
		Text:      userText,
	})
	if err != nil {
		return nil, err
	}

	if p.State(sessionID) != StateGenerating {
		p.setState(sessionID, StateGenerating)
	}

	reply, err := p.chatModel.Reply(ctx, history, userText)
	if err != nil {
		// The user turn stays: the transcript shows the utterance that got
		// no response, and the untouched context lets a retry resume.
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	assistantTurn, err := p.conversations.AppendTurn(ctx, conversation.Turn{
		SessionID: sessionID,
		Role:      conversation.RoleAssistant,
		Text:      reply,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{User: userTurn, Assistant: assistantTurn}

	p.setState(sessionID, StateSynthesizing)

	synth, err := p.synthesizer.Synthesize(ctx, sessionID, reply)
	if err != nil {
		// Not surfaced as a turn failure: the reply text is already
		// committed, the traversal degrades to text-only.
		log.Printf("[pipeline] session=%s keeping text-only reply: %v", sessionID, fmt.Errorf("%w: %v", ErrSynthesis, err))
		result.SynthesisFailed = true
		return result, nil
	}

	clipID := p.clips.Put(sessionID, synth.AudioData, synth.Format)
	if err := p.conversations.AttachAudio(ctx, sessionID, assistantTurn.ID, clipID); err != nil {
		p.clips.Drop(clipID)
		log.Printf("[pipeline] attach audio failed session=%s turn=%s: %v", sessionID, assistantTurn.ID, err)
		result.SynthesisFailed = true
		return result, nil
	}

	result.Assistant.AudioID = clipID
	return result, nil
}

// Clear wipes the transcript, the derived conversation context and any
// pending clips. Clearing twice equals clearing once. Rejected while a
// traversal is in flight. The pipeline lock is held across the idle check
// and the reset, so a traversal cannot acquire in between and append into a
// transcript that is being cleared.
func (p *Pipeline) Clear(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.states[sessionID]; ok && state != StateIdle {
		return ErrTurnInProgress
	}

	if err := p.conversations.Reset(ctx, sessionID); err != nil {
		return err
	}

	p.clips.DropSession(sessionID)
	return nil
}

// Destroy removes the session, its transcript, its clips and its pipeline
// state entry. Same locking discipline as Clear.
func (p *Pipeline) Destroy(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.states[sessionID]; ok && state != StateIdle {
		return ErrTurnInProgress
	}

	if err := p.conversations.Destroy(ctx, sessionID); err != nil {
		return err
	}

	p.clips.DropSession(sessionID)
	delete(p.states, sessionID)
	return nil
}

func (p *Pipeline) acquire(sessionID string, entry State) error {
	p.mu.Lock()
	if state, ok := p.states[sessionID]; ok && state != StateIdle {
		p.mu.Unlock()
		return ErrTurnInProgress
	}
	p.states[sessionID] = entry
	p.mu.Unlock()

	if p.notify != nil {
		p.notify(sessionID, entry)
	}
	return nil
}

func (p *Pipeline) release(sessionID string) {
	p.setState(sessionID, StateIdle)
}

func (p *Pipeline) setState(sessionID string, state State) {
	p.mu.Lock()
	p.states[sessionID] = state
	p.mu.Unlock()

	if p.notify != nil {
		p.notify(sessionID, state)
	}
}
