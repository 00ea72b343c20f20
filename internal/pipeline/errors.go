package pipeline

import "errors"

// Per-turn failures are local to the turn that raised them: handlers surface
// them to the user and the conversation stays usable. Which turns were
// committed before the failure is defined per stage in ProcessTurn.
var (
	ErrInvalidInput   = errors.New("invalid captured audio")
	ErrTranscription  = errors.New("transcription failed")
	ErrGeneration     = errors.New("reply generation failed")
	ErrSynthesis      = errors.New("speech synthesis failed")
	ErrTurnInProgress = errors.New("another turn is still being processed")
)
