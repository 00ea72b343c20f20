package audio

import (
	"bytes"
	"errors"

	"github.com/go-audio/wav"
)

var (
	ErrEmptyClip   = errors.New("captured clip is empty")
	ErrInvalidClip = errors.New("captured clip is not a decodable WAV recording")
)

// The capture widget records WAV; that container is fixed, so anything that
// does not sniff as RIFF/WAVE is rejected before any service call.
var riffMagic = []byte("RIFF")

// ValidateClip rejects empty or malformed captured audio.
func ValidateClip(clip []byte) error {
	if len(clip) == 0 {
		return ErrEmptyClip
	}

	if len(clip) < len(riffMagic) || !bytes.Equal(clip[:len(riffMagic)], riffMagic) {
		return ErrInvalidClip
	}

	dec := wav.NewDecoder(bytes.NewReader(clip))
	if !dec.IsValidFile() {
		return ErrInvalidClip
	}

	return nil
}
