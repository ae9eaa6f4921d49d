//go:build !portaudio

package device

import (
	"errors"

	"pipelined.dev/render/stream"
)

// ErrPortAudioDisabled is returned by portaudio backend when it's not
// compiled in.
var ErrPortAudioDisabled = errors.New("portaudio support not enabled (build with -tags portaudio)")

// PortAudio is a placeholder when portaudio is not compiled in.
type PortAudio struct{}

// NewPortAudio returns portaudio placeholder.
func NewPortAudio(int) *PortAudio {
	return &PortAudio{}
}

// Formats returns nil.
func (*PortAudio) Formats(stream.Format) []stream.Format {
	return nil
}

// Init returns ErrPortAudioDisabled.
func (*PortAudio) Init(stream.Format) error {
	return ErrPortAudioDisabled
}

// Start returns ErrPortAudioDisabled.
func (*PortAudio) Start(Source) error {
	return ErrPortAudioDisabled
}

// Pause returns ErrPortAudioDisabled.
func (*PortAudio) Pause() error {
	return ErrPortAudioDisabled
}

// Resume returns ErrPortAudioDisabled.
func (*PortAudio) Resume() error {
	return ErrPortAudioDisabled
}

// Stop returns ErrPortAudioDisabled.
func (*PortAudio) Stop() error {
	return ErrPortAudioDisabled
}

// Close returns ErrPortAudioDisabled.
func (*PortAudio) Close() error {
	return ErrPortAudioDisabled
}
