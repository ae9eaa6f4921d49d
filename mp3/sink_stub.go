//go:build !lame

package mp3

import "pipelined.dev/render/signal"

// Sink is not available without lame build tag.
type Sink struct{}

// NewSink always returns ErrLameDisabled.
func NewSink(string, int, int) (*Sink, error) {
	return nil, ErrLameDisabled
}

// Open always returns ErrLameDisabled.
func (*Sink) Open(int, int) error {
	return ErrLameDisabled
}

// Write always returns ErrLameDisabled.
func (*Sink) Write(*signal.Buffer, int) error {
	return ErrLameDisabled
}

// Close does nothing.
func (*Sink) Close() error {
	return nil
}
