package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"pipelined.dev/render/stream"
)

// ErrNotInitialized is returned when backend is used before Init.
var ErrNotInitialized = errors.New("device is not initialized")

// Oto plays the stream with github.com/ebitengine/oto/v3. Oto player
// pulls the source as an io.Reader from its own goroutine.
//
// Oto allows a single context per process, so only one Oto backend can be
// initialized.
type Oto struct {
	bufferSize time.Duration
	ctx        *oto.Context
	player     *oto.Player
}

// NewOto returns oto backend. Buffer size is the device latency, zero
// means oto default.
func NewOto(bufferSize time.Duration) *Oto {
	return &Oto{bufferSize: bufferSize}
}

// Formats returns encodings supported by oto with preferred channels and
// sample rate.
func (*Oto) Formats(preferred stream.Format) []stream.Format {
	formats := []stream.Format{
		{BitDepth: 16, Kind: stream.Signed},
		{BitDepth: 32, Kind: stream.Float},
		{BitDepth: 8, Kind: stream.Unsigned},
	}
	for i := range formats {
		formats[i].Channels = preferred.Channels
		formats[i].SampleRate = preferred.SampleRate
		formats[i].ByteOrder = binary.LittleEndian
	}
	return formats
}

func otoFormat(f stream.Format) (oto.Format, error) {
	switch {
	case f.BitDepth == 16 && f.Kind == stream.Signed:
		return oto.FormatSignedInt16LE, nil
	case f.BitDepth == 32 && f.Kind == stream.Float:
		return oto.FormatFloat32LE, nil
	case f.BitDepth == 8 && f.Kind == stream.Unsigned:
		return oto.FormatUnsignedInt8, nil
	}
	return 0, fmt.Errorf("%w: %v", stream.ErrUnsupportedFormat, f)
}

// Init creates oto context and waits until it's ready.
func (o *Oto) Init(format stream.Format) error {
	f, err := otoFormat(format)
	if err != nil {
		return err
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       f,
		BufferSize:   o.bufferSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready
	o.ctx = ctx
	return nil
}

// Start creates player reading the source and plays it.
func (o *Oto) Start(s Source) error {
	if o.ctx == nil {
		return ErrNotInitialized
	}
	o.player = o.ctx.NewPlayer(s)
	o.player.Play()
	return nil
}

// Pause pauses the player.
func (o *Oto) Pause() error {
	o.player.Pause()
	return nil
}

// Resume continues the player.
func (o *Oto) Resume() error {
	o.player.Play()
	return nil
}

// Stop closes the player.
func (o *Oto) Stop() error {
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	return err
}

// Close suspends oto context. Oto context can't be released.
func (o *Oto) Close() error {
	if o.ctx == nil {
		return nil
	}
	return o.ctx.Suspend()
}
