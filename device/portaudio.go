//go:build portaudio

package device

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gordonklaus/portaudio"

	"pipelined.dev/render/stream"
)

// PortAudio plays the stream with the default portaudio output device.
// Portaudio calls back with float32 buffers, so the stream is always
// encoded as 32-bit float.
type PortAudio struct {
	frames  int
	format  stream.Format
	stream  *portaudio.Stream
	source  Source
	scratch []byte
}

// NewPortAudio returns portaudio backend with provided frames per callback.
// Zero lets portaudio choose.
func NewPortAudio(frames int) *PortAudio {
	return &PortAudio{frames: frames}
}

// Formats returns 32-bit float format of preferred layout.
func (*PortAudio) Formats(preferred stream.Format) []stream.Format {
	return []stream.Format{{
		Channels:   preferred.Channels,
		SampleRate: preferred.SampleRate,
		BitDepth:   32,
		Kind:       stream.Float,
		ByteOrder:  binary.LittleEndian,
	}}
}

// Init initializes portaudio and opens default stream.
func (p *PortAudio) Init(format stream.Format) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	p.format = format
	// callback can request up to this many frames when frames is zero.
	size := p.frames
	if size == 0 {
		size = 8192
	}
	p.scratch = make([]byte, size*format.FrameSize())
	s, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), p.frames, p.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}
	p.stream = s
	return nil
}

// callback decodes pulled bytes into the device buffer. It's called from
// the portaudio thread.
func (p *PortAudio) callback(out []float32) {
	src := p.source
	if src == nil || len(out)*4 > len(p.scratch) {
		for i := range out {
			out[i] = 0
		}
		return
	}
	b := p.scratch[:len(out)*4]
	src.Fill(b)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
}

// Start starts the stream.
func (p *PortAudio) Start(s Source) error {
	if p.stream == nil {
		return ErrNotInitialized
	}
	p.source = s
	return p.stream.Start()
}

// Pause stops the stream.
func (p *PortAudio) Pause() error {
	return p.stream.Stop()
}

// Resume starts the stream.
func (p *PortAudio) Resume() error {
	return p.stream.Start()
}

// Stop stops the stream and detaches the source.
func (p *PortAudio) Stop() error {
	err := p.stream.Stop()
	p.source = nil
	return err
}

// Close closes the stream and terminates portaudio.
func (p *PortAudio) Close() error {
	if err := p.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
