// Package stream serializes rendered blocks into the byte layout of an
// audio device.
package stream

import (
	"errors"
	"fmt"
	"sync/atomic"

	"pipelined.dev/render/signal"
)

// ErrInvalidBlockSize is returned when adapter is created with
// non-positive block or channel size.
var ErrInvalidBlockSize = errors.New("invalid block size")

// Renderer renders blocks of frames. It's implemented by graph.Graph.
type Renderer interface {
	Process(in, out *signal.Buffer, frames int, streamTime float64)
}

// Adapter pulls fixed-size blocks from the renderer and serves them as
// bytes of any requested size. Frames can be split across pulls.
//
// Read and Fill must be called from a single audio goroutine. They never
// block or allocate. Start and Stop can be called from any goroutine.
type Adapter struct {
	renderer Renderer
	format   Format
	encode   encodeFunc
	// mapping[j] is the source channel of destination channel j.
	mapping []int
	block   *signal.Buffer
	data    []byte
	// cursor is a read position in data.
	cursor  int
	running atomic.Bool
	frames  atomic.Int64
}

// NewAdapter returns stopped adapter. Source channels is the number of
// channels rendered by the renderer; extra destination channels repeat
// the last source channel.
func NewAdapter(r Renderer, format Format, blockSize, sourceChannels int) (*Adapter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if blockSize <= 0 || sourceChannels <= 0 {
		return nil, fmt.Errorf("%w: %d frames %d channels", ErrInvalidBlockSize, blockSize, sourceChannels)
	}
	mapping := make([]int, format.Channels)
	for j := range mapping {
		mapping[j] = min(sourceChannels-1, j)
	}
	data := make([]byte, blockSize*format.FrameSize())
	return &Adapter{
		renderer: r,
		format:   format,
		encode:   encoderOf(format.BitDepth, format.Kind),
		mapping:  mapping,
		block:    signal.NewBuffer(sourceChannels, blockSize),
		data:     data,
		cursor:   len(data),
	}, nil
}

// Format returns stream format.
func (a *Adapter) Format() Format {
	return a.format
}

// BlockSize returns number of frames rendered per block.
func (a *Adapter) BlockSize() int {
	return a.block.Frames()
}

// Start enables rendering. The block that is being served is finished
// first.
func (a *Adapter) Start() {
	a.running.Store(true)
}

// Stop disables rendering. Stopped adapter serves silence codes of the
// format after the current block.
func (a *Adapter) Stop() {
	a.running.Store(false)
}

// Running returns true if adapter is started.
func (a *Adapter) Running() bool {
	return a.running.Load()
}

// Frames returns number of frames rendered while running.
func (a *Adapter) Frames() int64 {
	return a.frames.Load()
}

// Read fills p with encoded frames. It always fills p completely and never
// returns an error.
func (a *Adapter) Read(p []byte) (int, error) {
	a.Fill(p)
	return len(p), nil
}

// Fill fills p with encoded frames.
func (a *Adapter) Fill(p []byte) {
	for n := 0; n < len(p); {
		if a.cursor == len(a.data) {
			a.render()
		}
		c := copy(p[n:], a.data[a.cursor:])
		n += c
		a.cursor += c
	}
}

// render encodes the next block into data.
func (a *Adapter) render() {
	frames := a.block.Frames()
	if a.running.Load() {
		rendered := a.frames.Load()
		a.renderer.Process(nil, a.block, frames, float64(rendered)/float64(a.format.SampleRate))
		a.frames.Store(rendered + int64(frames))
	} else {
		a.block.MakeSilence()
	}

	order := a.format.order()
	size := a.format.SampleSize()
	off := 0
	for i := 0; i < frames; i++ {
		for _, ch := range a.mapping {
			a.encode(order, a.data[off:off+size], clamp(a.block.Channel(ch)[i]))
			off += size
		}
	}
	a.cursor = 0
}
