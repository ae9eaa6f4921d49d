// Package mock provides mocks for renderer components and allows to execute
// integration tests.
package mock

import (
	"sync"

	"pipelined.dev/render/signal"
)

// Source mocks a document source. It produces Limit frames of Value on
// every channel. Cursor and playing state are not synchronized, so the
// source should not be inspected while it's being read.
type Source struct {
	counter
	Limit       int
	NumChannels int
	Rate        int
	Value       float64
	// OnRead is called before every read.
	OnRead func(offset, count int)

	cursor  int
	playing bool
}

// Channels returns number of channels.
func (m *Source) Channels() int {
	return m.NumChannels
}

// SampleRate returns sample rate.
func (m *Source) SampleRate() int {
	return m.Rate
}

// Frames returns Limit.
func (m *Source) Frames() int {
	return m.Limit
}

// Cursor returns playback position.
func (m *Source) Cursor() int {
	return m.cursor
}

// SetCursor sets playback position.
func (m *Source) SetCursor(pos int) {
	m.cursor = pos
}

// Playing returns playing state.
func (m *Source) Playing() bool {
	return m.playing
}

// SetPlaying sets playing state.
func (m *Source) SetPlaying(p bool) {
	m.playing = p
}

// ReadFrames fills buf with Value.
func (m *Source) ReadFrames(offset, count int, buf *signal.Buffer) int {
	if m.OnRead != nil {
		m.OnRead(offset, count)
	}
	if count > buf.Frames() {
		count = buf.Frames()
	}
	if left := m.Limit - offset; count > left {
		count = left
	}
	if count <= 0 || offset < 0 {
		return 0
	}
	for ch := 0; ch < buf.Channels() && ch < m.NumChannels; ch++ {
		out := buf.Channel(ch)[:count]
		for i := range out {
			out[i] = m.Value
		}
	}
	m.advance(count)
	return count
}

// Accumulator is a spy for the peaks accumulator. It forwards calls to
// Target if it's set.
type Accumulator struct {
	sync.Mutex
	counter
	Target interface {
		AddSamples(int, *signal.Buffer)
		Consumed() int
	}
	// OnAdd is called after every accumulated chunk.
	OnAdd func(count int)
	consumed int
}

// AddSamples counts the call.
func (m *Accumulator) AddSamples(count int, buf *signal.Buffer) {
	m.Lock()
	if m.Target != nil {
		m.Target.AddSamples(count, buf)
	}
	m.consumed += count
	m.advance(count)
	m.Unlock()
	if m.OnAdd != nil {
		m.OnAdd(count)
	}
}

// Consumed returns number of accumulated frames.
func (m *Accumulator) Consumed() int {
	m.Lock()
	defer m.Unlock()
	if m.Target != nil {
		return m.Target.Consumed()
	}
	return m.consumed
}

// Count returns calls and frames metrics.
func (m *Accumulator) Count() (int, int) {
	m.Lock()
	defer m.Unlock()
	return m.counter.Count()
}

// counter counts calls and frames.
type counter struct {
	calls  int
	frames int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.calls++
	c.frames = c.frames + size
}

// Count returns calls and frames metrics.
func (c *counter) Count() (int, int) {
	return c.calls, c.frames
}

// Reset resets counter's metrics.
func (c *counter) Reset() {
	c.calls, c.frames = 0, 0
}
