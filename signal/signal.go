// Package signal provides the planar sample buffer shared by every stage of
// the renderer. It allows to:
//	- keep multi-channel float samples in planar layout
//	- reuse storage across calls without reallocation
//	- convert interleaved int data to planar floats and back
package signal

import (
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Buffer is a planar multi-channel float64 signal. Samples of each channel
// are stored contiguously in a single backing slice. The zero value is an
// empty buffer with no channels.
type Buffer struct {
	channels int
	frames   int
	data     []float64
}

// NewBuffer returns a zeroed buffer of specified dimensions.
func NewBuffer(channels, frames int) *Buffer {
	var b Buffer
	b.Create(channels, frames)
	return &b
}

// Create sizes the buffer to channels*frames samples and zero-fills it.
// If dimensions are the same as current, existing storage is reused and
// no allocation happens.
func (b *Buffer) Create(channels, frames int) {
	if channels < 0 || frames < 0 {
		panic("signal: negative buffer dimensions")
	}
	if b.channels != channels || b.frames != frames || b.data == nil {
		size := channels * frames
		if cap(b.data) >= size && b.data != nil {
			b.data = b.data[:size]
		} else {
			b.data = make([]float64, size)
		}
		b.channels, b.frames = channels, frames
	}
	b.MakeSilence()
}

// Channels returns number of channels in the buffer.
func (b *Buffer) Channels() int {
	return b.channels
}

// Frames returns number of frames in the buffer.
func (b *Buffer) Frames() int {
	return b.frames
}

// Sample returns the value at frame i of channel ch. Out-of-range access
// panics.
func (b *Buffer) Sample(ch, i int) float64 {
	return b.data[b.index(ch, i)]
}

// SetSample sets the value at frame i of channel ch. Out-of-range access
// panics.
func (b *Buffer) SetSample(ch, i int, v float64) {
	b.data[b.index(ch, i)] = v
}

func (b *Buffer) index(ch, i int) int {
	if ch < 0 || ch >= b.channels || i < 0 || i >= b.frames {
		panic("signal: sample index out of range")
	}
	return ch*b.frames + i
}

// Channel returns the planar slice of a single channel. Writes to the
// slice modify the buffer.
func (b *Buffer) Channel(ch int) []float64 {
	if ch < 0 || ch >= b.channels {
		panic("signal: channel index out of range")
	}
	return b.data[ch*b.frames : (ch+1)*b.frames]
}

// MakeSilence sets every sample to zero.
func (b *Buffer) MakeSilence() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// CopyFrom makes b an exact copy of src. Storage is reallocated only if
// dimensions differ.
func (b *Buffer) CopyFrom(src *Buffer) {
	if b.channels != src.channels || b.frames != src.frames || b.data == nil {
		b.channels, b.frames = src.channels, src.frames
		b.data = make([]float64, len(src.data))
	}
	copy(b.data, src.data)
}

// DurationOf returns time duration of passed frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// divider is used when int to float conversion is done.
func divider(bitDepth int) float64 {
	if bitDepth <= 1 || bitDepth > 32 {
		return 1
	}
	return float64(int64(1)<<uint(bitDepth-1) - 1)
}

// ReadInts converts interleaved int data into the first frames of the
// buffer. 8 bit data is treated as unsigned, as it's stored in wav files.
// Number of converted frames is returned.
func (b *Buffer) ReadInts(ib *audio.IntBuffer, bitDepth int) int {
	if ib == nil || ib.Format == nil || ib.Format.NumChannels == 0 {
		return 0
	}
	numChannels := ib.Format.NumChannels
	frames := len(ib.Data) / numChannels
	if frames > b.frames {
		frames = b.frames
	}
	d := divider(bitDepth)
	for ch := 0; ch < b.channels && ch < numChannels; ch++ {
		out := b.Channel(ch)
		for i := 0; i < frames; i++ {
			v := ib.Data[i*numChannels+ch]
			if bitDepth == 8 {
				v -= 128
			}
			out[i] = float64(v) / d
		}
	}
	return frames
}

// WriteInts interleaves first frames of the buffer into ib, scaling
// samples to the provided bit depth. Samples are clamped to [-1, 1].
// ib.Data is resized if its capacity allows, otherwise reallocated.
func (b *Buffer) WriteInts(ib *audio.IntBuffer, frames, bitDepth int) {
	if frames > b.frames {
		frames = b.frames
	}
	size := frames * b.channels
	if cap(ib.Data) >= size {
		ib.Data = ib.Data[:size]
	} else {
		ib.Data = make([]int, size)
	}
	m := divider(bitDepth)
	for ch := 0; ch < b.channels; ch++ {
		in := b.Channel(ch)
		for i := 0; i < frames; i++ {
			v := math.Max(-1, math.Min(1, in[i]))
			s := int(math.Round(v * m))
			if bitDepth == 8 {
				s += 128
			}
			ib.Data[i*b.channels+ch] = s
		}
	}
}
