package source

import "pipelined.dev/render/signal"

// Clip is an in-memory segment.
type Clip struct {
	buf *signal.Buffer
}

// NewClip returns a segment backed by provided buffer. The buffer must not
// be modified afterwards.
func NewClip(buf *signal.Buffer) *Clip {
	return &Clip{buf: buf}
}

// Frames returns number of frames in the clip.
func (c *Clip) Frames() int {
	return c.buf.Frames()
}

// Buffer returns underlying buffer.
func (c *Clip) Buffer() *signal.Buffer {
	return c.buf
}

// ReadFrames implements Segment. Channels missing in the clip are left
// untouched in dst.
func (c *Clip) ReadFrames(offset, count int, dst *signal.Buffer, dstOffset int) int {
	n := clamp(offset, count, c.buf.Frames(), dst.Frames()-dstOffset)
	if n == 0 {
		return 0
	}
	channels := c.buf.Channels()
	if dst.Channels() < channels {
		channels = dst.Channels()
	}
	for ch := 0; ch < channels; ch++ {
		copy(dst.Channel(ch)[dstOffset:dstOffset+n], c.buf.Channel(ch)[offset:offset+n])
	}
	return n
}

// Silence is a segment of zero frames of provided length.
type Silence int

// Frames returns length of silence.
func (s Silence) Frames() int {
	return int(s)
}

// ReadFrames implements Segment.
func (s Silence) ReadFrames(offset, count int, dst *signal.Buffer, dstOffset int) int {
	n := clamp(offset, count, int(s), dst.Frames()-dstOffset)
	for ch := 0; ch < dst.Channels(); ch++ {
		out := dst.Channel(ch)[dstOffset : dstOffset+n]
		for i := range out {
			out[i] = 0
		}
	}
	return n
}

// clamp returns number of frames that can be copied.
func clamp(offset, count, frames, room int) int {
	if offset < 0 || offset >= frames || count <= 0 || room <= 0 {
		return 0
	}
	if left := frames - offset; count > left {
		count = left
	}
	if count > room {
		count = room
	}
	return count
}
