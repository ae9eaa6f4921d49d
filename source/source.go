// Package source provides the frame source of a document: an ordered list
// of segments with a playback cursor.
package source

import (
	"sync/atomic"

	"pipelined.dev/render/signal"
)

type (
	// Segment is a contiguous run of frames. ReadFrames copies up to count
	// frames starting at offset into dst at dstOffset and returns the number
	// of frames copied.
	Segment interface {
		Frames() int
		ReadFrames(offset, count int, dst *signal.Buffer, dstOffset int) int
	}

	// Track is a source built of ordered segments. Cursor and playing state
	// are safe to access from the control and audio goroutines.
	Track struct {
		channels   int
		sampleRate int
		segments   []Segment
		// starts[i] is the first frame of segments[i].
		starts []int
		frames int

		cursor  atomic.Int64
		playing atomic.Bool
	}
)

// NewTrack returns a track of provided segments. The segment list is fixed
// for the lifetime of the track.
func NewTrack(channels, sampleRate int, segments ...Segment) *Track {
	t := &Track{
		channels:   channels,
		sampleRate: sampleRate,
		segments:   segments,
		starts:     make([]int, len(segments)),
	}
	for i, s := range segments {
		t.starts[i] = t.frames
		t.frames += s.Frames()
	}
	return t
}

// Channels returns number of channels.
func (t *Track) Channels() int {
	return t.channels
}

// SampleRate returns sample rate.
func (t *Track) SampleRate() int {
	return t.sampleRate
}

// Frames returns total number of frames.
func (t *Track) Frames() int {
	return t.frames
}

// Segments returns number of segments.
func (t *Track) Segments() int {
	return len(t.segments)
}

// Cursor returns the playback position.
func (t *Track) Cursor() int {
	return int(t.cursor.Load())
}

// SetCursor sets the playback position. It's clamped to track bounds.
func (t *Track) SetCursor(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > t.frames {
		pos = t.frames
	}
	t.cursor.Store(int64(pos))
}

// Playing returns true if the track is playing.
func (t *Track) Playing() bool {
	return t.playing.Load()
}

// SetPlaying sets playing state.
func (t *Track) SetPlaying(p bool) {
	t.playing.Store(p)
}

// ReadFrames copies up to count frames starting at offset into the
// beginning of buf. It reads across segment boundaries and returns number
// of frames read. Zero is returned at the end of the track. It doesn't
// allocate.
func (t *Track) ReadFrames(offset, count int, buf *signal.Buffer) int {
	if count > buf.Frames() {
		count = buf.Frames()
	}
	if offset < 0 || offset >= t.frames || count <= 0 {
		return 0
	}
	read := 0
	for i := t.segment(offset); i < len(t.segments) && read < count; i++ {
		local := offset + read - t.starts[i]
		want := count - read
		if left := t.segments[i].Frames() - local; left < want {
			want = left
		}
		if want <= 0 {
			continue
		}
		n := t.segments[i].ReadFrames(local, want, buf, read)
		read += n
		// short read means the segment failed, stop normally.
		if n < want {
			break
		}
	}
	return read
}

// segment returns index of the segment that contains frame pos.
func (t *Track) segment(pos int) int {
	lo, hi := 0, len(t.starts)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if t.starts[mid] <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}
