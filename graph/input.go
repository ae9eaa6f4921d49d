package graph

import (
	"sync/atomic"

	"pipelined.dev/render/signal"
)

// Source is read by the input node. Cursor and playing state are shared
// between the control and audio goroutines, so implementations must make
// them safe for concurrent access.
type Source interface {
	Channels() int
	Frames() int
	Cursor() int
	SetCursor(pos int)
	Playing() bool
	SetPlaying(bool)
	ReadFrames(offset, count int, buf *signal.Buffer) int
}

// Input reads the playing source into the block.
type Input struct {
	base
	source Source
	loop   atomic.Bool
	// reads after the wrap, sized to the block.
	scratch atomic.Pointer[signal.Buffer]
}

// NewInput returns input node reading provided source.
func NewInput(source Source) *Input {
	in := Input{source: source}
	in.init(nil, nil)
	return &in
}

// Source returns the source of the node.
func (n *Input) Source() Source {
	return n.source
}

// SetLoop enables cursor wrap at the end of the source.
func (n *Input) SetLoop(loop bool) {
	n.loop.Store(loop)
}

// Loop returns true if looping is enabled.
func (n *Input) Loop() bool {
	return n.loop.Load()
}

// SetBlockSize sets block size and allocates the buffer used to continue
// the block from the start of the source when looping.
func (n *Input) SetBlockSize(blockSize int) {
	n.base.SetBlockSize(blockSize)
	if blockSize > 0 {
		n.scratch.Store(signal.NewBuffer(n.source.Channels(), blockSize))
	}
}

// Process reads frames at the cursor and advances it. At the end of the
// source it either stops playing or wraps the cursor to the start and
// continues the block from there. The rest of the block is left untouched
// when the source runs out.
func (n *Input) Process(_, out *signal.Buffer, frames int, _ float64) {
	src := n.source
	if !src.Playing() {
		return
	}
	total := src.Frames()
	loop := n.loop.Load() && total > 0
	pos := src.Cursor()
	if loop && pos >= total {
		pos = 0
	}
	read := src.ReadFrames(pos, frames, out)
	if read == 0 {
		src.SetPlaying(false)
		return
	}
	pos += read
	for filled := read; pos >= total; {
		if !loop {
			src.SetPlaying(false)
			break
		}
		pos = 0
		scratch := n.scratch.Load()
		if filled >= frames || scratch == nil {
			break
		}
		r := src.ReadFrames(0, min(frames-filled, scratch.Frames()), scratch)
		if r == 0 {
			src.SetPlaying(false)
			break
		}
		for ch := 0; ch < min(out.Channels(), scratch.Channels()); ch++ {
			copy(out.Channel(ch)[filled:filled+r], scratch.Channel(ch)[:r])
		}
		filled += r
		pos = r
	}
	src.SetCursor(pos)
}
