package device

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"pipelined.dev/render/stream"
)

// Null is a headless backend. It pulls the source from its own goroutine
// at a fixed period and discards the bytes.
type Null struct {
	frames int
	period time.Duration

	format stream.Format
	buf    []byte
	source Source
	pulled atomic.Int64

	cancel context.CancelFunc
	g      *errgroup.Group
}

// NewNull returns backend that pulls frames every period. Zero period
// means real time.
func NewNull(frames int, period time.Duration) *Null {
	return &Null{
		frames: frames,
		period: period,
	}
}

// Formats accepts any format.
func (*Null) Formats(stream.Format) []stream.Format {
	return nil
}

// Init allocates pull buffer. Number of frames per pull must be positive.
func (n *Null) Init(format stream.Format) error {
	if n.frames <= 0 || n.period < 0 {
		return fmt.Errorf("%w: %d frames every %v", stream.ErrInvalidBlockSize, n.frames, n.period)
	}
	n.format = format
	n.buf = make([]byte, n.frames*format.FrameSize())
	if n.period == 0 {
		n.period = time.Duration(n.frames) * time.Second / time.Duration(format.SampleRate)
	}
	return nil
}

// Start begins pulling the source.
func (n *Null) Start(s Source) error {
	n.source = s
	n.start()
	return nil
}

// Pause stops pulling.
func (n *Null) Pause() error {
	return n.stop()
}

// Resume continues pulling.
func (n *Null) Resume() error {
	n.start()
	return nil
}

// Stop stops pulling and detaches the source.
func (n *Null) Stop() error {
	err := n.stop()
	n.source = nil
	return err
}

// Close is a no-op.
func (*Null) Close() error {
	return nil
}

// Pulled returns number of bytes pulled from the source.
func (n *Null) Pulled() int64 {
	return n.pulled.Load()
}

func (n *Null) start() {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.g, ctx = errgroup.WithContext(ctx)
	source, buf := n.source, n.buf
	ticker := time.NewTicker(n.period)
	n.g.Go(func() error {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				source.Fill(buf)
				n.pulled.Add(int64(len(buf)))
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func (n *Null) stop() error {
	if n.cancel == nil {
		return nil
	}
	n.cancel()
	n.cancel = nil
	return n.g.Wait()
}
