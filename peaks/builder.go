package peaks

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"pipelined.dev/render/log"
	"pipelined.dev/render/signal"
)

const (
	// DefaultChunkSize is the number of frames read per iteration.
	DefaultChunkSize = 4096
	// DefaultNotifyEvery is the number of chunks between notifications.
	DefaultNotifyEvery = 100
)

// ErrBuilding is returned when the build is started while another one is
// still running.
var ErrBuilding = errors.New("peaks build in progress")

type (
	// Reader is the source of frames for the builder. ReadFrames fills buf
	// from the first frame and returns the number of frames read. Zero
	// means there's nothing more to read.
	Reader interface {
		Channels() int
		ReadFrames(offset, count int, buf *signal.Buffer) int
	}

	// Accumulator consumes frames read by the builder. Cache implements it.
	Accumulator interface {
		AddSamples(count int, buf *signal.Buffer)
		Consumed() int
	}

	// Builder fills the cache in a background goroutine. At most one build
	// is running at a time. Cancellation is cooperative: the flag is polled
	// once per chunk and the progress made so far is kept, so the next
	// Start resumes where the previous build stopped.
	Builder struct {
		target      Accumulator
		source      Reader
		chunkSize   int
		notifyEvery int
		notify      func()
		log         log.Logger
		buf         *signal.Buffer

		building  atomic.Bool
		cancelled atomic.Bool
		g         *errgroup.Group
	}

	// BuilderOption provides a way to set functional parameters to builder.
	BuilderOption func(*Builder)
)

// WithChunkSize sets number of frames read per iteration.
func WithChunkSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithNotifyEvery sets number of chunks between notifications.
func WithNotifyEvery(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.notifyEvery = n
		}
	}
}

// WithNotify sets the function called when peaks have changed. It's
// called from the builder goroutine and must not block for long.
func WithNotify(fn func()) BuilderOption {
	return func(b *Builder) {
		b.notify = fn
	}
}

// WithLogger sets logger to the builder.
func WithLogger(l log.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// NewBuilder returns a builder that reads source and accumulates frames
// into target.
func NewBuilder(target Accumulator, source Reader, options ...BuilderOption) *Builder {
	b := &Builder{
		target:      target,
		source:      source,
		chunkSize:   DefaultChunkSize,
		notifyEvery: DefaultNotifyEvery,
		notify:      func() {},
		log:         log.Silent(),
	}
	for _, option := range options {
		option(b)
	}
	b.buf = signal.NewBuffer(source.Channels(), b.chunkSize)
	return b
}

// Start runs the build in a new goroutine. ErrBuilding is returned if the
// previous build is still running.
func (b *Builder) Start() error {
	if !b.building.CompareAndSwap(false, true) {
		return ErrBuilding
	}
	// previous goroutine has already reported completion, join it.
	if b.g != nil {
		b.g.Wait()
	}
	b.cancelled.Store(false)
	b.g = &errgroup.Group{}
	b.g.Go(func() error {
		defer b.building.Store(false)
		b.run()
		return nil
	})
	return nil
}

// Cancel requests the running build to stop. It doesn't wait.
func (b *Builder) Cancel() {
	b.cancelled.Store(true)
}

// Wait blocks until the build goroutine is done.
func (b *Builder) Wait() error {
	if b.g == nil {
		return nil
	}
	return b.g.Wait()
}

// Stop cancels the build and waits for it to finish. The cache and the
// source can be released after Stop returns.
func (b *Builder) Stop() error {
	b.Cancel()
	return b.Wait()
}

// Building returns true while the build goroutine is running.
func (b *Builder) Building() bool {
	return b.building.Load()
}

func (b *Builder) run() {
	pos := b.target.Consumed()
	b.log.Debug("peaks build started at frame ", pos)
	chunks := 0
	for !b.cancelled.Load() {
		n := b.source.ReadFrames(pos, b.chunkSize, b.buf)
		if n == 0 || b.cancelled.Load() {
			break
		}
		b.target.AddSamples(n, b.buf)
		pos += n
		chunks++
		if chunks%b.notifyEvery == 0 {
			b.notify()
		}
	}
	b.notify()
	if b.cancelled.Load() {
		b.log.Debug("peaks build cancelled at frame ", pos)
		return
	}
	b.log.Debug("peaks build done at frame ", pos)
}
