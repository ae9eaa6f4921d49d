package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/render/graph"
	"pipelined.dev/render/internal/multierr"
	"pipelined.dev/render/log"
	"pipelined.dev/render/peaks"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/stream"
)

const (
	// DefaultBlockSize is the number of frames processed per block.
	DefaultBlockSize = 512
	// DefaultMipLevels is the number of peak cache levels.
	DefaultMipLevels = 5
)

// ErrEmptySource is returned when document source has no frames or
// channels.
var ErrEmptySource = errors.New("empty source")

type (
	// Source is the frame source of a document.
	Source interface {
		graph.Source
		SampleRate() int
	}

	// Sink receives rendered blocks.
	Sink interface {
		Write(buf *signal.Buffer, frames int) error
	}

	// Document ties a source to its peak cache, builder and processing
	// graph.
	Document struct {
		id      xid.ID
		source  Source
		cache   *peaks.Cache
		builder *peaks.Builder
		graph   *graph.Graph
		log     *logrus.Entry
		options
	}

	options struct {
		blockSize   int
		mipLevels   int
		chunkFrames int
		notifyEvery int
		notify      func()
		falloff     float64
		peakMode    bool
		effects     []*graph.Effect
		logger      *logrus.Logger
	}

	// Option configures the document.
	Option func(*options)
)

// WithBlockSize sets number of frames processed per block.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithMipLevels sets number of peak cache levels.
func WithMipLevels(n int) Option {
	return func(o *options) {
		o.mipLevels = n
	}
}

// WithChunkFrames sets number of frames read by peak builder at once.
func WithChunkFrames(n int) Option {
	return func(o *options) {
		o.chunkFrames = n
	}
}

// WithNotify sets function called when peaks changed. It's called every n
// builder chunks and once more when the build is done.
func WithNotify(every int, fn func()) Option {
	return func(o *options) {
		o.notifyEvery = every
		o.notify = fn
	}
}

// WithVU configures output meters.
func WithVU(falloff float64, peakMode bool) Option {
	return func(o *options) {
		o.falloff = falloff
		o.peakMode = peakMode
	}
}

// WithEffects inserts effects into processing graph.
func WithEffects(effects ...*graph.Effect) Option {
	return func(o *options) {
		o.effects = effects
	}
}

// WithLogger sets logger of the document.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Open creates document of the source, opens its graph and starts peak
// builder.
func Open(src Source, opts ...Option) (*Document, error) {
	o := options{
		blockSize:   DefaultBlockSize,
		mipLevels:   DefaultMipLevels,
		chunkFrames: peaks.DefaultChunkSize,
		notifyEvery: peaks.DefaultNotifyEvery,
		falloff:     graph.DefaultFalloff,
		peakMode:    true,
	}
	for _, option := range opts {
		option(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}
	if src.Frames() <= 0 || src.Channels() <= 0 {
		return nil, fmt.Errorf("%w: %d frames %d channels", ErrEmptySource, src.Frames(), src.Channels())
	}

	d := Document{
		id:      xid.New(),
		source:  src,
		options: o,
	}
	d.log = o.logger.WithFields(logrus.Fields{
		"document": d.id.String(),
	})

	out := graph.NewOutput(src.Channels())
	out.SetFalloff(o.falloff)
	out.SetPeakMode(o.peakMode)
	d.graph = graph.New(graph.NewInput(src), out, graph.WithEffects(o.effects...))
	d.graph.SetSampleRate(src.SampleRate())
	d.graph.SetBlockSize(o.blockSize)
	if err := d.graph.Open(); err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}

	d.cache = peaks.New(o.mipLevels, src.Channels(), src.SampleRate(), src.Frames())
	builderOptions := []peaks.BuilderOption{
		peaks.WithChunkSize(o.chunkFrames),
		peaks.WithNotifyEvery(o.notifyEvery),
		peaks.WithLogger(d.log),
	}
	if o.notify != nil {
		builderOptions = append(builderOptions, peaks.WithNotify(o.notify))
	}
	d.builder = peaks.NewBuilder(d.cache, src, builderOptions...)
	if d.cache.Valid() {
		if err := d.builder.Start(); err != nil {
			errs := multierr.Errors{err}
			errs.Add(d.graph.Close())
			return nil, errs.Ret()
		}
	}
	d.log.WithFields(logrus.Fields{
		"channels":   src.Channels(),
		"sampleRate": src.SampleRate(),
		"frames":     src.Frames(),
	}).Info("document opened")
	return &d, nil
}

// ID returns unique identifier of the document.
func (d *Document) ID() xid.ID {
	return d.id
}

// Source returns source of the document.
func (d *Document) Source() Source {
	return d.source
}

// Peaks returns peak cache of the document. Cache is readable while it's
// being built.
func (d *Document) Peaks() *peaks.Cache {
	return d.cache
}

// Builder returns peak builder of the document.
func (d *Document) Builder() *peaks.Builder {
	return d.builder
}

// ProcessGraph returns processing graph of the document.
func (d *Document) ProcessGraph() *graph.Graph {
	return d.graph
}

// BlockSize returns number of frames processed per block.
func (d *Document) BlockSize() int {
	return d.blockSize
}

// Play starts playback. Playback at the end of the source starts over.
func (d *Document) Play() {
	if d.source.Cursor() >= d.source.Frames() {
		d.source.SetCursor(0)
	}
	d.source.SetPlaying(true)
	d.log.Debug("play")
}

// Pause stops playback keeping the cursor.
func (d *Document) Pause() {
	d.source.SetPlaying(false)
	d.log.Debug("pause")
}

// Playing returns true if document is playing.
func (d *Document) Playing() bool {
	return d.source.Playing()
}

// Seek moves the cursor to the frame. While playing, the cursor is moved
// at the next block boundary. Error is returned only if ctx is done.
func (d *Document) Seek(ctx context.Context, frame int) error {
	if !d.source.Playing() {
		d.source.SetCursor(frame)
		return nil
	}
	in := d.graph.Input()
	return d.graph.Push(ctx, in.Mutate(func() {
		in.Source().SetCursor(frame)
	}))
}

// SetLoop enables wrap to the start at the end of the source.
func (d *Document) SetLoop(loop bool) {
	d.graph.Input().SetLoop(loop)
}

// Position returns playback position.
func (d *Document) Position() time.Duration {
	return signal.DurationOf(d.source.SampleRate(), int64(d.source.Cursor()))
}

// Duration returns duration of the source.
func (d *Document) Duration() time.Duration {
	return signal.DurationOf(d.source.SampleRate(), int64(d.source.Frames()))
}

// Stream returns stopped adapter that renders the graph in the format.
func (d *Document) Stream(format stream.Format) (*stream.Adapter, error) {
	if format.SampleRate != d.source.SampleRate() {
		d.log.Warnf("stream sample rate %d differs from source %d", format.SampleRate, d.source.SampleRate())
	}
	return stream.NewAdapter(d.graph, format, d.blockSize, d.source.Channels())
}

// Bounce renders the document from the cursor into sink until the source
// stops playing or ctx is done. Loop is disabled for the duration of the
// bounce.
func (d *Document) Bounce(ctx context.Context, sink Sink) error {
	in := d.graph.Input()
	loop := in.Loop()
	in.SetLoop(false)
	defer in.SetLoop(loop)

	d.source.SetPlaying(true)
	defer d.source.SetPlaying(false)
	buf := signal.NewBuffer(d.source.Channels(), d.blockSize)
	var rendered int64
	for d.source.Playing() {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := d.source.Cursor()
		d.graph.Process(nil, buf, d.blockSize, float64(rendered)/float64(d.source.SampleRate()))
		frames := d.source.Cursor() - before
		if frames <= 0 {
			break
		}
		if err := sink.Write(buf, frames); err != nil {
			return fmt.Errorf("write block: %w", err)
		}
		rendered += int64(frames)
	}
	d.log.WithField("frames", rendered).Debug("bounced")
	return nil
}

// Close stops peak builder and closes the graph.
func (d *Document) Close() error {
	var errs multierr.Errors
	errs.Add(d.builder.Stop())
	errs.Add(d.graph.Close())
	d.log.Info("document closed")
	return errs.Ret()
}
