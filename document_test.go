package render_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/render"
	"pipelined.dev/render/graph"
	"pipelined.dev/render/peaks"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/source"
	"pipelined.dev/render/stream"
)

const sampleRate = 44100

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// track returns a stereo track of constant value made of two clips and
// a silence between them.
func track(value float64, frames int) *source.Track {
	clip := func(n int) *source.Clip {
		buf := signal.NewBuffer(2, n)
		for ch := 0; ch < 2; ch++ {
			for i := range buf.Channel(ch) {
				buf.Channel(ch)[i] = value
			}
		}
		return source.NewClip(buf)
	}
	half := frames / 2
	return source.NewTrack(2, sampleRate, clip(half-100), source.Silence(100), clip(frames-half))
}

// collector is a sink that keeps number of written frames.
type collector struct {
	frames int
	last   float64
}

func (c *collector) Write(buf *signal.Buffer, frames int) error {
	c.frames += frames
	c.last = buf.Sample(0, frames-1)
	return nil
}

func TestOpen(t *testing.T) {
	var notifications atomic.Int32
	src := track(0.5, 2*sampleRate)
	doc, err := render.Open(src,
		render.WithMipLevels(3),
		render.WithChunkFrames(1024),
		render.WithNotify(10, func() { notifications.Add(1) }),
	)
	require.NoError(t, err)
	assert.False(t, doc.ID().IsNil())
	assert.Equal(t, src, doc.Source())
	assert.Equal(t, render.DefaultBlockSize, doc.BlockSize())
	assert.Equal(t, 2*time.Second, doc.Duration())

	require.NoError(t, doc.Builder().Wait())
	cache := doc.Peaks()
	assert.True(t, cache.Complete())
	assert.Equal(t, 3, cache.Levels())
	l := cache.Level(1)
	assert.Equal(t, peaks.Division(1, sampleRate), l.Division())
	assert.Equal(t, peaks.Sample{Min: 0.5, Max: 0.5}, l.Peak(0, 0))
	assert.Equal(t, l.Len(), l.Written())
	// 87 chunks: 8 periodic notifications and the final one.
	assert.Equal(t, int32(9), notifications.Load())

	nodes := doc.ProcessGraph().Nodes()
	require.Len(t, nodes, 2)
	require.NoError(t, doc.Close())
}

func TestOpenEmpty(t *testing.T) {
	_, err := render.Open(source.NewTrack(2, sampleRate))
	assert.ErrorIs(t, err, render.ErrEmptySource)
}

func TestTransport(t *testing.T) {
	src := track(0.25, sampleRate)
	doc, err := render.Open(src, render.WithBlockSize(100))
	require.NoError(t, err)
	defer doc.Close()
	g := doc.ProcessGraph()
	buf := signal.NewBuffer(2, 100)

	// paused document renders silence.
	g.Process(nil, buf, 100, 0)
	assert.Equal(t, 0.0, buf.Sample(0, 0))
	assert.False(t, doc.Playing())

	require.NoError(t, doc.Seek(context.Background(), 1000))
	assert.Equal(t, 1000, src.Cursor())
	doc.Play()
	assert.True(t, doc.Playing())
	g.Process(nil, buf, 100, 0)
	assert.Equal(t, 0.25, buf.Sample(1, 99))
	assert.Equal(t, 1100, src.Cursor())

	// seek while playing is applied at the next block.
	require.NoError(t, doc.Seek(context.Background(), 5000))
	assert.Equal(t, 1100, src.Cursor())
	g.Process(nil, buf, 100, 0)
	assert.Equal(t, 5100, src.Cursor())
	assert.Equal(t, signal.DurationOf(sampleRate, 5100), doc.Position())

	doc.Pause()
	g.Process(nil, buf, 100, 0)
	assert.Equal(t, 5100, src.Cursor())

	// loop wraps the cursor.
	doc.SetLoop(true)
	require.NoError(t, doc.Seek(context.Background(), sampleRate-50))
	doc.Play()
	g.Process(nil, buf, 100, 0)
	assert.Equal(t, 50, src.Cursor())
	assert.Equal(t, 0.25, buf.Sample(0, 99))
	assert.True(t, doc.Playing())

	// play at the end starts over.
	doc.SetLoop(false)
	doc.Pause()
	require.NoError(t, doc.Seek(context.Background(), sampleRate))
	doc.Play()
	assert.Equal(t, 0, src.Cursor())
}

func TestStream(t *testing.T) {
	src := track(0.5, sampleRate)
	doc, err := render.Open(src, render.WithBlockSize(64))
	require.NoError(t, err)
	defer doc.Close()

	a, err := doc.Stream(stream.Default(2, sampleRate))
	require.NoError(t, err)
	assert.Equal(t, 64, a.BlockSize())
	p := make([]byte, 4*10)
	a.Fill(p)
	assert.Equal(t, make([]byte, len(p)), p)

	a.Start()
	doc.Play()
	// first block is still served from the stopped adapter.
	a.Fill(make([]byte, 4*54))
	a.Fill(p)
	// 0.5 is 16384 in 16-bit signed.
	assert.Equal(t, []byte{0x00, 0x40, 0x00, 0x40}, p[:4])
	assert.Equal(t, 64, src.Cursor())
}

func TestBounce(t *testing.T) {
	src := track(-0.5, sampleRate+10)
	invert := graph.NewInvert()
	doc, err := render.Open(src, render.WithBlockSize(256), render.WithEffects(invert))
	require.NoError(t, err)
	defer doc.Close()
	doc.SetLoop(true)

	var sink collector
	require.NoError(t, doc.Bounce(context.Background(), &sink))
	assert.Equal(t, sampleRate+10, sink.frames)
	assert.Equal(t, 0.5, sink.last)
	assert.False(t, doc.Playing())
	assert.True(t, doc.ProcessGraph().Input().Loop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src.SetCursor(0)
	assert.ErrorIs(t, doc.Bounce(ctx, &sink), context.Canceled)
}

func TestOutputMeters(t *testing.T) {
	src := track(0.8, sampleRate)
	doc, err := render.Open(src, render.WithBlockSize(128), render.WithVU(100, false))
	require.NoError(t, err)
	defer doc.Close()

	out := doc.ProcessGraph().Output()
	out.SetParameter(graph.Gain, 0.75)
	doc.Play()
	buf := signal.NewBuffer(2, 128)
	doc.ProcessGraph().Process(nil, buf, 128, 0)
	// rms mode meters squared values.
	assert.InDelta(t, 1.2*1.2, out.VU(0), 1e-9)
	assert.True(t, out.Clipped())
}
