package device_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/render/device"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// counter counts processed blocks.
type counter struct {
	blocks atomic.Int64
}

func (c *counter) Process(_, out *signal.Buffer, frames int, _ float64) {
	c.blocks.Add(1)
}

func newAdapter(t *testing.T, r stream.Renderer, f stream.Format) *stream.Adapter {
	t.Helper()
	a, err := stream.NewAdapter(r, f, 64, 2)
	require.NoError(t, err)
	return a
}

func TestLifecycle(t *testing.T) {
	null := device.NewNull(32, time.Millisecond)
	ctx := device.New(null)
	assert.Equal(t, device.Uninitialized, ctx.State())

	f, err := ctx.Init(stream.Default(2, 44100))
	require.NoError(t, err)
	assert.Equal(t, device.Initialized, ctx.State())
	assert.Equal(t, f, ctx.Format())

	r := &counter{}
	a := newAdapter(t, r, f)
	require.NoError(t, ctx.Start(a))
	assert.Equal(t, device.Running, ctx.State())
	assert.True(t, a.Running())
	assert.Equal(t, a, ctx.Adapter())
	require.Eventually(t, func() bool {
		return r.blocks.Load() > 2
	}, time.Second, time.Millisecond)

	require.NoError(t, ctx.Suspend())
	assert.Equal(t, device.Suspended, ctx.State())
	pulled := null.Pulled()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, pulled, null.Pulled())

	require.NoError(t, ctx.Resume())
	require.Eventually(t, func() bool {
		return null.Pulled() > pulled
	}, time.Second, time.Millisecond)

	require.NoError(t, ctx.Stop())
	assert.Equal(t, device.Stopped, ctx.State())
	assert.False(t, a.Running())
	assert.Nil(t, ctx.Adapter())

	// stopped context can be started again.
	require.NoError(t, ctx.Start(newAdapter(t, r, f)))
	require.NoError(t, ctx.Stop())

	require.NoError(t, ctx.Close())
	assert.Equal(t, device.Finalized, ctx.State())
}

func TestInvalidTransitions(t *testing.T) {
	ctx := device.New(device.NewNull(32, time.Millisecond))
	f := stream.Default(2, 44100)
	a := newAdapter(t, &counter{}, f)

	assert.ErrorIs(t, ctx.Start(a), device.ErrInvalidState)
	assert.ErrorIs(t, ctx.Suspend(), device.ErrInvalidState)
	assert.ErrorIs(t, ctx.Stop(), device.ErrInvalidState)

	_, err := ctx.Init(f)
	require.NoError(t, err)
	_, err = ctx.Init(f)
	assert.ErrorIs(t, err, device.ErrInvalidState)
	assert.ErrorIs(t, ctx.Resume(), device.ErrInvalidState)

	require.NoError(t, ctx.Start(a))
	assert.ErrorIs(t, ctx.Resume(), device.ErrInvalidState)
	assert.ErrorIs(t, ctx.Start(a), device.ErrInvalidState)
	assert.ErrorIs(t, ctx.Close(), device.ErrInvalidState)

	require.NoError(t, ctx.Suspend())
	assert.ErrorIs(t, ctx.Start(a), device.ErrInvalidState)
	assert.Equal(t, device.Suspended, ctx.State())

	require.NoError(t, ctx.Stop())
	require.NoError(t, ctx.Close())
	assert.ErrorIs(t, ctx.Close(), device.ErrInvalidState)
}

func TestFormatMismatch(t *testing.T) {
	ctx := device.New(device.NewNull(32, time.Millisecond))
	_, err := ctx.Init(stream.Default(2, 44100))
	require.NoError(t, err)

	a := newAdapter(t, &counter{}, stream.Default(2, 48000))
	assert.ErrorIs(t, ctx.Start(a), device.ErrFormatMismatch)
	assert.Equal(t, device.Initialized, ctx.State())
	assert.False(t, a.Running())
	require.NoError(t, ctx.Close())
}

// failing backend returns err from every call.
type failing struct {
	device.Null
	err error
}

func (f *failing) Init(stream.Format) error {
	return f.err
}

func TestBackendFailure(t *testing.T) {
	failed := errors.New("no device")
	ctx := device.New(&failing{err: failed})
	_, err := ctx.Init(stream.Default(2, 44100))
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, device.Uninitialized, ctx.State())

	// pull buffer must hold frames.
	empty := device.New(device.NewNull(0, 0))
	_, err = empty.Init(stream.Default(2, 44100))
	assert.ErrorIs(t, err, stream.ErrInvalidBlockSize)
	assert.Equal(t, device.Uninitialized, empty.State())
	require.NoError(t, empty.Close())

	// unsupported preferred format.
	_, err = ctx.Init(stream.Format{Channels: 2, SampleRate: 44100, BitDepth: 24})
	assert.ErrorIs(t, err, stream.ErrUnsupportedFormat)
	require.NoError(t, ctx.Close())
}

func TestPortAudioNegotiation(t *testing.T) {
	formats := device.NewPortAudio(256).Formats(stream.Default(2, 48000))
	if formats == nil {
		t.Skip("portaudio is not compiled in")
	}
	f, err := stream.Negotiate(stream.Default(2, 48000), formats...)
	require.NoError(t, err)
	assert.Equal(t, stream.Float, f.Kind)
	assert.Equal(t, 32, f.BitDepth)
	assert.Equal(t, 48000, f.SampleRate)
}

func TestOtoNegotiation(t *testing.T) {
	preferred := stream.Default(1, 22050)
	f, err := stream.Negotiate(preferred, device.NewOto(0).Formats(preferred)...)
	require.NoError(t, err)
	assert.Equal(t, preferred, f)

	preferred.BitDepth = 64
	preferred.Kind = stream.Float
	f, err = stream.Negotiate(preferred, device.NewOto(0).Formats(preferred)...)
	require.NoError(t, err)
	assert.Equal(t, 16, f.BitDepth)
	assert.Equal(t, 22050, f.SampleRate)
}
