package peaks_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/render/mock"
	"pipelined.dev/render/peaks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBuild(t *testing.T) {
	const chunkSize = 512
	source := &mock.Source{
		Limit:       250*chunkSize + 100,
		NumChannels: 2,
		Rate:        44100,
		Value:       0.25,
	}
	cache := peaks.New(4, 2, source.Rate, source.Limit)
	var notifications atomic.Int32
	b := peaks.NewBuilder(cache, source,
		peaks.WithChunkSize(chunkSize),
		peaks.WithNotifyEvery(100),
		peaks.WithNotify(func() { notifications.Add(1) }),
	)
	require.NoError(t, b.Start())
	require.NoError(t, b.Wait())

	assert.False(t, b.Building())
	assert.True(t, cache.Complete())
	// 251 chunks: two periodic notifications and the final one.
	assert.Equal(t, int32(3), notifications.Load())
	for i := 0; i < cache.Levels(); i++ {
		l := cache.Level(i)
		assert.Equal(t, l.Len(), l.Written())
		assert.Equal(t, peaks.Sample{Min: 0.25, Max: 0.25}, l.Peak(1, l.Len()-1))
	}

	// complete cache is not rebuilt.
	require.NoError(t, b.Start())
	require.NoError(t, b.Wait())
	calls, _ := source.Count()
	assert.Equal(t, 251, calls)
}

func TestBuildInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once atomic.Bool
	source := &mock.Source{
		Limit:       10 * 4096,
		NumChannels: 1,
		Rate:        8000,
		OnRead: func(int, int) {
			if once.CompareAndSwap(false, true) {
				close(started)
				<-release
			}
		},
	}
	cache := peaks.New(3, 1, source.Rate, source.Limit)
	b := peaks.NewBuilder(cache, source)
	require.NoError(t, b.Start())
	<-started
	assert.True(t, b.Building())
	assert.ErrorIs(t, b.Start(), peaks.ErrBuilding)
	close(release)
	require.NoError(t, b.Wait())
	assert.True(t, cache.Complete())
}

func TestBuildCancel(t *testing.T) {
	// 10 seconds source.
	source := &mock.Source{
		Limit:       10 * 44100,
		NumChannels: 1,
		Rate:        44100,
	}
	cache := peaks.New(4, 1, source.Rate, source.Limit)
	var (
		b             *peaks.Builder
		cancelled     atomic.Bool
		afterCancel   atomic.Int32
		notifications atomic.Int32
	)
	spy := &mock.Accumulator{
		Target: cache,
		OnAdd: func(int) {
			if cancelled.Load() {
				afterCancel.Add(1)
				return
			}
			b.Cancel()
			cancelled.Store(true)
		},
	}
	b = peaks.NewBuilder(spy, source, peaks.WithNotify(func() { notifications.Add(1) }))
	require.NoError(t, b.Start())
	require.NoError(t, b.Wait())

	assert.False(t, b.Building())
	assert.Equal(t, int32(0), afterCancel.Load())
	calls, frames := spy.Count()
	assert.Equal(t, 1, calls)
	assert.Equal(t, peaks.DefaultChunkSize, frames)
	assert.Equal(t, int32(1), notifications.Load())
	assert.False(t, cache.Complete())
	assert.Equal(t, peaks.DefaultChunkSize, cache.Consumed())
}

func TestBuildResume(t *testing.T) {
	source := &mock.Source{
		Limit:       20 * 1024,
		NumChannels: 1,
		Rate:        44100,
		Value:       -0.5,
	}
	cache := peaks.New(2, 1, source.Rate, source.Limit)
	b := peaks.NewBuilder(cache, source, peaks.WithChunkSize(1024))

	var reads atomic.Int32
	source.OnRead = func(int, int) {
		if reads.Add(1) == 5 {
			b.Cancel()
		}
	}
	require.NoError(t, b.Start())
	require.NoError(t, b.Wait())
	assert.Equal(t, 4*1024, cache.Consumed())

	source.OnRead = nil
	require.NoError(t, b.Start())
	require.NoError(t, b.Wait())
	assert.True(t, cache.Complete())
	l := cache.Level(0)
	for i := 0; i < l.Len(); i++ {
		assert.Equal(t, peaks.Sample{Min: -0.5, Max: -0.5}, l.Peak(0, i))
	}
}

func TestConcurrentReaders(t *testing.T) {
	source := &mock.Source{
		Limit:       200 * 4096,
		NumChannels: 2,
		Rate:        48000,
		Value:       0.5,
	}
	cache := peaks.New(5, 2, source.Rate, source.Limit)
	b := peaks.NewBuilder(cache, source)
	require.NoError(t, b.Start())
	l := cache.Level(0)
	for b.Building() {
		written := l.Written()
		for i := 0; i < written; i++ {
			require.Equal(t, peaks.Sample{Min: 0.5, Max: 0.5}, l.Peak(0, i))
		}
	}
	require.NoError(t, b.Wait())
	assert.True(t, cache.Complete())
}
