package signal_test

import (
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/render/signal"
)

func TestCreateIsSilent(t *testing.T) {
	tests := []struct {
		channels int
		frames   int
	}{
		{0, 0},
		{1, 0},
		{0, 16},
		{1, 1},
		{2, 512},
		{8, 3},
	}
	for _, test := range tests {
		b := signal.NewBuffer(test.channels, test.frames)
		assert.Equal(t, test.channels, b.Channels())
		assert.Equal(t, test.frames, b.Frames())
		for ch := 0; ch < test.channels; ch++ {
			for i := 0; i < test.frames; i++ {
				assert.Equal(t, 0.0, b.Sample(ch, i))
			}
		}
	}
}

func TestCreateReusesStorage(t *testing.T) {
	b := signal.NewBuffer(2, 64)
	before := &b.Channel(0)[0]
	b.SetSample(1, 10, 0.5)

	b.Create(2, 64)
	assert.Same(t, before, &b.Channel(0)[0])
	assert.Equal(t, 0.0, b.Sample(1, 10), "create must zero-fill")

	allocs := testing.AllocsPerRun(100, func() {
		b.Create(2, 64)
	})
	assert.Equal(t, 0.0, allocs)
}

func TestMakeSilence(t *testing.T) {
	b := signal.NewBuffer(3, 100)
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < 100; i++ {
			b.SetSample(ch, i, float64(ch*100+i)+0.25)
		}
	}
	b.MakeSilence()
	for ch := 0; ch < 3; ch++ {
		for _, v := range b.Channel(ch) {
			assert.Equal(t, 0.0, v)
		}
	}
}

func TestOutOfRangePanics(t *testing.T) {
	b := signal.NewBuffer(2, 4)
	assert.Panics(t, func() { b.Sample(2, 0) })
	assert.Panics(t, func() { b.Sample(0, 4) })
	assert.Panics(t, func() { b.SetSample(-1, 0, 1) })
	assert.Panics(t, func() { b.Channel(5) })
}

func TestCopyFrom(t *testing.T) {
	src := signal.NewBuffer(2, 3)
	src.SetSample(0, 0, 1)
	src.SetSample(1, 2, -1)

	t.Run("different dimensions", func(t *testing.T) {
		dst := signal.NewBuffer(1, 10)
		dst.CopyFrom(src)
		assert.Equal(t, 2, dst.Channels())
		assert.Equal(t, 3, dst.Frames())
		assert.Equal(t, 1.0, dst.Sample(0, 0))
		assert.Equal(t, -1.0, dst.Sample(1, 2))
	})
	t.Run("same dimensions", func(t *testing.T) {
		dst := signal.NewBuffer(2, 3)
		before := &dst.Channel(0)[0]
		dst.CopyFrom(src)
		assert.Same(t, before, &dst.Channel(0)[0])
		assert.Equal(t, -1.0, dst.Sample(1, 2))
		allocs := testing.AllocsPerRun(100, func() {
			dst.CopyFrom(src)
		})
		assert.Equal(t, 0.0, allocs)
	})
}

func TestReadInts(t *testing.T) {
	tests := []struct {
		ints     []int
		channels int
		bitDepth int
		frames   int
		expected [][]float64
	}{
		{
			ints:     []int{math.MaxInt16, -math.MaxInt16, 0, math.MaxInt16},
			channels: 2,
			bitDepth: 16,
			frames:   2,
			expected: [][]float64{{1, 0}, {-1, 1}},
		},
		{
			ints:     []int{255, 128, 1},
			channels: 1,
			bitDepth: 8,
			frames:   3,
			expected: [][]float64{{1, 0, -1}},
		},
		{
			ints:     []int{1 << 22, 1 << 22, 1 << 22},
			channels: 1,
			bitDepth: 24,
			frames:   2,
			expected: [][]float64{{float64(1<<22) / 8388607, float64(1<<22) / 8388607}},
		},
	}
	for _, test := range tests {
		b := signal.NewBuffer(test.channels, test.frames)
		ib := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: test.channels},
			Data:   test.ints,
		}
		n := b.ReadInts(ib, test.bitDepth)
		assert.Equal(t, test.frames, n)
		for ch := range test.expected {
			assert.InDeltaSlice(t, test.expected[ch], b.Channel(ch), 1e-12)
		}
	}
}

func TestWriteInts(t *testing.T) {
	b := signal.NewBuffer(2, 2)
	b.SetSample(0, 0, 1)
	b.SetSample(1, 0, -2)
	b.SetSample(0, 1, 0.5)

	ib := &audio.IntBuffer{}
	b.WriteInts(ib, 2, 16)
	assert.Equal(t, []int{math.MaxInt16, -math.MaxInt16, 16384, 0}, ib.Data)

	b.WriteInts(ib, 1, 8)
	assert.Equal(t, []int{255, 1}, ib.Data)
}
