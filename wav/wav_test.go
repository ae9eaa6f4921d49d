package wav_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/signal"
	"pipelined.dev/render/wav"
)

func sine(channels, frames int) *signal.Buffer {
	b := signal.NewBuffer(channels, frames)
	for ch := 0; ch < channels; ch++ {
		for i := 0; i < frames; i++ {
			b.SetSample(ch, i, 0.8*math.Sin(2*math.Pi*float64(i*(ch+1))/100))
		}
	}
	return b
}

func TestSinkAndLoad(t *testing.T) {
	tests := []struct {
		bitDepth int
		channels int
		frames   int
		delta    float64
	}{
		{bitDepth: 16, channels: 2, frames: 20000, delta: 1.0 / 16000},
		{bitDepth: 24, channels: 1, frames: 10001, delta: 1.0 / 4000000},
	}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "out.wav")
		in := sine(test.channels, test.frames)

		sink, err := wav.NewSink(path, test.bitDepth)
		require.NoError(t, err)
		require.NoError(t, sink.Open(44100, test.channels))
		// write in two parts to exercise appending.
		half := signal.NewBuffer(test.channels, test.frames/2)
		for ch := 0; ch < test.channels; ch++ {
			copy(half.Channel(ch), in.Channel(ch))
		}
		require.NoError(t, sink.Write(half, half.Frames()))
		rest := signal.NewBuffer(test.channels, test.frames-half.Frames())
		for ch := 0; ch < test.channels; ch++ {
			copy(rest.Channel(ch), in.Channel(ch)[half.Frames():])
		}
		require.NoError(t, sink.Write(rest, rest.Frames()))
		require.NoError(t, sink.Close())

		track, err := wav.Load(path)
		require.NoError(t, err)
		assert.Equal(t, test.channels, track.Channels())
		assert.Equal(t, 44100, track.SampleRate())
		assert.Equal(t, test.frames, track.Frames())

		out := signal.NewBuffer(test.channels, test.frames)
		assert.Equal(t, test.frames, track.ReadFrames(0, test.frames, out))
		for ch := 0; ch < test.channels; ch++ {
			assert.InDeltaSlice(t, in.Channel(ch), out.Channel(ch), test.delta)
		}
	}
}

func TestUnsupportedBitDepth(t *testing.T) {
	_, err := wav.NewSink(filepath.Join(t.TempDir(), "out.wav"), 12)
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)
}

func TestLoadMissing(t *testing.T) {
	_, err := wav.Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
