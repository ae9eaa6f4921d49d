package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/signal"
)

type pcm struct {
	io.Reader
	sampleRate int
}

func (p pcm) SampleRate() int {
	return p.sampleRate
}

// frames returns interleaved 16-bit stereo data where left channel is
// frame index and right is its negation.
func frames(n int) []byte {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		binary.Write(&b, binary.LittleEndian, int16(i%32767))
		binary.Write(&b, binary.LittleEndian, int16(-(i % 32767)))
	}
	return b.Bytes()
}

func TestLoad(t *testing.T) {
	const total = 2*chunkFrames + 100
	data := frames(total)
	// trailing partial frame is dropped.
	data = append(data, 0x01)
	track, err := load(pcm{Reader: bytes.NewReader(data), sampleRate: 44100})
	require.NoError(t, err)
	assert.Equal(t, 2, track.Channels())
	assert.Equal(t, 44100, track.SampleRate())
	assert.Equal(t, total, track.Frames())
	assert.Equal(t, 3, track.Segments())

	buf := signal.NewBuffer(2, 10)
	n := track.ReadFrames(chunkFrames-5, 10, buf)
	require.Equal(t, 10, n)
	for i := 0; i < n; i++ {
		v := float64(chunkFrames-5+i) / 32767
		assert.Equal(t, v, buf.Sample(0, i))
		assert.Equal(t, -v, buf.Sample(1, i))
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := load(pcm{Reader: bytes.NewReader(nil), sampleRate: 44100})
	assert.ErrorIs(t, err, ErrEmpty)

	failed := errors.New("broken frame")
	_, err = load(pcm{Reader: io.MultiReader(bytes.NewReader(frames(chunkFrames)), &failing{failed}), sampleRate: 44100})
	assert.ErrorIs(t, err, failed)

	_, err = Load("missing.mp3")
	assert.Error(t, err)
}

type failing struct {
	err error
}

func (f *failing) Read([]byte) (int, error) {
	return 0, f.err
}

func TestSinkOpenClose(t *testing.T) {
	path := t.TempDir() + "/out.mp3"
	s, err := NewSink(path, 192, 2)
	if errors.Is(err, ErrLameDisabled) {
		t.Skip(err)
	}
	require.NoError(t, err)
	require.NoError(t, s.Open(44100, 2))
	require.NoError(t, s.Write(convert(frames(1024)), 1024))
	require.NoError(t, s.Close())
}
