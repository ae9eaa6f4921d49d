//go:build lame

package mp3

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/viert/lame"

	"pipelined.dev/render/signal"
)

// Sink encodes rendered signal to mp3 file.
type Sink struct {
	path    string
	bitRate int
	quality int
	f       *os.File
	wr      *lame.LameWriter
	data    []byte
}

// NewSink creates new mp3 sink. Quality is lame's algorithm quality
// from 0 (best) to 9.
func NewSink(path string, bitRate, quality int) (*Sink, error) {
	return &Sink{
		path:    path,
		bitRate: bitRate,
		quality: quality,
	}, nil
}

// Open creates the file and initializes the encoder.
func (s *Sink) Open(sampleRate, numChannels int) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	s.f = f
	s.wr = lame.NewWriter(f)
	s.wr.Encoder.SetBitrate(s.bitRate)
	s.wr.Encoder.SetQuality(s.quality)
	s.wr.Encoder.SetNumChannels(numChannels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()
	return nil
}

// Write encodes first frames of the buffer as interleaved 16-bit samples.
func (s *Sink) Write(buf *signal.Buffer, frames int) error {
	size := frames * buf.Channels() * 2
	if cap(s.data) < size {
		s.data = make([]byte, size)
	}
	s.data = s.data[:size]
	pos := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < buf.Channels(); ch++ {
			v := math.Max(-1, math.Min(1, buf.Sample(ch, i)))
			binary.LittleEndian.PutUint16(s.data[pos:], uint16(int16(v*math.MaxInt16)))
			pos += 2
		}
	}
	_, err := s.wr.Write(s.data)
	return err
}

// Close flushes the encoder and closes the file.
func (s *Sink) Close() error {
	if s.wr == nil {
		return nil
	}
	err := s.wr.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
