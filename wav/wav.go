// Package wav loads wav files as document sources and writes rendered
// signal to wav files.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/render/signal"
	"pipelined.dev/render/source"
)

// chunkFrames is the number of frames decoded per read.
const chunkFrames = 8192

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

func supported(bitDepth int) bool {
	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	}
	return false
}

// Load decodes the whole wav file into a single-segment track.
func Load(path string) (*source.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("seek pcm: %w", err)
	}
	bitDepth := int(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	numChannels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	if numChannels == 0 || sampleRate == 0 {
		return nil, ErrInvalidFile
	}
	frames := int(decoder.PCMLen()) / (numChannels * bitDepth / 8)

	ib := &audio.IntBuffer{
		Format:         decoder.Format(),
		Data:           make([]int, chunkFrames*numChannels),
		SourceBitDepth: bitDepth,
	}
	chunk := signal.NewBuffer(numChannels, chunkFrames)
	data := signal.NewBuffer(numChannels, frames)
	pos := 0
	for pos < frames {
		n, err := decoder.PCMBuffer(ib)
		if err != nil {
			return nil, fmt.Errorf("decode %v: %w", path, err)
		}
		if n == 0 {
			break
		}
		read := chunk.ReadInts(&audio.IntBuffer{Format: ib.Format, Data: ib.Data[:n]}, bitDepth)
		if read > frames-pos {
			read = frames - pos
		}
		for ch := 0; ch < numChannels; ch++ {
			copy(data.Channel(ch)[pos:pos+read], chunk.Channel(ch)[:read])
		}
		pos += read
	}
	if pos < frames {
		// truncated file, keep what was decoded.
		trimmed := signal.NewBuffer(numChannels, pos)
		for ch := 0; ch < numChannels; ch++ {
			copy(trimmed.Channel(ch), data.Channel(ch)[:pos])
		}
		data = trimmed
	}
	return source.NewTrack(numChannels, sampleRate, source.NewClip(data)), nil
}

// Sink saves signal to wav file.
type Sink struct {
	path     string
	bitDepth int
	file     *os.File
	encoder  *wav.Encoder
	ib       *audio.IntBuffer
}

// NewSink creates new wav sink.
func NewSink(path string, bitDepth int) (*Sink, error) {
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
	}, nil
}

// Open creates the file and writes the header.
func (s *Sink) Open(sampleRate, numChannels int) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	s.file = f
	s.encoder = wav.NewEncoder(f, sampleRate, s.bitDepth, numChannels, 1)
	s.ib = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: s.bitDepth,
	}
	return nil
}

// Write appends first frames of the buffer.
func (s *Sink) Write(buf *signal.Buffer, frames int) error {
	buf.WriteInts(s.ib, frames, s.bitDepth)
	return s.encoder.Write(s.ib)
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if s.encoder == nil {
		return nil
	}
	err := s.encoder.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
