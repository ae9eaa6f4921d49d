// Package mp3 loads mp3 files as document sources. Encoding rendered
// signal to mp3 requires libmp3lame and the lame build tag.
package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"pipelined.dev/render/signal"
	"pipelined.dev/render/source"
)

const (
	// decoded stream is always 16-bit stereo.
	numChannels = 2
	frameSize   = numChannels * 2
	chunkFrames = 8192
)

var (
	// ErrEmpty is returned when file has no decoded frames.
	ErrEmpty = errors.New("mp3 has no frames")
	// ErrLameDisabled is returned by sink when binary is built without
	// lame tag.
	ErrLameDisabled = errors.New("mp3 encoding requires lame build tag")
)

// decoder is a source of decoded 16-bit little endian stereo bytes.
type decoder interface {
	io.Reader
	SampleRate() int
}

// Load decodes the whole mp3 file into a track. Decoded track is always
// stereo, every 8192 frames are stored in a separate segment.
func Load(path string) (*source.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", path, err)
	}
	return load(d)
}

func load(d decoder) (*source.Track, error) {
	var segments []source.Segment
	raw := make([]byte, chunkFrames*frameSize)
	for {
		n, err := io.ReadFull(d, raw)
		if frames := n / frameSize; frames > 0 {
			segments = append(segments, source.NewClip(convert(raw[:frames*frameSize])))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	if len(segments) == 0 {
		return nil, ErrEmpty
	}
	return source.NewTrack(numChannels, d.SampleRate(), segments...), nil
}

// convert returns planar buffer of interleaved 16-bit samples.
func convert(raw []byte) *signal.Buffer {
	frames := len(raw) / frameSize
	buf := signal.NewBuffer(numChannels, frames)
	for ch := 0; ch < numChannels; ch++ {
		out := buf.Channel(ch)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(raw[i*frameSize+ch*2:]))
			out[i] = float64(v) / 32767
		}
	}
	return buf
}
