package peaks

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Peak file layout, little endian:
//
//	magic      [4]byte "RPKS"
//	version    uint32
//	channels   uint32
//	levels     uint32
//	sampleRate uint32
//	frames     uint64
//	levels times: division uint32, samples uint32
//	levels times, samples times, channels times: min, max float32
//
// Version 1 stores a single float32 per sample and channel instead of the
// min/max pair. It's decoded as {-|v|, |v|}.
const (
	fileVersionSingle = 1
	fileVersion       = 2

	// sanity limits, no real source has that many channels or levels.
	maxFileChannels = 1024
	maxFileLevels   = 64

	// initial number of samples per channel reserved while decoding.
	decodeChunk = 4096
)

var fileMagic = [4]byte{'R', 'P', 'K', 'S'}

var (
	// ErrBadMagic is returned when decoded data is not a peak file.
	ErrBadMagic = errors.New("not a peak file")
	// ErrUnsupportedVersion is returned when peak file version is unknown.
	ErrUnsupportedVersion = errors.New("unsupported peak file version")
	// ErrCorrupted is returned when peak file header is inconsistent.
	ErrCorrupted = errors.New("corrupted peak file")
)

type fileHeader struct {
	Magic      [4]byte
	Version    uint32
	Channels   uint32
	Levels     uint32
	SampleRate uint32
	Frames     uint64
}

type fileLevel struct {
	Division uint32
	Samples  uint32
}

// Encode writes the cache in the current peak file version. Only valid
// caches can be encoded.
func (c *Cache) Encode(w io.Writer) error {
	if !c.Valid() {
		return fmt.Errorf("encode: %w", ErrCorrupted)
	}
	bw := bufio.NewWriter(w)
	h := fileHeader{
		Magic:      fileMagic,
		Version:    fileVersion,
		Channels:   uint32(c.channels),
		Levels:     uint32(len(c.levels)),
		SampleRate: uint32(c.sampleRate),
		Frames:     uint64(c.frames),
	}
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}
	for _, l := range c.levels {
		fl := fileLevel{Division: uint32(l.division), Samples: uint32(l.count)}
		if err := binary.Write(bw, binary.LittleEndian, fl); err != nil {
			return err
		}
	}
	var pair [8]byte
	for _, l := range c.levels {
		for i := 0; i < l.count; i++ {
			for ch := 0; ch < c.channels; ch++ {
				s := l.Peak(ch, i)
				binary.LittleEndian.PutUint32(pair[:4], math.Float32bits(s.Min))
				binary.LittleEndian.PutUint32(pair[4:], math.Float32bits(s.Max))
				if _, err := bw.Write(pair[:]); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// Decode reads a peak file of any supported version. Returned cache is
// complete. Level storage grows with the data actually read, so a header
// can't claim more memory than the file provides.
func Decode(r io.Reader) (*Cache, error) {
	br := bufio.NewReader(r)
	var h fileHeader
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if h.Magic != fileMagic {
		return nil, ErrBadMagic
	}
	if h.Version != fileVersion && h.Version != fileVersionSingle {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Channels == 0 || h.Channels > maxFileChannels ||
		h.Levels == 0 || h.Levels > maxFileLevels ||
		h.SampleRate == 0 || h.Frames == 0 || h.Frames > math.MaxInt64 {
		return nil, ErrCorrupted
	}

	table := make([]fileLevel, h.Levels)
	for i := range table {
		fl := &table[i]
		if err := binary.Read(br, binary.LittleEndian, fl); err != nil {
			return nil, fmt.Errorf("%w: level %d: %w", ErrCorrupted, i, err)
		}
		// same dimensions as Allocate produces.
		if fl.Division == 0 || uint64(fl.Samples) != (h.Frames+uint64(fl.Division)-1)/uint64(fl.Division) {
			return nil, fmt.Errorf("%w: level %d has %d samples of %d frames", ErrCorrupted, i, fl.Samples, fl.Division)
		}
	}

	c := &Cache{
		channels:   int(h.Channels),
		sampleRate: int(h.SampleRate),
		frames:     int(h.Frames),
		levels:     make([]*Level, h.Levels),
	}
	for li, fl := range table {
		l, err := decodeLevel(br, fl, c.channels, h.Version == fileVersionSingle)
		if err != nil {
			return nil, fmt.Errorf("%w: level %d: %w", ErrCorrupted, li, err)
		}
		c.levels[li] = l
	}
	c.consumed.Store(int64(c.frames))
	return c, nil
}

// decodeLevel reads samples of a single level.
func decodeLevel(r io.Reader, fl fileLevel, channels int, single bool) (*Level, error) {
	count := int(fl.Samples)
	l := &Level{
		division: int(fl.Division),
		count:    count,
		data:     make([][]uint32, channels),
	}
	size := 2 * min(count, decodeChunk)
	for ch := range l.data {
		l.data[ch] = make([]uint32, 0, size)
	}
	var pair [8]byte
	value := pair[:8]
	if single {
		value = pair[:4]
	}
	for i := 0; i < count; i++ {
		for ch := range l.data {
			if _, err := io.ReadFull(r, value); err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
			var mn, mx uint32
			if single {
				v := float32(math.Abs(float64(math.Float32frombits(binary.LittleEndian.Uint32(value)))))
				mn, mx = math.Float32bits(-v), math.Float32bits(v)
			} else {
				mn, mx = binary.LittleEndian.Uint32(value[:4]), binary.LittleEndian.Uint32(value[4:])
			}
			l.data[ch] = append(l.data[ch], mn, mx)
		}
	}
	l.bucket = count - 1
	l.complete()
	return l, nil
}
