package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when stream format can't be encoded.
var ErrUnsupportedFormat = errors.New("unsupported stream format")

// Kind is a numeric kind of encoded samples.
type Kind int

// Sample kinds.
const (
	Signed Kind = iota
	Unsigned
	Float
)

func (k Kind) String() string {
	switch k {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns kind by its name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "signed", "s", "int":
		return Signed, nil
	case "unsigned", "u", "uint":
		return Unsigned, nil
	case "float", "f":
		return Float, nil
	}
	return 0, fmt.Errorf("%w: kind %q", ErrUnsupportedFormat, s)
}

// ParseByteOrder returns byte order by its name.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "little", "le", "":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: byte order %q", ErrUnsupportedFormat, s)
}

// Format describes the byte layout of the stream. Samples are interleaved.
// Nil ByteOrder means little endian.
type Format struct {
	Channels   int
	SampleRate int
	BitDepth   int
	Kind       Kind
	ByteOrder  binary.ByteOrder
}

// Default returns 16-bit signed little endian format.
func Default(channels, sampleRate int) Format {
	return Format{
		Channels:   channels,
		SampleRate: sampleRate,
		BitDepth:   16,
		Kind:       Signed,
		ByteOrder:  binary.LittleEndian,
	}
}

// Validate returns error if format can't be encoded.
func (f Format) Validate() error {
	if f.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	if encoderOf(f.BitDepth, f.Kind) == nil {
		return fmt.Errorf("%w: %d-bit %v", ErrUnsupportedFormat, f.BitDepth, f.Kind)
	}
	return nil
}

// SampleSize returns size of a single sample in bytes.
func (f Format) SampleSize() int {
	return f.BitDepth / 8
}

// FrameSize returns size of a single frame in bytes.
func (f Format) FrameSize() int {
	return f.Channels * f.SampleSize()
}

func (f Format) order() binary.ByteOrder {
	if f.ByteOrder == nil {
		return binary.LittleEndian
	}
	return f.ByteOrder
}

// equal compares formats treating nil byte order as little endian.
func (f Format) equal(o Format) bool {
	return f.Channels == o.Channels &&
		f.SampleRate == o.SampleRate &&
		f.BitDepth == o.BitDepth &&
		f.Kind == o.Kind &&
		f.order() == o.order()
}

func (f Format) String() string {
	order := "le"
	if f.order() == binary.BigEndian {
		order = "be"
	}
	return fmt.Sprintf("%dch %dHz %d-bit %v %s", f.Channels, f.SampleRate, f.BitDepth, f.Kind, order)
}

// Negotiate returns preferred format if it's valid and supported. Otherwise
// the first valid supported format is returned. Empty supported list
// accepts any valid format.
func Negotiate(preferred Format, supported ...Format) (Format, error) {
	if preferred.Validate() == nil {
		if len(supported) == 0 {
			return preferred, nil
		}
		for _, s := range supported {
			if preferred.equal(s) {
				return s, nil
			}
		}
	}
	for _, s := range supported {
		if s.Validate() == nil {
			return s, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, preferred)
}
