package stream

import (
	"encoding/binary"
	"math"
)

// encodeFunc writes a single sample x in [-1, 1] into b.
type encodeFunc func(order binary.ByteOrder, b []byte, x float64)

func encoderOf(bitDepth int, kind Kind) encodeFunc {
	switch {
	case bitDepth == 8 && kind == Unsigned:
		return encodeUint8
	case bitDepth == 8 && kind == Signed:
		return encodeInt8
	case bitDepth == 16 && kind == Unsigned:
		return encodeUint16
	case bitDepth == 16 && kind == Signed:
		return encodeInt16
	case bitDepth == 32 && kind == Unsigned:
		return encodeUint32
	case bitDepth == 32 && kind == Signed:
		return encodeInt32
	case bitDepth == 32 && kind == Float:
		return encodeFloat32
	case bitDepth == 64 && kind == Float:
		return encodeFloat64
	}
	return nil
}

func encodeUint8(_ binary.ByteOrder, b []byte, x float64) {
	b[0] = uint8(math.Round((1 + x) / 2 * math.MaxUint8))
}

func encodeInt8(_ binary.ByteOrder, b []byte, x float64) {
	b[0] = uint8(int8(math.Round(x * math.MaxInt8)))
}

func encodeUint16(order binary.ByteOrder, b []byte, x float64) {
	order.PutUint16(b, uint16(math.Round((1+x)/2*math.MaxUint16)))
}

func encodeInt16(order binary.ByteOrder, b []byte, x float64) {
	order.PutUint16(b, uint16(int16(math.Round(x*math.MaxInt16))))
}

func encodeUint32(order binary.ByteOrder, b []byte, x float64) {
	order.PutUint32(b, uint32(math.Round((1+x)*0.5*(1<<31))))
}

func encodeInt32(order binary.ByteOrder, b []byte, x float64) {
	v := math.Round(x * (1 << 31))
	if v > math.MaxInt32 {
		v = math.MaxInt32
	}
	order.PutUint32(b, uint32(int32(v)))
}

func encodeFloat32(order binary.ByteOrder, b []byte, x float64) {
	order.PutUint32(b, math.Float32bits(float32(x)))
}

func encodeFloat64(order binary.ByteOrder, b []byte, x float64) {
	order.PutUint64(b, math.Float64bits(x))
}

// clamp limits x to [-1, 1].
func clamp(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	}
	return x
}
