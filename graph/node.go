package graph

import (
	"math"
	"sync/atomic"

	"pipelined.dev/render/mutable"
	"pipelined.dev/render/signal"
)

// Node is a processing step of the graph. The set of nodes is closed:
// Input, Effect and Output are the only implementations.
//
// Process is called from the audio goroutine. Parameter, suspend and
// lifecycle methods are called from the control goroutine.
type Node interface {
	// Process transforms out in place. Only first frames of out are
	// processed.
	Process(in, out *signal.Buffer, frames int, streamTime float64)
	ParameterCount() int
	ParameterName(i int) string
	// Parameter returns raw value of the i-th parameter.
	Parameter(i int) float64
	SetParameter(i int, v float64)
	Open() error
	Close() error
	// Suspend increments suspend counter. Suspended nodes are skipped.
	Suspend()
	// Resume decrements suspend counter, it never goes below zero.
	Resume()
	Suspended() bool
	SetSampleRate(sampleRate int)
	SetBlockSize(blockSize int)
	// Mutability returns context that mutations of the node are bound to.
	Mutability() mutable.Context
	node() *base
}

// base is embedded into every node.
type base struct {
	mutable.Context
	params     []parameter
	suspended  atomic.Int32
	sampleRate atomic.Int64
	blockSize  atomic.Int64
}

type parameter struct {
	name string
	bits atomic.Uint64
}

// init allocates parameters with their default values.
func (b *base) init(names []string, defaults []float64) {
	b.Context = mutable.Mutable()
	b.params = make([]parameter, len(names))
	for i := range b.params {
		b.params[i].name = names[i]
		b.params[i].bits.Store(math.Float64bits(defaults[i]))
	}
}

func (b *base) node() *base {
	return b
}

// Mutability returns mutable context of the node.
func (b *base) Mutability() mutable.Context {
	return b.Context
}

// ParameterCount returns number of node parameters.
func (b *base) ParameterCount() int {
	return len(b.params)
}

// ParameterName returns name of the i-th parameter.
func (b *base) ParameterName(i int) string {
	return b.params[i].name
}

// Parameter returns raw value of the i-th parameter.
func (b *base) Parameter(i int) float64 {
	return math.Float64frombits(b.params[i].bits.Load())
}

// SetParameter sets raw value of the i-th parameter. The value is picked
// up by the next processed block.
func (b *base) SetParameter(i int, v float64) {
	b.params[i].bits.Store(math.Float64bits(v))
}

// Open is a no-op by default.
func (b *base) Open() error {
	return nil
}

// Close is a no-op by default.
func (b *base) Close() error {
	return nil
}

// Suspend increments suspend counter.
func (b *base) Suspend() {
	b.suspended.Add(1)
}

// Resume decrements suspend counter.
func (b *base) Resume() {
	resume(&b.suspended)
}

// Suspended returns true if suspend counter is positive.
func (b *base) Suspended() bool {
	return b.suspended.Load() > 0
}

// SetSampleRate sets sample rate of the node.
func (b *base) SetSampleRate(sampleRate int) {
	b.sampleRate.Store(int64(sampleRate))
}

// SampleRate returns sample rate of the node.
func (b *base) SampleRate() int {
	return int(b.sampleRate.Load())
}

// SetBlockSize sets maximum number of frames per processed block.
func (b *base) SetBlockSize(blockSize int) {
	b.blockSize.Store(int64(blockSize))
}

// BlockSize returns maximum number of frames per processed block.
func (b *base) BlockSize() int {
	return int(b.blockSize.Load())
}

// resume decrements counter but never below zero.
func resume(counter *atomic.Int32) {
	for {
		v := counter.Load()
		if v <= 0 {
			return
		}
		if counter.CompareAndSwap(v, v-1) {
			return
		}
	}
}
