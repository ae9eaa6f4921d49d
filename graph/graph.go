// Package graph implements the processing graph of a document.
//
// The graph is an ordered list of nodes: an input node reading the
// document source, any number of effects and an output node. Every block
// all nodes transform the same buffer in place, so the output of a node is
// the input of the next one.
//
// Process is called from the audio goroutine and never blocks or
// allocates. Everything else is called from a single control goroutine.
// Changes that are not a single parameter write are done either with
// mutations or between Suspend and Resume calls.
package graph

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"pipelined.dev/render/internal/multierr"
	"pipelined.dev/render/metric"
	"pipelined.dev/render/mutable"
	"pipelined.dev/render/signal"
)

// ErrNotSuspended is returned when node list is changed while graph is
// running.
var ErrNotSuspended = errors.New("graph is not suspended")

type (
	// Graph processes blocks of the document.
	Graph struct {
		input  *Input
		output *Output
		nodes  []Node

		suspended atomic.Int32
		// busy is set while a block is processed.
		busy atomic.Int32

		mutations chan mutable.Mutations
		meter     metric.ResetFunc
		measure   atomic.Pointer[metric.MeasureFunc]
	}

	// Option configures the graph.
	Option func(*Graph)
)

// WithEffects inserts effects between input and output nodes.
func WithEffects(effects ...*Effect) Option {
	return func(g *Graph) {
		g.nodes = g.nodes[:1]
		for _, e := range effects {
			g.nodes = append(g.nodes, e)
		}
		g.nodes = append(g.nodes, g.output)
	}
}

// New returns graph with provided input and output nodes.
func New(in *Input, out *Output, options ...Option) *Graph {
	g := Graph{
		input:     in,
		output:    out,
		nodes:     []Node{in, out},
		mutations: make(chan mutable.Mutations, 1),
	}
	for _, option := range options {
		option(&g)
	}
	g.meter = metric.Meter(&g)
	g.resetMeter(out.SampleRate())
	return &g
}

// Input returns input node.
func (g *Graph) Input() *Input {
	return g.input
}

// Output returns output node.
func (g *Graph) Output() *Output {
	return g.output
}

// Nodes returns nodes in processing order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Process clears out and runs every node that is not suspended on the
// first frames of it. Suspended graph outputs silence. Pending mutations
// are applied before nodes are processed.
func (g *Graph) Process(in, out *signal.Buffer, frames int, streamTime float64) {
	g.busy.Store(1)
	defer g.busy.Store(0)
	out.MakeSilence()
	if g.suspended.Load() > 0 {
		return
	}
	started := time.Now()
	if frames > out.Frames() {
		frames = out.Frames()
	}
	select {
	case ms := <-g.mutations:
		for _, n := range g.nodes {
			ms.ApplyTo(n.Mutability())
		}
	default:
	}
	for _, n := range g.nodes {
		if n.Suspended() {
			continue
		}
		n.Process(in, out, frames, streamTime)
	}
	(*g.measure.Load())(frames, started)
}

// Push sends mutations to the audio goroutine. A set that is still pending
// is taken back and merged with the new one, so Push doesn't wait for the
// next block. Mutations are applied in the order they were pushed, at the
// start of the next block that isn't suspended.
func (g *Graph) Push(ctx context.Context, mutations ...mutable.Mutation) error {
	var ms mutable.Mutations
	for _, m := range mutations {
		ms = ms.Put(m)
	}
	if ms == nil {
		return nil
	}
	for {
		select {
		case g.mutations <- ms:
			return nil
		case pending := <-g.mutations:
			ms = pending.Append(ms)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Suspend increments suspend counter of the graph and waits until the
// block that is being processed, if any, is done. Suspended graph doesn't
// access its nodes.
//
// Suspend and Resume are not a general purpose lock. They are safe only
// when both are called from the same control goroutine that changes the
// graph.
func (g *Graph) Suspend() {
	g.suspended.Add(1)
	for g.busy.Load() != 0 {
		runtime.Gosched()
	}
}

// Resume decrements suspend counter of the graph, it never goes below
// zero.
func (g *Graph) Resume() {
	resume(&g.suspended)
}

// Suspended returns true if the graph is suspended.
func (g *Graph) Suspended() bool {
	return g.suspended.Load() > 0
}

// SetEffects replaces effects of the graph. Graph must be suspended.
func (g *Graph) SetEffects(effects ...*Effect) error {
	if !g.Suspended() {
		return ErrNotSuspended
	}
	WithEffects(effects...)(g)
	return nil
}

// SetSampleRate propagates sample rate to every node.
func (g *Graph) SetSampleRate(sampleRate int) {
	for _, n := range g.nodes {
		n.SetSampleRate(sampleRate)
	}
	g.resetMeter(sampleRate)
}

// SetBlockSize propagates block size to every node.
func (g *Graph) SetBlockSize(blockSize int) {
	for _, n := range g.nodes {
		n.SetBlockSize(blockSize)
	}
}

// Open calls open hook of every node. If any node fails, nodes that were
// opened are closed.
func (g *Graph) Open() error {
	for i, n := range g.nodes {
		if err := n.Open(); err != nil {
			var errs multierr.Errors
			errs.Add(err)
			for j := i - 1; j >= 0; j-- {
				errs.Add(g.nodes[j].Close())
			}
			return errs.Ret()
		}
	}
	g.resetMeter(g.output.SampleRate())
	return nil
}

// Close calls close hook of every node and returns all errors.
func (g *Graph) Close() error {
	var errs multierr.Errors
	for _, n := range g.nodes {
		errs.Add(n.Close())
	}
	return errs.Ret()
}

func (g *Graph) resetMeter(sampleRate int) {
	measure := g.meter(sampleRate)
	g.measure.Store(&measure)
}
