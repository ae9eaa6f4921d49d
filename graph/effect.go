package graph

import (
	"pipelined.dev/render/signal"
)

type (
	// Effect is a node that transforms the block with a processing
	// function.
	Effect struct {
		base
		name    string
		process ProcessFunc
		open    HookFunc
		close   HookFunc
	}

	// ProcessFunc processes first frames of the block in place. It's
	// called from the audio goroutine and must not block or allocate.
	ProcessFunc func(e *Effect, out *signal.Buffer, frames int)

	// HookFunc is a lifecycle hook of the effect.
	HookFunc func() error

	// Param declares effect parameter.
	Param struct {
		Name    string
		Default float64
	}

	// EffectOption configures effect lifecycle hooks.
	EffectOption func(*Effect)
)

// OnOpen sets hook called when effect is opened.
func OnOpen(fn HookFunc) EffectOption {
	return func(e *Effect) {
		e.open = fn
	}
}

// OnClose sets hook called when effect is closed.
func OnClose(fn HookFunc) EffectOption {
	return func(e *Effect) {
		e.close = fn
	}
}

// NewEffect returns effect node with provided parameters.
func NewEffect(name string, fn ProcessFunc, params []Param, options ...EffectOption) *Effect {
	e := Effect{
		name:    name,
		process: fn,
	}
	names := make([]string, len(params))
	defaults := make([]float64, len(params))
	for i, p := range params {
		names[i] = p.Name
		defaults[i] = p.Default
	}
	e.init(names, defaults)
	for _, option := range options {
		option(&e)
	}
	return &e
}

// Name returns effect name.
func (e *Effect) Name() string {
	return e.name
}

// Process calls processing function of the effect.
func (e *Effect) Process(_, out *signal.Buffer, frames int, _ float64) {
	e.process(e, out, frames)
}

// Open calls open hook if it's set.
func (e *Effect) Open() error {
	if e.open != nil {
		return e.open()
	}
	return nil
}

// Close calls close hook if it's set.
func (e *Effect) Close() error {
	if e.close != nil {
		return e.close()
	}
	return nil
}

// NewGain returns effect that multiplies every sample by its "gain"
// parameter.
func NewGain(gain float64) *Effect {
	return NewEffect("gain", processGain, []Param{{Name: "gain", Default: gain}})
}

func processGain(e *Effect, out *signal.Buffer, frames int) {
	gain := e.Parameter(0)
	if gain == 1 {
		return
	}
	for ch := 0; ch < out.Channels(); ch++ {
		data := out.Channel(ch)[:frames]
		for i := range data {
			data[i] *= gain
		}
	}
}

// NewInvert returns effect that flips polarity of every sample.
func NewInvert() *Effect {
	return NewEffect("invert", processInvert, nil)
}

func processInvert(_ *Effect, out *signal.Buffer, frames int) {
	for ch := 0; ch < out.Channels(); ch++ {
		data := out.Channel(ch)[:frames]
		for i := range data {
			data[i] = -data[i]
		}
	}
}
