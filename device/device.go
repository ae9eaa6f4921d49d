// Package device owns the audio device that pulls rendered streams.
//
// A Context replaces a process-wide audio singleton: it's created with a
// backend, negotiates the stream format and drives a single stream adapter
// through the lifecycle
//
//	Uninitialized -> Initialized -> Running <-> Suspended -> Stopped -> Finalized
//
// Stopped context can be started again. Transitions that are not listed
// return ErrInvalidState.
package device

import (
	"errors"
	"fmt"

	"pipelined.dev/render/internal/state"
	"pipelined.dev/render/log"
	"pipelined.dev/render/stream"
)

// States of the context.
const (
	Uninitialized = state.Uninitialized
	Initialized   = state.Initialized
	Running       = state.Running
	Suspended     = state.Suspended
	Stopped       = state.Stopped
	Finalized     = state.Finalized
)

var (
	// ErrInvalidState is returned when context transition is not allowed.
	ErrInvalidState = state.ErrInvalidState
	// ErrFormatMismatch is returned when adapter format differs from the
	// negotiated one.
	ErrFormatMismatch = errors.New("adapter format mismatch")
)

type (
	// Source is pulled by the device. It's implemented by stream.Adapter.
	// Implementations must never block.
	Source interface {
		Read(p []byte) (int, error)
		Fill(p []byte)
	}

	// Backend is a platform audio output.
	Backend interface {
		// Formats returns supported formats closest to the preferred one.
		// Nil means any valid format.
		Formats(preferred stream.Format) []stream.Format
		// Init prepares device for the format.
		Init(stream.Format) error
		// Start begins pulling the source.
		Start(Source) error
		// Pause stops pulling without detaching the source.
		Pause() error
		// Resume continues pulling after pause.
		Resume() error
		// Stop stops pulling and detaches the source.
		Stop() error
		// Close releases the device.
		Close() error
	}

	// Context is an audio device context.
	Context struct {
		handle  state.Handle
		backend Backend
		format  stream.Format
		adapter *stream.Adapter
		log     log.Logger
	}

	// Option configures the context.
	Option func(*Context)
)

// WithLogger sets logger of the context.
func WithLogger(l log.Logger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// New returns uninitialized context of the backend.
func New(backend Backend, options ...Option) *Context {
	c := Context{
		backend: backend,
		log:     log.Silent(),
	}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// State returns current state of the context.
func (c *Context) State() state.State {
	return c.handle.State()
}

// Format returns negotiated format. It's valid after Init.
func (c *Context) Format() stream.Format {
	return c.format
}

// Adapter returns adapter that is pulled by the device.
func (c *Context) Adapter() *stream.Adapter {
	return c.adapter
}

// Init negotiates the format with the backend and initializes the device.
func (c *Context) Init(preferred stream.Format) (stream.Format, error) {
	err := c.handle.Transition(Initialized, func(state.State) error {
		format, err := stream.Negotiate(preferred, c.backend.Formats(preferred)...)
		if err != nil {
			return err
		}
		if err := c.backend.Init(format); err != nil {
			return fmt.Errorf("init device: %w", err)
		}
		c.format = format
		return nil
	})
	if err != nil {
		return stream.Format{}, err
	}
	c.log.Info("device initialized: ", c.format)
	return c.format, nil
}

// Start attaches adapter and starts the device. Adapter must have the
// negotiated format.
func (c *Context) Start(a *stream.Adapter) error {
	err := c.handle.Transition(Running, func(from state.State) error {
		if from == Suspended {
			return fmt.Errorf("%w: use resume", ErrInvalidState)
		}
		if a.Format() != c.format {
			return fmt.Errorf("%w: %v != %v", ErrFormatMismatch, a.Format(), c.format)
		}
		a.Start()
		if err := c.backend.Start(a); err != nil {
			a.Stop()
			return fmt.Errorf("start device: %w", err)
		}
		c.adapter = a
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Debug("device started")
	return nil
}

// Suspend pauses the device.
func (c *Context) Suspend() error {
	return c.handle.Transition(Suspended, func(state.State) error {
		return c.backend.Pause()
	})
}

// Resume continues the suspended device.
func (c *Context) Resume() error {
	return c.handle.Transition(Running, func(from state.State) error {
		if from != Suspended {
			return fmt.Errorf("%w: %v to %v", ErrInvalidState, from, Running)
		}
		return c.backend.Resume()
	})
}

// Stop stops the device and detaches the adapter.
func (c *Context) Stop() error {
	err := c.handle.Transition(Stopped, func(state.State) error {
		c.adapter.Stop()
		if err := c.backend.Stop(); err != nil {
			return fmt.Errorf("stop device: %w", err)
		}
		c.adapter = nil
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Debug("device stopped")
	return nil
}

// Close releases the device. Running context must be stopped first.
func (c *Context) Close() error {
	return c.handle.Transition(Finalized, func(from state.State) error {
		if from == Uninitialized {
			return nil
		}
		return c.backend.Close()
	})
}
