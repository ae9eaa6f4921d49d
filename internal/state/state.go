// Package state implements the lifecycle of an audio device context.
package state

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidState is returned if context method cannot be executed at this moment.
	ErrInvalidState = errors.New("invalid state")
)

// State identifies one of the possible states context can be in.
type State int

// states
const (
	Uninitialized State = iota // Uninitialized means that device isn't configured yet.
	Initialized                // Initialized means that format is negotiated and device can be started.
	Running                    // Running means that device pulls the stream.
	Suspended                  // Suspended means that device is paused and can be resumed.
	Stopped                    // Stopped means that stream is detached and device can be started again.
	Finalized                  // Finalized means that device is released.
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Stopped:
		return "stopped"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists target states reachable from every state.
var transitions = map[State][]State{
	Uninitialized: {Initialized, Finalized},
	Initialized:   {Running, Finalized},
	Running:       {Suspended, Stopped},
	Suspended:     {Running, Stopped},
	Stopped:       {Running, Finalized},
}

// Allowed returns true if target state is reachable from the current one.
func Allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionFunc performs the side effect of the transition. State is
// changed only if it returns nil.
type TransitionFunc func(from State) error

// Handle manages the lifecycle. Transitions are serialized, so the side
// effects of two transitions never overlap.
type Handle struct {
	mu    sync.Mutex
	state State
}

// State returns current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Transition moves handle into target state. ErrInvalidState is returned
// if target isn't reachable from the current state.
func (h *Handle) Transition(to State, fn TransitionFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !Allowed(h.state, to) {
		return fmt.Errorf("%w: %v to %v", ErrInvalidState, h.state, to)
	}
	if fn != nil {
		if err := fn(h.state); err != nil {
			return err
		}
	}
	h.state = to
	return nil
}
