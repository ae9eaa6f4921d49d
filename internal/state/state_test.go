package state_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/internal/state"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		path  []state.State
		valid bool
	}{
		{path: []state.State{state.Initialized, state.Running, state.Suspended, state.Running, state.Stopped, state.Finalized}, valid: true},
		{path: []state.State{state.Initialized, state.Running, state.Stopped, state.Running, state.Stopped}, valid: true},
		{path: []state.State{state.Finalized}, valid: true},
		{path: []state.State{state.Running}, valid: false},
		{path: []state.State{state.Initialized, state.Suspended}, valid: false},
		{path: []state.State{state.Initialized, state.Running, state.Finalized}, valid: false},
		{path: []state.State{state.Initialized, state.Finalized, state.Initialized}, valid: false},
		{path: []state.State{state.Initialized, state.Initialized}, valid: false},
	}
	for _, test := range tests {
		var (
			h   state.Handle
			err error
		)
		for _, s := range test.path {
			if err = h.Transition(s, nil); err != nil {
				break
			}
		}
		if test.valid {
			assert.NoError(t, err, "%v", test.path)
			assert.Equal(t, test.path[len(test.path)-1], h.State())
		} else {
			assert.ErrorIs(t, err, state.ErrInvalidState, "%v", test.path)
		}
	}
}

func TestTransitionFailed(t *testing.T) {
	var h state.Handle
	failed := errors.New("device failed")
	err := h.Transition(state.Initialized, func(from state.State) error {
		assert.Equal(t, state.Uninitialized, from)
		return failed
	})
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, state.Uninitialized, h.State())

	require.NoError(t, h.Transition(state.Initialized, func(state.State) error { return nil }))
	assert.Equal(t, state.Initialized, h.State())
	assert.Equal(t, "initialized", h.State().String())
}
