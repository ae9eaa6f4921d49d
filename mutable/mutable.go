// Package mutable provides types to change processing nodes at block
// boundaries.
//
// Nodes run in the audio goroutine. Changes that can't be expressed as a
// single atomic parameter write are sent there as mutations: closures bound
// to the mutable context of a node. The graph applies them right before the
// node processes its next block, so nodes never observe a half-done change
// and no lock is taken on the audio path.
package mutable

import (
	"crypto/rand"
)

// zero value for context is immutable.
var immutable Context

type (
	// Context identifies a mutable node.
	Context [16]byte

	// Mutation is a mutator function bound to a certain context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations is a set of mutator functions mapped to their contexts.
	Mutations map[Context][]MutatorFunc

	// MutatorFunc mutates the node. It's executed in the audio goroutine
	// and must not block.
	MutatorFunc func()
)

// Mutable returns new mutable context.
func Mutable() Context {
	var id [16]byte
	rand.Read(id[:])
	return id
}

// Mutate binds provided mutator to the context. It panics if the context
// is immutable.
func (c Context) Mutate(m MutatorFunc) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		mutator: m,
	}
}

// Apply mutator function.
func (m Mutation) Apply() {
	m.mutator()
}

// Put mutation to the set. Nil set is allocated.
func (ms Mutations) Put(m Mutation) Mutations {
	if m.Context == immutable {
		return ms
	}
	if ms == nil {
		return map[Context][]MutatorFunc{m.Context: {m.mutator}}
	}
	ms[m.Context] = append(ms[m.Context], m.mutator)
	return ms
}

// ApplyTo executes mutators defined for the context in the order they were
// put and removes them from the set.
func (ms Mutations) ApplyTo(c Context) {
	if ms == nil || c == immutable {
		return
	}
	if fns, ok := ms[c]; ok {
		for _, fn := range fns {
			fn()
		}
		delete(ms, c)
	}
}

// Append another set to this one. Mutators of the source go after the
// ones already in the set.
func (ms Mutations) Append(source Mutations) Mutations {
	if ms == nil {
		ms = make(map[Context][]MutatorFunc, len(source))
	}
	for c, fns := range source {
		ms[c] = append(ms[c], fns...)
	}
	return ms
}
