// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package fsm defines a generic, finite state machine driven by a declarative
// transition table. An event may only fire from one of the states it lists,
// and always lands in a single destination state.
package fsm

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrFsmEventNotFound     = errors.New("event not found in transition table")
	ErrFsmInvalidTransition = errors.New("invalid state transition")
)

type Stringer interface {
	String() string
}

// Event describes a single entry of the transition table. Events are matched
// by the value returned from their String method.
type Event[E, T Stringer] struct {
	Typ  E
	From []T
	To   T
}

// CurrentState is the state the machine is in, along with the event that
// brought it there. SourceEvent is the zero value for the start state.
type CurrentState[E, T Stringer] struct {
	State       T
	SourceEvent E
}

type Transition[E, T Stringer] struct {
	From  T
	To    T
	Event E
}

type Opt[E, T Stringer] func(f *Fsm[E, T])

// WithTrackedTransitions keeps a log of every transition executed, for tests.
func WithTrackedTransitions[E, T Stringer]() Opt[E, T] {
	return func(f *Fsm[E, T]) {
		f.trackTransitions = true
	}
}

type Fsm[E, T Stringer] struct {
	lock                sync.RWMutex
	curr                *CurrentState[E, T]
	validTransitions    map[string]map[string]bool
	destinations        map[string]T
	trackTransitions    bool
	transitionsExecuted []*Transition[E, T]
}

func New[E, T Stringer](startState T, transitions []*Event[E, T], opts ...Opt[E, T]) (*Fsm[E, T], error) {
	if len(transitions) == 0 {
		return nil, errors.New("no transitions provided")
	}
	f := &Fsm[E, T]{
		curr:             &CurrentState[E, T]{State: startState},
		validTransitions: make(map[string]map[string]bool, len(transitions)),
		destinations:     make(map[string]T, len(transitions)),
	}
	for _, o := range opts {
		o(f)
	}
	for _, tr := range transitions {
		name := tr.Typ.String()
		if _, ok := f.validTransitions[name]; ok {
			return nil, fmt.Errorf("event %s defined more than once", name)
		}
		if len(tr.From) == 0 {
			return nil, fmt.Errorf("event %s has no source states", name)
		}
		from := make(map[string]bool, len(tr.From))
		for _, s := range tr.From {
			from[s.String()] = true
		}
		f.validTransitions[name] = from
		f.destinations[name] = tr.To
	}
	return f, nil
}

func (f *Fsm[E, T]) Current() *CurrentState[E, T] {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return &CurrentState[E, T]{State: f.curr.State, SourceEvent: f.curr.SourceEvent}
}

// Can reports whether the event could fire from the current state.
func (f *Fsm[E, T]) Can(event E) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	from, ok := f.validTransitions[event.String()]
	return ok && from[f.curr.State.String()]
}

// Do fires an event, moving the machine to the event's destination state.
func (f *Fsm[E, T]) Do(event E) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	name := event.String()
	from, ok := f.validTransitions[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFsmEventNotFound, name)
	}
	if !from[f.curr.State.String()] {
		return fmt.Errorf(
			"%w: cannot %s from state %s",
			ErrFsmInvalidTransition,
			name,
			f.curr.State,
		)
	}
	to := f.destinations[name]
	if f.trackTransitions {
		f.transitionsExecuted = append(f.transitionsExecuted, &Transition[E, T]{
			From:  f.curr.State,
			To:    to,
			Event: event,
		})
	}
	f.curr = &CurrentState[E, T]{State: to, SourceEvent: event}
	return nil
}

// Reset forces the machine into a state without consulting the transition
// table. Used when restoring persisted or rolled back state.
func (f *Fsm[E, T]) Reset(state T) {
	f.lock.Lock()
	defer f.lock.Unlock()
	var none E
	f.curr = &CurrentState[E, T]{State: state, SourceEvent: none}
}
