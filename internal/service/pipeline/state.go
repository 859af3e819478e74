// Package pipeline orchestrates one alignment request from validation
// through decoding, alignment and endpoint refinement.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of an alignment request.
type State int

const (
	// StateReceived - request accepted, nothing checked yet.
	StateReceived State = iota
	// StateValidated - transcript and language passed validation.
	StateValidated
	// StateDecoded - audio decoded into samples.
	StateDecoded
	// StateAligned - engine produced word intervals.
	StateAligned
	// StateRefined - endpoints adjusted by the energy refiner.
	StateRefined
	// StateCompleted - response ready. Terminal.
	StateCompleted
	// StateFailed - request abandoned after an error. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateValidated:
		return "VALIDATED"
	case StateDecoded:
		return "DECODED"
	case StateAligned:
		return "ALIGNED"
	case StateRefined:
		return "REFINED"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true for COMPLETED and FAILED.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

var (
	ErrTerminalState     = errors.New("request is in a terminal state")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// transitions lists the forward edges of the request lifecycle.
// Refinement is optional, so ALIGNED may complete directly.
var transitions = map[State][]State{
	StateReceived:  {StateValidated},
	StateValidated: {StateDecoded},
	StateDecoded:   {StateAligned},
	StateAligned:   {StateRefined, StateCompleted},
	StateRefined:   {StateCompleted},
}

// Lifecycle tracks the state machine for a single request.
// Thread-safe for concurrent access.
type Lifecycle struct {
	mu        sync.RWMutex
	requestID string
	state     State
}

// NewLifecycle creates a lifecycle in RECEIVED state.
func NewLifecycle(requestID string) *Lifecycle {
	return &Lifecycle{requestID: requestID, state: StateReceived}
}

// RequestID returns the request ID.
func (l *Lifecycle) RequestID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.requestID
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Advance moves the lifecycle to next if the edge exists.
func (l *Lifecycle) Advance(next State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, l.state)
	}
	for _, allowed := range transitions[l.state] {
		if next == allowed {
			l.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.state, next)
}

// Fail moves the lifecycle to FAILED from any non-terminal state.
// Returns false if the request already reached a terminal state.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}
