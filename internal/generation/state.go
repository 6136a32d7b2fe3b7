package generation

import "context"

// State is a step in a generation run.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSanitized
	StateCalling
	StateAssembled
	StatePersisting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateSanitized:  "sanitized",
	StateCalling:    "calling",
	StateAssembled:  "assembled",
	StatePersisting: "persisting",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition describes one state change.
type Transition struct {
	From State
	To   State
	// Index is the 1-based question number for StateCalling, otherwise 0.
	Index int
	// Err is set when To is StateFailed.
	Err error
}

// Observer is notified of every state change. In concurrent mode
// OnTransition may be called from several goroutines.
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

// OnTransition calls f.
func (f ObserverFunc) OnTransition(ctx context.Context, t Transition) {
	f(ctx, t)
}
