package entities

import "time"

// DefaultGracePeriod is how long a fresh row stays uninitialized while its identity fields are filled in
const DefaultGracePeriod = 3 * time.Second

// InitState represents whether a row has completed its initialization handshake
type InitState int

const (
	Uninitialized InitState = iota
	Initialized
)

// String method for InitState enum
func (s InitState) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	default:
		return "Unknown"
	}
}

// InitGate holds a row's initialization state and the deadline after which it initializes regardless
type InitGate struct {
	State    InitState
	Deadline time.Time
}

// NewInitGate opens a gate for a row created at now
func NewInitGate(now time.Time, grace time.Duration) InitGate {
	return InitGate{State: Uninitialized, Deadline: now.Add(grace)}
}

// InitializedGate is the gate of a row loaded from persisted state
func InitializedGate() InitGate {
	return InitGate{State: Initialized}
}

// Evaluate moves the gate to Initialized once identity is complete or the deadline has passed.
// The transition is one way.
func (g *InitGate) Evaluate(identityComplete bool, now time.Time) {
	if g.State == Initialized {
		return
	}
	if identityComplete || !now.Before(g.Deadline) {
		g.State = Initialized
	}
}

// Ready reports whether the gate is open
func (g InitGate) Ready() bool {
	return g.State == Initialized
}
