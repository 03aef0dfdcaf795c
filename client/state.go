package client

import "fmt"

// State is a boundary's lifecycle as the client observes it.
type State int

const (
	// Declared: start marker found, no prerendered content.
	Declared State = iota
	// Prerendered: start and end markers frame server output.
	Prerendered
	// Resolved: the session host referenced the boundary.
	Resolved
	// Attached: an interactive component owns the region.
	Attached
	// Detached: the component was disposed. Terminal.
	Detached
)

var stateNames = [...]string{"declared", "prerendered", "resolved", "attached", "detached"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

var transitions = map[State][]State{
	Declared:    {Prerendered, Resolved},
	Prerendered: {Resolved},
	Resolved:    {Attached},
	Attached:    {Detached},
}

// Advance returns next if moving from s to next is legal.
func (s State) Advance(next State) (State, error) {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
}
