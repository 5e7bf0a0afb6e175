package gap

import "fmt"

// State is the synchronization state of a channel.
type State int32

const (
	Initial State = iota
	Sync
	OutOfSync
	Closing
	Closed
)

var stateNames = [...]string{
	Initial:   "INITIAL",
	Sync:      "SYNC",
	OutOfSync: "OUTOFSYNC",
	Closing:   "CLOSING",
	Closed:    "CLOSED",
}

// AllStates lists every state in declaration order.
var AllStates = []State{Initial, Sync, OutOfSync, Closing, Closed}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name, so state events round-trip through JSON.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// accepting reports whether packets are still processed in this state.
func (s State) accepting() bool {
	return s == Initial || s == Sync || s == OutOfSync
}
