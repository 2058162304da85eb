package engine

// State is the engine's lifecycle state.
type State string

const (
	// StateIdle is the initial state and the state after Stop.
	StateIdle State = "idle"
	// StatePlaying means a block is running trials.
	StatePlaying State = "playing"
	// StatePaused means the block will wait at the next trial boundary.
	StatePaused State = "paused"
	// StateComplete means the last block finished and produced a result.
	StateComplete State = "complete"
)

func (s State) String() string { return string(s) }

// IsValid reports whether s is one of the four lifecycle states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StatePlaying, StatePaused, StateComplete:
		return true
	default:
		return false
	}
}

// Active reports whether a block is in progress (playing or paused).
func (s State) Active() bool {
	return s == StatePlaying || s == StatePaused
}

// action is a state machine input.
type action string

const (
	actionStart  action = "start"
	actionPause  action = "pause"
	actionResume action = "resume"
	actionStop   action = "stop"
	actionFinish action = "finish"
)

// transitions is the complete transition table. Any (state, action) pair
// missing here is rejected and leaves the state unchanged.
var transitions = map[State]map[action]State{
	StateIdle: {
		actionStart: StatePlaying,
	},
	StatePlaying: {
		actionPause:  StatePaused,
		actionStop:   StateIdle,
		actionFinish: StateComplete,
	},
	StatePaused: {
		actionResume: StatePlaying,
		actionStop:   StateIdle,
		actionFinish: StateComplete,
	},
	StateComplete: {
		actionStart: StatePlaying,
	},
}

// next looks up the target state for a in s.
func next(s State, a action) (State, bool) {
	to, ok := transitions[s][a]
	return to, ok
}
