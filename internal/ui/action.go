package ui

// ActionKind is a user input the event loop reacts to.
type ActionKind int

const (
	ActionTogglePlay ActionKind = iota
	ActionSeek
	ActionSeekTo
	ActionCheck
	ActionReset
	ActionQuit
)

func (k ActionKind) String() string {
	switch k {
	case ActionTogglePlay:
		return "toggle_play"
	case ActionSeek:
		return "seek"
	case ActionSeekTo:
		return "seek_to"
	case ActionCheck:
		return "check"
	case ActionReset:
		return "reset"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Action is one user input. Delta is used by ActionSeek, At by ActionSeekTo
// and Text by ActionCheck.
type Action struct {
	Kind  ActionKind
	Delta float64
	At    float64
	Text  string
}

// ActionFunc receives user input from a view. It must not block.
type ActionFunc func(Action)
