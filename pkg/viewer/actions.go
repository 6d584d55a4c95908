package viewer

// Action is a user command the viewer understands. The binary maps
// terminal keys onto actions; the viewer never sees raw key events.
type Action int

const (
	ActionNone Action = iota
	PitchUp
	PitchDown
	YawLeft
	YawRight
	RollLeft
	RollRight
	Spin
	Reset
	ZoomIn
	ZoomOut
	ToggleWireframe
	ToggleBounds
	ToggleHUD
)

var actionNames = map[Action]string{
	ActionNone:      "none",
	PitchUp:         "pitch_up",
	PitchDown:       "pitch_down",
	YawLeft:         "yaw_left",
	YawRight:        "yaw_right",
	RollLeft:        "roll_left",
	RollRight:       "roll_right",
	Spin:            "spin",
	Reset:           "reset",
	ZoomIn:          "zoom_in",
	ZoomOut:         "zoom_out",
	ToggleWireframe: "toggle_wireframe",
	ToggleBounds:    "toggle_bounds",
	ToggleHUD:       "toggle_hud",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Binding maps key names to an action.
type Binding struct {
	Keys   []string
	Action Action
}

// DefaultBindings are the viewer's key bindings. Key names follow the
// terminal library's matching syntax.
var DefaultBindings = []Binding{
	{[]string{"w", "up"}, PitchUp},
	{[]string{"s", "down"}, PitchDown},
	{[]string{"a", "left"}, YawLeft},
	{[]string{"d", "right"}, YawRight},
	{[]string{"q"}, RollLeft},
	{[]string{"e"}, RollRight},
	{[]string{"space"}, Spin},
	{[]string{"r"}, Reset},
	{[]string{"+", "="}, ZoomIn},
	{[]string{"-", "_"}, ZoomOut},
	{[]string{"x"}, ToggleWireframe},
	{[]string{"b"}, ToggleBounds},
	{[]string{"?", "shift+/"}, ToggleHUD},
}

// Lookup returns the action bound to the first key for which match
// reports true, or ActionNone.
func Lookup(bindings []Binding, match func(keys ...string) bool) Action {
	for _, b := range bindings {
		if match(b.Keys...) {
			return b.Action
		}
	}
	return ActionNone
}
