package ipc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fuchaoran001/niri/pkg/geometry"
	"github.com/fuchaoran001/niri/pkg/layout"
)

// MessageType identifies the type of message.
type MessageType string

const (
	MsgSubscribe   MessageType = "subscribe"
	MsgUnsubscribe MessageType = "unsubscribe"
	MsgState       MessageType = "state"   // Daemon -> Client: layout snapshot + frame
	MsgCommand     MessageType = "command" // Client -> Daemon: run one action
	MsgResult      MessageType = "result"  // Daemon -> Client: reply to a command
	MsgPing        MessageType = "ping"
	MsgPong        MessageType = "pong"
)

// Message is the base message structure for daemon<->client communication.
type Message struct {
	Type     MessageType `json:"type"`
	ClientID string      `json:"client_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// Action names accepted in a CommandPayload.
const (
	ActionFocusLeft                 = "focus-column-left"
	ActionFocusRight                = "focus-column-right"
	ActionFocusUp                   = "focus-window-up"
	ActionFocusDown                 = "focus-window-down"
	ActionFocusWindow               = "focus-window"
	ActionMoveColumnLeft            = "move-column-left"
	ActionMoveColumnRight           = "move-column-right"
	ActionMoveWindowUp              = "move-window-up"
	ActionMoveWindowDown            = "move-window-down"
	ActionConsumeIntoColumn         = "consume-window-into-column"
	ActionExpelFromColumn           = "expel-window-from-column"
	ActionSetColumnWidth            = "set-column-width"
	ActionSetWindowHeight           = "set-window-height"
	ActionResetWindowHeight         = "reset-window-height"
	ActionSwitchPresetColumnWidth   = "switch-preset-column-width"
	ActionCenterColumn              = "center-column"
	ActionFullscreenWindow          = "fullscreen-window"
	ActionCloseWindow               = "close-window"
	ActionOpenWindow                = "open-window"
	ActionSwitchWorkspace           = "switch-workspace"
	ActionSwitchWorkspaceUp         = "switch-workspace-up"
	ActionSwitchWorkspaceDown       = "switch-workspace-down"
	ActionMoveWindowToWorkspaceUp   = "move-window-to-workspace-up"
	ActionMoveWindowToWorkspaceDown = "move-window-to-workspace-down"
	ActionFocusOutput               = "focus-output"
	ActionMoveWindowToOutput        = "move-window-to-output"
	ActionToggleVRR                 = "toggle-vrr"
	ActionViewGestureBegin          = "view-gesture-begin"
	ActionViewGestureUpdate         = "view-gesture-update"
	ActionViewGestureEnd            = "view-gesture-end"
	ActionState                     = "state"
	ActionQuit                      = "quit"
)

// CommandPayload asks the daemon to run one layout action.
type CommandPayload struct {
	Action string `json:"action"`
	// Size is the argument of set-column-width and set-window-height:
	// "480", "25%", "+80", "-10%".
	Size     string  `json:"size,omitempty"`
	Index    int     `json:"index,omitempty"`     // switch-workspace target
	Output   string  `json:"output,omitempty"`    // focus-output, move-window-to-output, toggle-vrr
	Title    string  `json:"title,omitempty"`     // open-window
	WindowID uint64  `json:"window_id,omitempty"` // focus-window
	Delta    float64 `json:"delta,omitempty"`     // view-gesture-update, logical px
}

// ResultPayload is the daemon's reply to a command.
type ResultPayload struct {
	OK    bool             `json:"ok"`
	Error string           `json:"error,omitempty"`
	State *layout.Snapshot `json:"state,omitempty"` // filled for the "state" action
}

// OutputFrame holds the rectangles to draw for one output this frame.
type OutputFrame struct {
	Name     string                 `json:"name"`
	Geometry geometry.Rect          `json:"geometry"`
	Elements []layout.RenderElement `json:"elements"`
}

// StatePayload is pushed to subscribers whenever the layout changes or
// an animation produces a new frame.
type StatePayload struct {
	SequenceNum uint64          `json:"seq"` // Monotonic sequence for race detection
	Animating   bool            `json:"animating"`
	Snapshot    layout.Snapshot `json:"snapshot"`
	Frames      []OutputFrame   `json:"frames"`
}

// DecodeCommand re-marshals a generic message payload into a CommandPayload.
func DecodeCommand(payload interface{}) (*CommandPayload, error) {
	var cmd CommandPayload
	if err := decodePayload(payload, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// DecodeResult re-marshals a generic message payload into a ResultPayload.
func DecodeResult(payload interface{}) (*ResultPayload, error) {
	var res ResultPayload
	if err := decodePayload(payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DecodeState re-marshals a generic message payload into a StatePayload.
func DecodeState(payload interface{}) (*StatePayload, error) {
	var st StatePayload
	if err := decodePayload(payload, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func decodePayload(payload interface{}, dst interface{}) error {
	if payload == nil {
		return fmt.Errorf("empty payload")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// ParseSizeChange turns a command size argument into a resize request.
// "480" sets a fixed pixel width, "25%" sets a proportion, and a
// leading + or - makes the change relative: "+80", "-10%".
func ParseSizeChange(arg string) (layout.SizeChange, error) {
	s := strings.TrimSpace(arg)
	adjust := false
	sign := 1.0
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		adjust = true
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return layout.SizeChange{}, fmt.Errorf("bad size %q", arg)
	}
	v *= sign
	switch {
	case adjust && percent:
		return layout.SizeChange{Kind: layout.AdjustProportion, Value: v / 100}, nil
	case adjust:
		return layout.SizeChange{Kind: layout.AdjustFixed, Value: v}, nil
	case percent:
		return layout.SizeChange{Kind: layout.SetProportion, Value: v / 100}, nil
	default:
		return layout.SizeChange{Kind: layout.SetFixed, Value: v}, nil
	}
}

// SocketPath returns the daemon socket path for an instance.
func SocketPath(instance string) string {
	if instance == "" {
		instance = "default"
	}
	return fmt.Sprintf("/tmp/niri-daemon-%s.sock", instance)
}

// PidPath returns the pidfile path for an instance.
func PidPath(instance string) string {
	if instance == "" {
		instance = "default"
	}
	return fmt.Sprintf("/tmp/niri-daemon-%s.pid", instance)
}
