package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fuchaoran001/niri/pkg/ipc"
)

var instanceFlag = flag.String("instance", "", "daemon instance name (defaults to $WAYLAND_DISPLAY)")

// noArgActions are the actions that take no further arguments.
var noArgActions = map[string]bool{
	ipc.ActionFocusLeft:                 true,
	ipc.ActionFocusRight:                true,
	ipc.ActionFocusUp:                   true,
	ipc.ActionFocusDown:                 true,
	ipc.ActionMoveColumnLeft:            true,
	ipc.ActionMoveColumnRight:           true,
	ipc.ActionMoveWindowUp:              true,
	ipc.ActionMoveWindowDown:            true,
	ipc.ActionConsumeIntoColumn:         true,
	ipc.ActionExpelFromColumn:           true,
	ipc.ActionResetWindowHeight:         true,
	ipc.ActionSwitchPresetColumnWidth:   true,
	ipc.ActionCenterColumn:              true,
	ipc.ActionFullscreenWindow:          true,
	ipc.ActionCloseWindow:               true,
	ipc.ActionSwitchWorkspaceUp:         true,
	ipc.ActionSwitchWorkspaceDown:       true,
	ipc.ActionMoveWindowToWorkspaceUp:   true,
	ipc.ActionMoveWindowToWorkspaceDown: true,
	ipc.ActionState:                     true,
	ipc.ActionQuit:                      true,
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: niri-ctl [flags] <action> [args]

Actions:
  focus-column-left | focus-column-right | focus-window-up | focus-window-down
  focus-window <id>
  move-column-left | move-column-right | move-window-up | move-window-down
  consume-window-into-column | expel-window-from-column
  set-column-width <size> | set-window-height <size>    size: 480, 25%, +80, -10%
  reset-window-height | switch-preset-column-width | center-column
  fullscreen-window | close-window | open-window [title]
  switch-workspace <index> | switch-workspace-up | switch-workspace-down
  move-window-to-workspace-up | move-window-to-workspace-down
  focus-output <name> | move-window-to-output <name>
  toggle-vrr [output]
  state | quit

Flags:`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	action := args[0]
	cmd := ipc.CommandPayload{Action: action}

	switch action {
	case ipc.ActionSetColumnWidth, ipc.ActionSetWindowHeight:
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: niri-ctl %s <size>\n", action)
			os.Exit(1)
		}
		if _, err := ipc.ParseSizeChange(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cmd.Size = args[1]

	case ipc.ActionSwitchWorkspace:
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: niri-ctl %s <index>\n", action)
			os.Exit(1)
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad workspace index %q\n", args[1])
			os.Exit(1)
		}
		cmd.Index = idx

	case ipc.ActionFocusOutput, ipc.ActionMoveWindowToOutput:
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: niri-ctl %s <output>\n", action)
			os.Exit(1)
		}
		cmd.Output = args[1]

	case ipc.ActionFocusWindow:
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: niri-ctl %s <id>\n", action)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad window id %q\n", args[1])
			os.Exit(1)
		}
		cmd.WindowID = id

	case ipc.ActionToggleVRR:
		if len(args) > 1 {
			cmd.Output = args[1]
		}

	case ipc.ActionOpenWindow:
		cmd.Title = strings.Join(args[1:], " ")

	default:
		if !noArgActions[action] {
			fmt.Fprintf(os.Stderr, "Unknown action: %s\n", action)
			usage()
			os.Exit(1)
		}
	}

	instance := *instanceFlag
	if instance == "" {
		instance = os.Getenv("WAYLAND_DISPLAY")
	}

	client, err := ipc.Dial(instance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	res, err := client.Command(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if res.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", res.Error)
		os.Exit(1)
	}

	if action == ipc.ActionState {
		data, err := json.MarshalIndent(res.State, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if res.OK {
		fmt.Println("ok")
	} else {
		fmt.Println("no effect")
	}
}
