package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/fuchaoran001/niri/pkg/ipc"
	"github.com/fuchaoran001/niri/pkg/paths"
)

var (
	instanceFlag = flag.String("instance", "", "daemon instance name (defaults to $WAYLAND_DISPLAY)")
	tileFlag     = flag.String("tile-command", "", "shell command to run in a pty inside each tile")
	debugFlag    = flag.Bool("debug", false, "log debug output to the state directory")
)

var debugLog = log.New(io.Discard, "", 0)

// globalProgram lets the receive loop push daemon messages into the
// bubbletea event loop.
var globalProgram *tea.Program

const (
	wheelStep     = 40.0
	gestureSettle = 200 * time.Millisecond
)

type connectedMsg struct {
	client *ipc.Client
}

type disconnectedMsg struct {
	err error
}

type stateMsg struct {
	state *ipc.StatePayload
}

type gestureEndMsg struct {
	seq int
}

type model struct {
	instance  string
	client    *ipc.Client
	connected bool
	width     int
	height    int
	state     *ipc.StatePayload
	ptys      *ptySet
	spin      spinner.Model
	palette   palette

	gestureActive bool
	gestureSeq    int
}

func connectCmd(instance string) tea.Cmd {
	return func() tea.Msg {
		client, err := ipc.Dial(instance)
		if err != nil {
			return disconnectedMsg{err: err}
		}
		if err := client.Subscribe(); err != nil {
			client.Close()
			return disconnectedMsg{err: err}
		}
		return connectedMsg{client: client}
	}
}

// receiveLoop reads daemon messages until the connection drops and
// forwards state frames into the program.
func receiveLoop(client *ipc.Client) {
	for {
		msg, err := client.Recv()
		if err != nil {
			debugLog.Printf("receive loop: %v", err)
			if globalProgram != nil {
				globalProgram.Send(disconnectedMsg{err: err})
			}
			return
		}
		switch msg.Type {
		case ipc.MsgState:
			st, err := ipc.DecodeState(msg.Payload)
			if err != nil {
				debugLog.Printf("decode state: %v", err)
				continue
			}
			if globalProgram != nil {
				globalProgram.Send(stateMsg{state: st})
			}
		case ipc.MsgResult:
			res, err := ipc.DecodeResult(msg.Payload)
			if err == nil && res.Error != "" {
				debugLog.Printf("daemon: %s", res.Error)
			}
		}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(connectCmd(m.instance), m.spin.Tick)
}

// send fires a command at the daemon without waiting for the result.
// The receive loop picks up the reply and the broadcast that follows.
func (m *model) send(action string) {
	m.sendCmd(ipc.CommandPayload{Action: action})
}

func (m *model) sendCmd(cmd ipc.CommandPayload) {
	if !m.connected || m.client == nil {
		return
	}
	if err := m.client.Send(ipc.Message{Type: ipc.MsgCommand, Payload: cmd}); err != nil {
		debugLog.Printf("send %s: %v", cmd.Action, err)
	}
}

func (m *model) nextOutputName() string {
	st := m.state
	if st == nil || len(st.Snapshot.Outputs) < 2 {
		return ""
	}
	for i, out := range st.Snapshot.Outputs {
		if out.Name == st.Snapshot.ActiveOutput {
			return st.Snapshot.Outputs[(i+1)%len(st.Snapshot.Outputs)].Name
		}
	}
	return st.Snapshot.Outputs[0].Name
}

// wheel feeds one scroll tick into the daemon-side view gesture and
// arms the settle timer that ends it.
func (m *model) wheel(delta float64) tea.Cmd {
	if !m.gestureActive {
		m.gestureActive = true
		m.send(ipc.ActionViewGestureBegin)
	}
	m.sendCmd(ipc.CommandPayload{Action: ipc.ActionViewGestureUpdate, Delta: delta})
	m.gestureSeq++
	seq := m.gestureSeq
	return tea.Tick(gestureSettle, func(time.Time) tea.Msg {
		return gestureEndMsg{seq: seq}
	})
}

func (m *model) reconcilePTYs() {
	if sc := buildScene(m.state, m.width, m.height); sc != nil {
		m.ptys.Reconcile(sc.interiorSizes())
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reconcilePTYs()
		return m, nil

	case connectedMsg:
		m.connected = true
		m.client = msg.client
		debugLog.Printf("connected as %s", msg.client.ID())
		go receiveLoop(msg.client)
		return m, nil

	case disconnectedMsg:
		if m.connected {
			debugLog.Printf("disconnected: %v", msg.err)
		}
		m.connected = false
		if m.client != nil {
			m.client.Close()
			m.client = nil
		}
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg {
			return connectCmd(m.instance)()
		})

	case stateMsg:
		m.state = msg.state
		m.reconcilePTYs()
		return m, nil

	case gestureEndMsg:
		if m.gestureActive && msg.seq == m.gestureSeq {
			m.gestureActive = false
			m.send(ipc.ActionViewGestureEnd)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelLeft:
			return m, m.wheel(-wheelStep)
		case tea.MouseButtonWheelRight:
			return m, m.wheel(wheelStep)
		case tea.MouseButtonWheelUp:
			if msg.Shift {
				return m, m.wheel(-wheelStep)
			}
		case tea.MouseButtonWheelDown:
			if msg.Shift {
				return m, m.wheel(wheelStep)
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.ptys.CloseAll()
		return m, tea.Quit
	case "h", "left":
		m.send(ipc.ActionFocusLeft)
	case "l", "right":
		m.send(ipc.ActionFocusRight)
	case "j", "down":
		m.send(ipc.ActionFocusDown)
	case "k", "up":
		m.send(ipc.ActionFocusUp)
	case "H":
		m.send(ipc.ActionMoveColumnLeft)
	case "L":
		m.send(ipc.ActionMoveColumnRight)
	case "J":
		m.send(ipc.ActionMoveWindowDown)
	case "K":
		m.send(ipc.ActionMoveWindowUp)
	case ",":
		m.send(ipc.ActionConsumeIntoColumn)
	case ".":
		m.send(ipc.ActionExpelFromColumn)
	case "r":
		m.send(ipc.ActionSwitchPresetColumnWidth)
	case "R":
		m.send(ipc.ActionResetWindowHeight)
	case "f":
		m.send(ipc.ActionFullscreenWindow)
	case "c":
		m.send(ipc.ActionCenterColumn)
	case "-":
		m.sendCmd(ipc.CommandPayload{Action: ipc.ActionSetColumnWidth, Size: "-10%"})
	case "=":
		m.sendCmd(ipc.CommandPayload{Action: ipc.ActionSetColumnWidth, Size: "+10%"})
	case "_":
		m.sendCmd(ipc.CommandPayload{Action: ipc.ActionSetWindowHeight, Size: "-10%"})
	case "+":
		m.sendCmd(ipc.CommandPayload{Action: ipc.ActionSetWindowHeight, Size: "+10%"})
	case "[":
		m.send(ipc.ActionSwitchWorkspaceUp)
	case "]":
		m.send(ipc.ActionSwitchWorkspaceDown)
	case "{":
		m.send(ipc.ActionMoveWindowToWorkspaceUp)
	case "}":
		m.send(ipc.ActionMoveWindowToWorkspaceDown)
	case "o":
		m.send(ipc.ActionOpenWindow)
	case "x":
		m.send(ipc.ActionCloseWindow)
	case "tab":
		if name := m.nextOutputName(); name != "" {
			m.sendCmd(ipc.CommandPayload{Action: ipc.ActionFocusOutput, Output: name})
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.width < 8 || m.height < 6 {
		return "terminal too small"
	}
	if m.state == nil {
		note := m.spin.View() + " waiting for niri-daemon"
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, note)
	}
	sc := buildScene(m.state, m.width, m.height)
	if sc == nil {
		return "terminal too small"
	}

	c := newCanvas(sc.width, sc.canvasHeight)
	for _, region := range sc.outputs {
		c.drawOutputFrame(region.x, region.y, region.w, region.h, region.name)
		for _, b := range region.boxes {
			var content []string
			if !b.ghost {
				content = m.ptys.Tail(b.id, b.h-2)
			}
			c.drawTile(b, content)
		}
	}

	var b strings.Builder
	b.WriteString(workspaceBar(m.state, m.width, m.palette))
	b.WriteByte('\n')
	b.WriteString(c.render(m.palette.canvas))
	b.WriteByte('\n')
	b.WriteString(statusBar(m.state, m.connected, m.width, m.palette))
	return b.String()
}

func main() {
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "niri-view must run in a terminal")
		os.Exit(1)
	}

	instance := *instanceFlag
	if instance == "" {
		instance = os.Getenv("WAYLAND_DISPLAY")
	}
	if instance == "" {
		instance = "default"
	}

	if *debugFlag {
		if _, err := paths.EnsureStateDir(); err == nil {
			logPath := paths.StatePath(fmt.Sprintf("view-%s-debug.log", instance))
			if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
				debugLog = log.New(f, "", log.LstdFlags)
			}
		}
	}

	lipgloss.SetColorProfile(termenv.ColorProfile())

	pal := buildPalette()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(pal.statusWarn),
	)

	ptys := newPTYSet(*tileFlag)
	m := model{
		instance: instance,
		ptys:     ptys,
		spin:     sp,
		palette:  pal,
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	globalProgram = p

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ptys.CloseAll()
}
