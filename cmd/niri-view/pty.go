package main

import (
	"bufio"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// ansiEscapes matches the escape sequences stripped from tile output
// before it is drawn into the cell grid.
var ansiEscapes = regexp.MustCompile(`\x1b(\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\)?|[@-Z\\^_])`)

const tileScrollback = 64

// sanitizeLine makes pty output safe for the canvas: escape sequences
// and control characters go away, tabs become spaces.
func sanitizeLine(s string) string {
	s = ansiEscapes.ReplaceAllString(s, "")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteString("    ")
		case r == '\r':
		case r < 0x20 || r == 0x7f:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tilePTY runs one command on a pseudo terminal and keeps the tail of
// its output for drawing inside a window tile.
type tilePTY struct {
	cmd  *exec.Cmd
	file *os.File

	mu    sync.Mutex
	lines []string
	cols  uint16
	rows  uint16
}

// startTilePTY launches the command on a fresh pty sized to the tile
// interior.
func startTilePTY(command string, cols, rows int) (*tilePTY, error) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cmd := exec.Command("sh", "-c", command)
	f, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return nil, err
	}
	t := &tilePTY{cmd: cmd, file: f, cols: uint16(cols), rows: uint16(rows)}
	go t.readLoop()
	return t, nil
}

func (t *tilePTY) readLoop() {
	scanner := bufio.NewScanner(t.file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := sanitizeLine(scanner.Text())
		t.mu.Lock()
		t.lines = append(t.lines, line)
		if len(t.lines) > tileScrollback {
			t.lines = t.lines[len(t.lines)-tileScrollback:]
		}
		t.mu.Unlock()
	}
}

// Resize propagates a tile geometry change to the pty.
func (t *tilePTY) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	t.mu.Lock()
	if uint16(cols) == t.cols && uint16(rows) == t.rows {
		t.mu.Unlock()
		return
	}
	t.cols = uint16(cols)
	t.rows = uint16(rows)
	t.mu.Unlock()
	pty.Setsize(t.file, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Tail returns up to n trailing output lines.
func (t *tilePTY) Tail(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.lines) == 0 {
		return nil
	}
	if n > len(t.lines) {
		n = len(t.lines)
	}
	out := make([]string, n)
	copy(out, t.lines[len(t.lines)-n:])
	return out
}

// Close terminates the command and releases the pty.
func (t *tilePTY) Close() {
	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	t.file.Close()
	go t.cmd.Wait()
}

// ptySet owns the tile PTYs, keyed by window id.
type ptySet struct {
	command string
	tiles   map[uint64]*tilePTY
}

func newPTYSet(command string) *ptySet {
	return &ptySet{command: command, tiles: make(map[uint64]*tilePTY)}
}

// Reconcile starts PTYs for new windows, resizes live ones and closes
// the ones whose windows are gone. sizes maps window id to interior
// cols and rows.
func (p *ptySet) Reconcile(sizes map[uint64][2]int) {
	if p.command == "" {
		return
	}
	for id, size := range sizes {
		if t, ok := p.tiles[id]; ok {
			t.Resize(size[0], size[1])
			continue
		}
		t, err := startTilePTY(p.command, size[0], size[1])
		if err != nil {
			debugLog.Printf("pty for window %d: %v", id, err)
			continue
		}
		p.tiles[id] = t
	}
	for id, t := range p.tiles {
		if _, ok := sizes[id]; !ok {
			t.Close()
			delete(p.tiles, id)
		}
	}
}

// Tail returns trailing output for one window, nil when it has no pty.
func (p *ptySet) Tail(id uint64, n int) []string {
	t, ok := p.tiles[id]
	if !ok {
		return nil
	}
	return t.Tail(n)
}

// CloseAll tears down every pty.
func (p *ptySet) CloseAll() {
	for id, t := range p.tiles {
		t.Close()
		delete(p.tiles, id)
	}
}
