package ipc

import (
	"fmt"
	"os"
	"testing"

	"github.com/fuchaoran001/niri/pkg/layout"
)

func testInstance(t *testing.T) string {
	return fmt.Sprintf("test-%s-%d", t.Name(), os.Getpid())
}

func TestServerCommandRoundTrip(t *testing.T) {
	instance := testInstance(t)
	s := NewServer(instance)
	actions := make(chan string, 1)
	s.OnCommand = func(clientID string, cmd *CommandPayload) *ResultPayload {
		actions <- cmd.Action
		if cmd.Action == ActionSetColumnWidth && cmd.Size != "50%" {
			return &ResultPayload{Error: "wrong size"}
		}
		return &ResultPayload{OK: true}
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer s.Stop()

	c, err := Dial(instance)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	res, err := c.Command(CommandPayload{Action: ActionSetColumnWidth, Size: "50%"})
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if !res.OK || res.Error != "" {
		t.Fatalf("expected ok result, got %+v", res)
	}
	if got := <-actions; got != ActionSetColumnWidth {
		t.Errorf("expected action %q to reach the handler, got %q", ActionSetColumnWidth, got)
	}
}

func TestSubscribeReceivesStateFrames(t *testing.T) {
	instance := testInstance(t)
	s := NewServer(instance)
	s.OnStateNeeded = func() *StatePayload {
		return &StatePayload{
			Snapshot: layout.Snapshot{ActiveOutput: "eDP-1"},
		}
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer s.Stop()

	c, err := Dial(instance)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Subscribe(); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Subscribing triggers an immediate state push.
	msg, err := c.Recv()
	if err != nil {
		t.Fatalf("recv initial state: %v", err)
	}
	if msg.Type != MsgState {
		t.Fatalf("expected state message, got %q", msg.Type)
	}
	st, err := DecodeState(msg.Payload)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.SequenceNum != 1 {
		t.Errorf("expected seq 1, got %d", st.SequenceNum)
	}
	if st.Snapshot.ActiveOutput != "eDP-1" {
		t.Errorf("expected snapshot to carry the active output, got %q", st.Snapshot.ActiveOutput)
	}

	// The initial frame proves registration, so a broadcast must reach us.
	s.BroadcastState()
	msg, err = c.Recv()
	if err != nil {
		t.Fatalf("recv broadcast: %v", err)
	}
	st, err = DecodeState(msg.Payload)
	if err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if st.SequenceNum != 2 {
		t.Errorf("expected seq 2, got %d", st.SequenceNum)
	}
}

func TestSecondServerRefusesToStart(t *testing.T) {
	instance := testInstance(t)
	s1 := NewServer(instance)
	if err := s1.Start(); err != nil {
		t.Fatalf("start first server: %v", err)
	}

	s2 := NewServer(instance)
	if err := s2.Start(); err == nil {
		s2.Stop()
		t.Fatal("expected second server on the same instance to fail")
	}

	s1.Stop()

	// With the pidfile released a new server can claim the instance.
	s3 := NewServer(instance)
	if err := s3.Start(); err != nil {
		t.Fatalf("start after stop: %v", err)
	}
	s3.Stop()
}

func TestPingPong(t *testing.T) {
	instance := testInstance(t)
	s := NewServer(instance)
	if err := s.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer s.Stop()

	c, err := Dial(instance)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(Message{Type: MsgPing}); err != nil {
		t.Fatalf("send ping: %v", err)
	}
	msg, err := c.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if msg.Type != MsgPong {
		t.Errorf("expected pong, got %q", msg.Type)
	}
}
