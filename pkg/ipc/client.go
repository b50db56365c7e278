package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// Client wraps one connection to a running daemon.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	id      string
}

// Dial connects to the instance's control socket. It retries briefly so
// clients racing a freshly spawned daemon can still connect.
func Dial(instance string) (*Client, error) {
	socketPath := SocketPath(instance)
	var conn net.Conn
	var err error
	for i := 0; i < 10; i++ {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", socketPath, err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Client{
		conn:    conn,
		scanner: scanner,
		id:      fmt.Sprintf("client-%d-%d", os.Getpid(), time.Now().UnixNano()),
	}, nil
}

// ID returns the client identifier sent with every message.
func (c *Client) ID() string {
	return c.id
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one message to the daemon.
func (c *Client) Send(msg Message) error {
	if msg.ClientID == "" {
		msg.ClientID = c.id
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = c.conn.Write(append(data, '\n'))
	return err
}

// Recv reads the next message from the daemon.
func (c *Client) Recv() (*Message, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	var msg Message
	if err := json.Unmarshal(c.scanner.Bytes(), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Subscribe registers for state pushes. The daemon replies with an
// initial state frame.
func (c *Client) Subscribe() error {
	return c.Send(Message{Type: MsgSubscribe})
}

// Command sends one command and waits for its result. State frames that
// arrive while waiting are skipped.
func (c *Client) Command(cmd CommandPayload) (*ResultPayload, error) {
	if err := c.Send(Message{Type: MsgCommand, Payload: cmd}); err != nil {
		return nil, err
	}
	for {
		msg, err := c.Recv()
		if err != nil {
			return nil, err
		}
		if msg.Type != MsgResult {
			continue
		}
		return DecodeResult(msg.Payload)
	}
}
