package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ClientInfo tracks per-client state for subscribers.
type ClientInfo struct {
	Conn net.Conn
}

// Server is the daemon side of the control socket. It accepts line
// delimited JSON messages, forwards commands to the owning event loop
// through callbacks, and pushes state frames to subscribed clients.
type Server struct {
	socketPath string
	pidPath    string
	listener   net.Listener
	clients    map[string]*ClientInfo
	clientsMu  sync.RWMutex
	done       chan struct{}

	sequenceNum uint64
	seqMu       sync.Mutex

	// OnCommand runs one action and returns the reply. Called from the
	// connection goroutine, so the handler must do its own locking.
	OnCommand func(clientID string, cmd *CommandPayload) *ResultPayload

	// OnStateNeeded builds the payload pushed to subscribers.
	OnStateNeeded func() *StatePayload
}

// NewServer creates a server for the given instance name.
func NewServer(instance string) *Server {
	return &Server{
		socketPath:  SocketPath(instance),
		pidPath:     PidPath(instance),
		clients:     make(map[string]*ClientInfo),
		done:        make(chan struct{}),
		sequenceNum: 1,
	}
}

// Start claims the pidfile and begins listening for connections.
func (s *Server) Start() error {
	if err := s.checkAndClaimPid(); err != nil {
		return err
	}

	// Remove stale socket if exists (safe now that we own the pidfile)
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		os.Remove(s.pidPath)
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	go s.acceptLoop()

	return nil
}

// checkAndClaimPid checks for an existing daemon and claims the pidfile.
func (s *Server) checkAndClaimPid() error {
	if data, err := os.ReadFile(s.pidPath); err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pid, err := strconv.Atoi(pidStr); err == nil && pid > 0 {
			if process, err := os.FindProcess(pid); err == nil {
				// On Unix FindProcess always succeeds, so probe with signal 0
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("daemon already running with pid %d", pid)
				}
			}
		}
		// Stale pidfile, remove it
		os.Remove(s.pidPath)
	}

	pid := os.Getpid()
	if err := os.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}

	return nil
}

// Stop shuts down the server and removes the socket and pidfile.
func (s *Server) Stop() {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.clientsMu.Lock()
	for id, client := range s.clients {
		client.Conn.Close()
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()
	os.Remove(s.socketPath)
	os.Remove(s.pidPath)
}

// ClientCount returns the number of subscribed clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// GetSocketPath returns the socket path.
func (s *Server) GetSocketPath() string {
	return s.socketPath
}

// acceptLoop handles incoming connections.
func (s *Server) acceptLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		go s.handleClient(conn)
	}
}

// handleClient processes messages from one connection.
func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	// Increase scanner buffer for large state payloads
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var clientID string

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch msg.Type {
		case MsgSubscribe:
			clientID = msg.ClientID
			s.clientsMu.Lock()
			s.clients[clientID] = &ClientInfo{Conn: conn}
			s.clientsMu.Unlock()
			// Send initial state
			s.sendStateToClient(clientID)

		case MsgUnsubscribe:
			s.clientsMu.Lock()
			delete(s.clients, clientID)
			s.clientsMu.Unlock()
			return

		case MsgCommand:
			cmd, err := DecodeCommand(msg.Payload)
			if err != nil {
				s.sendMessage(conn, Message{
					Type:    MsgResult,
					Payload: &ResultPayload{Error: err.Error()},
				})
				continue
			}
			var res *ResultPayload
			if s.OnCommand != nil {
				res = s.OnCommand(msg.ClientID, cmd)
			}
			if res == nil {
				res = &ResultPayload{OK: true}
			}
			s.sendMessage(conn, Message{
				Type:     MsgResult,
				ClientID: msg.ClientID,
				Payload:  res,
			})

		case MsgPing:
			s.sendMessage(conn, Message{Type: MsgPong})
		}
	}

	// Client disconnected
	if clientID != "" {
		s.clientsMu.Lock()
		delete(s.clients, clientID)
		s.clientsMu.Unlock()
	}
}

// BroadcastState pushes the current state to all subscribed clients.
func (s *Server) BroadcastState() {
	s.clientsMu.RLock()
	clientIDs := make([]string, 0, len(s.clients))
	for id := range s.clients {
		clientIDs = append(clientIDs, id)
	}
	s.clientsMu.RUnlock()

	for _, id := range clientIDs {
		s.sendStateToClient(id)
	}
}

// sendStateToClient builds and sends a state frame to one client.
func (s *Server) sendStateToClient(clientID string) {
	s.clientsMu.RLock()
	client, ok := s.clients[clientID]
	if !ok {
		s.clientsMu.RUnlock()
		return
	}
	conn := client.Conn
	s.clientsMu.RUnlock()

	if s.OnStateNeeded == nil {
		return
	}

	state := s.OnStateNeeded()
	if state == nil {
		return
	}

	s.seqMu.Lock()
	state.SequenceNum = s.sequenceNum
	s.sequenceNum++
	s.seqMu.Unlock()

	s.sendMessage(conn, Message{
		Type:     MsgState,
		ClientID: clientID,
		Payload:  state,
	})
}

// sendMessage sends one message to a client.
func (s *Server) sendMessage(conn net.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = conn.Write(append(data, '\n'))
	return err
}
