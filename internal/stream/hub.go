package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/verletsim/internal/solver"
)

var ErrHubClosed = errors.New("stream: hub closed")

const (
	writeWait    = 2 * time.Second
	readLimit    = 4096
	commandQueue = 16
)

// Body is one particle as sent to clients.
type Body struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"r"`
	Color    string  `json:"color"`
	Sleeping bool    `json:"sleeping,omitempty"`
}

type Frame struct {
	Step      int     `json:"step"`
	Time      float64 `json:"time"`
	Particles []Body  `json:"particles"`
}

// NewFrame copies the solver's particles into a frame.
func NewFrame(s *solver.Solver, step int) Frame {
	ps := s.Particles()
	bodies := make([]Body, len(ps))
	for i := range ps {
		p := &ps[i]
		pos, c := p.Position(), p.Color()
		bodies[i] = Body{
			ID:       p.ID(),
			X:        pos.X,
			Y:        pos.Y,
			Radius:   p.Radius(),
			Color:    fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
			Sleeping: p.Sleeping(),
		}
	}
	return Frame{Step: step, Time: s.Time(), Particles: bodies}
}

// Command is a control message sent by a client.
type Command struct {
	Command string `json:"command"`
}

// Hub fans frames out to websocket clients. Writes to one connection are
// serialised by that connection's mutex.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu       sync.RWMutex
	clients  map[*websocket.Conn]*sync.Mutex
	last     []byte
	closed   bool
	commands chan Command
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logger,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		commands: make(chan Command, commandQueue),
	}
}

// Register adds a connection and sends it the latest frame, if any.
func (h *Hub) Register(conn *websocket.Conn) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return ErrHubClosed
	}
	connMutex := &sync.Mutex{}
	h.clients[conn] = connMutex
	last := h.last
	h.mu.Unlock()

	if last == nil {
		return nil
	}
	connMutex.Lock()
	defer connMutex.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, last)
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Commands delivers client control messages. Messages arriving while the
// queue is full are dropped.
func (h *Hub) Commands() <-chan Command { return h.commands }

// Last returns the most recently broadcast frame as JSON.
func (h *Hub) Last() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Broadcast encodes f once and writes it to every client. Clients that fail
// are closed and dropped. It returns the number of clients reached.
func (h *Hub) Broadcast(f Frame) (int, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return 0, err
	}
	msg, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrHubClosed
	}
	h.last = data
	h.mu.Unlock()

	h.mu.RLock()
	sent := 0
	var failed []*websocket.Conn
	for conn, connMutex := range h.clients {
		connMutex.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WritePreparedMessage(msg)
		connMutex.Unlock()
		if err != nil {
			h.logger.Debug("websocket write failed", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
			failed = append(failed, conn)
			continue
		}
		sent++
	}
	h.mu.RUnlock()

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	}
	return sent, nil
}

// ServeHTTP upgrades the request and reads commands until the client goes
// away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	if err := h.Register(conn); err != nil {
		if !errors.Is(err, ErrHubClosed) {
			h.Unregister(conn)
		}
		return
	}
	defer h.Unregister(conn)
	h.logger.Debug("client connected", "remote", conn.RemoteAddr())

	conn.SetReadLimit(readLimit)
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "remote", conn.RemoteAddr(), "err", err)
			}
			return
		}
		select {
		case h.commands <- cmd:
		default:
			h.logger.Warn("command dropped", "command", cmd.Command)
		}
	}
}

// Close disconnects every client. Later registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for conn, connMutex := range h.clients {
		connMutex.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		connMutex.Unlock()
		delete(h.clients, conn)
	}
}
