package devserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relight-dev/relight/internal/logging"
)

// Broadcaster is the publish side of the live-reload channel.
type Broadcaster interface {
	Publish(ev BroadcastEvent)
}

// publishQueueSize bounds the number of pending deliveries. Publishes
// beyond it are dropped, consistent with fire-and-forget delivery.
const publishQueueSize = 1024

// delivery is one queued frame with the time it becomes due.
type delivery struct {
	data  []byte
	dueAt time.Time
}

// Channel pushes JSON-encoded build events to connected browsers over
// WebSocket. All deliveries flow through a single dispatcher goroutine:
// publishes are delivered in call order, each one no earlier than its own
// delay after the Publish call, and no two frames are ever written to a
// connection concurrently.
type Channel struct {
	delay    time.Duration
	upgrader websocket.Upgrader
	log      zerolog.Logger

	queue chan delivery
	done  chan struct{}

	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	listener net.Listener
	server   *http.Server
	closed   bool

	// OnClientCountChange, when set before Open, observes membership
	// changes (used to drive the connected-clients gauge).
	OnClientCountChange func(n int)
}

// NewChannel creates a live-reload channel with the given broadcast delay.
func NewChannel(delay time.Duration) *Channel {
	c := &Channel{
		delay:   delay,
		log:     logging.Component("channel"),
		queue:   make(chan delivery, publishQueueSize),
		done:    make(chan struct{}),
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dev-only channel, any origin may subscribe
			},
		},
	}
	go c.dispatch()
	return c
}

// Open binds the channel's WebSocket endpoint on the given port.
func (c *Channel) Open(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/socket", c.HandleWebSocket)

	c.mu.Lock()
	c.listener = ln
	c.server = &http.Server{Handler: mux}
	server := c.server
	c.mu.Unlock()

	go server.Serve(ln)

	c.log.Debug().Int("port", port).Msg("live-reload channel open")
	return nil
}

// Port returns the bound port, or zero when the channel is not open.
func (c *Channel) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return 0
	}
	addr, ok := c.listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return addr.Port
}

// HandleWebSocket upgrades a subscriber connection and tracks it until the
// client disconnects.
func (c *Channel) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		http.Error(w, "channel closed", http.StatusGone)
		return
	}
	c.mu.Unlock()

	conn, err := c.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.clients[conn] = true
	n := len(c.clients)
	c.mu.Unlock()
	c.notifyCount(n)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	c.mu.Lock()
	delete(c.clients, conn)
	n = len(c.clients)
	c.mu.Unlock()
	c.notifyCount(n)
	conn.Close()
}

// Publish enqueues delivery of the event to all currently-open connections
// after the configured delay. Delivery is fire-and-forget: a connection
// that closed in the meantime is skipped silently.
func (c *Channel) Publish(ev BroadcastEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	select {
	case c.queue <- delivery{data: data, dueAt: time.Now().Add(c.delay)}:
	default:
		c.log.Warn().Msg("publish queue full, frame dropped")
	}
}

// dispatch drains the publish queue in FIFO order, waiting out each
// frame's remaining delay before writing it. Being the only writer, it
// keeps frames in publish order and never writes a connection
// concurrently.
func (c *Channel) dispatch() {
	for {
		select {
		case <-c.done:
			return
		case d := <-c.queue:
			if wait := time.Until(d.dueAt); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-c.done:
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			c.deliver(d.data)
		}
	}
}

// deliver writes a frame to every open connection. Dead connections are
// dropped from membership without error.
func (c *Channel) deliver(data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	clients := make([]*websocket.Conn, 0, len(c.clients))
	for conn := range c.clients {
		clients = append(clients, conn)
	}
	c.mu.Unlock()

	for _, conn := range clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.mu.Lock()
			delete(c.clients, conn)
			n := len(c.clients)
			c.mu.Unlock()
			c.notifyCount(n)
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (c *Channel) ClientCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// Close stops accepting new connections and terminates existing ones.
// Pending queued deliveries become no-ops. Idempotent; once Close returns
// no further events reach any subscriber.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	server := c.server
	for conn := range c.clients {
		conn.Close()
		delete(c.clients, conn)
	}
	c.mu.Unlock()

	close(c.done)
	c.notifyCount(0)

	if server != nil {
		return server.Close()
	}
	return nil
}

func (c *Channel) notifyCount(n int) {
	if c.OnClientCountChange != nil {
		c.OnClientCountChange(n)
	}
}
