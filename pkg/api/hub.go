package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/monitor"
)

const writeDeadline = 5 * time.Second

// Hub fans out monitor.Sample telemetry to every connected /stream
// websocket client, the live counterpart to pkg/storage's durable
// snapshot log (SPEC_FULL.md §6's "stream" sink).
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan monitor.Sample]struct{}
}

// NewHub builds an empty hub. allowedOrigin "*" accepts any origin,
// matching a local-first CLI tool with no browser-facing deployment.
func NewHub(allowedOrigin string) *Hub {
	return &Hub{
		clients: make(map[chan monitor.Sample]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin == "*" || r.Header.Get("Origin") == ""
			},
		},
	}
}

// Sink returns a monitor.Sink that broadcasts every sample to all
// currently connected clients. Slow clients are dropped rather than
// blocking the simulation's sample loop.
func (h *Hub) Sink() monitor.Sink {
	return h.broadcast
}

func (h *Hub) broadcast(sample monitor.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- sample:
		default:
			log.Warn("dropping stream sample for slow websocket client")
		}
	}
}

func (h *Hub) register() chan monitor.Sample {
	ch := make(chan monitor.Sample, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan monitor.Sample) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

// ServeHTTP upgrades the request to a websocket and streams samples
// until the client disconnects or the connection errors out.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed: " + err.Error())
		return
	}
	defer conn.Close()

	ch := h.register()
	defer h.unregister(ch)

	// A client that never reads is still worth watching for a close
	// frame, so drain reads on a background goroutine.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(sample); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
