// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"audioscope/internal/audio"
	applog "audioscope/internal/log"

	"github.com/gorilla/websocket"
)

const (
	broadcastQueue = 8
	writeTimeout   = time.Second
)

// WebSocketTransport serves snapshots as JSON Messages on /ws. Slow clients
// never stall the display loop: when the broadcast queue is full the
// snapshot is dropped.
type WebSocketTransport struct {
	log       *applog.Entry
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan *audio.Snapshot
	done      chan struct{}
	closeOnce sync.Once

	listener net.Listener
	server   *http.Server
	wg       sync.WaitGroup
}

// NewWebSocketTransport listens on addr and starts serving. Use ":0" to pick
// a free port and Addr to find it.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	wst := &WebSocketTransport{
		log: applog.With("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local viewer pages are served from anywhere.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan *audio.Snapshot, broadcastQueue),
		done:      make(chan struct{}),
		listener:  listener,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	wst.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		wst.log.Infof("Starting WebSocket server on %s", listener.Addr())
		if err := wst.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wst.log.Errorf("Server error: %v", err)
		}
	}()
	go func() {
		defer wst.wg.Done()
		wst.handleBroadcasts()
	}()

	return wst, nil
}

// Addr returns the address the server is listening on.
func (wst *WebSocketTransport) Addr() net.Addr {
	return wst.listener.Addr()
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warnf("Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	wst.log.Infof("Client connected from %s, total: %d", r.RemoteAddr, total)

	// Clients only listen; the first read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	if ok {
		conn.Close()
		wst.log.Infof("Client disconnected, total: %d", total)
	}
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case snapshot := <-wst.broadcast:
			data, err := json.Marshal(NewMessage(snapshot))
			if err != nil {
				wst.log.Errorf("Encode snapshot %d: %v", snapshot.Seq, err)
				continue
			}
			msg, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
			if err != nil {
				wst.log.Errorf("Prepare message: %v", err)
				continue
			}

			wst.clientsMu.Lock()
			clients := make([]*websocket.Conn, 0, len(wst.clients))
			for client := range wst.clients {
				clients = append(clients, client)
			}
			wst.clientsMu.Unlock()

			for _, client := range clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WritePreparedMessage(msg); err != nil {
					wst.log.Warnf("Error sending to client: %v", err)
					wst.drop(client)
				}
			}
		}
	}
}

// Send queues the snapshot for broadcast, dropping it when the queue is full.
func (wst *WebSocketTransport) Send(s *audio.Snapshot) error {
	select {
	case <-wst.done:
		return errors.New("websocket transport closed")
	default:
	}

	select {
	case wst.broadcast <- s:
	default:
		// Channel full, drop message
	}
	return nil
}

// Close shuts down the server and disconnects every client.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		wst.log.Infof("Closing server")
		close(wst.done)
		err = wst.server.Close()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		wst.wg.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
