package web

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// LiveEvent tells open dashboards that a key was refetched after a write.
type LiveEvent struct {
	Key     string `json:"key"`
	Version uint64 `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

type liveClient struct {
	conn *websocket.Conn
	send chan LiveEvent
}

// Hub fans cache refetches out to every connected dashboard tab.
type Hub struct {
	mu       sync.Mutex
	clients  map[*liveClient]struct{}
	cancels  []func()
	upgrader websocket.Upgrader
	closed   bool
}

func NewHub(store *querycache.Store, origins []string) *Hub {
	h := &Hub{clients: make(map[*liveClient]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOriginOr(origins),
	}
	for _, key := range querycache.Keys {
		h.cancels = append(h.cancels, store.Subscribe(key, h.publish))
	}
	return h
}

func sameOriginOr(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

func (h *Hub) publish(res querycache.Result) {
	ev := LiveEvent{Key: string(res.Key), Version: res.Entry.Version}
	if res.Err != nil {
		ev = LiveEvent{Key: string(res.Key), Error: "refetch failed"}
	}
	h.Broadcast(ev)
}

// Broadcast queues ev for every client. Clients too slow to keep up miss it.
func (h *Hub) Broadcast(ev LiveEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			log.Debug().Str("key", ev.Key).Msg("live client lagging, event dropped")
		}
	}
}

func (h *Hub) register(c *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients reports how many tabs are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops the cache subscriptions and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, cancel := range h.cancels {
		cancel()
	}
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS upgrades the request and streams LiveEvents until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("live upgrade failed")
		return
	}

	c := &liveClient{conn: conn, send: make(chan LiveEvent, 16)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	go c.writePump()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
