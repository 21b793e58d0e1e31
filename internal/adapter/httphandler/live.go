package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/niksmo/prime-house/internal/core/port"
)

// GET v1/properties/live (101 Switching protocols)
// Every applied snapshot is pushed as LiveEvent, the client only answers pings.

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512

	EventSnapshot = "snapshot"
)

type LiveHandler struct {
	watcher  port.PropertiesWatcher
	upgrader websocket.Upgrader
}

// NewLiveHandler accepts any origin when origins is empty.
func NewLiveHandler(watcher port.PropertiesWatcher, origins []string) LiveHandler {
	return LiveHandler{
		watcher: watcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(origins),
		},
	}
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "LiveHandler.ServeHTTP"
	log := slog.With("op", op, "remote", r.RemoteAddr)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.readPump(conn, cancel)

	log.Info("live client connected")
	h.writePump(ctx, conn, log)
	log.Info("live client disconnected")
}

// readPump drains the peer so control frames are processed, cancel is
// called once the peer goes away.
func (h LiveHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h LiveHandler) writePump(
	ctx context.Context, conn *websocket.Conn, log *slog.Logger,
) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	snapshots := h.watcher.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		case docs, ok := <-snapshots:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteJSON(LiveEvent{
				Event: EventSnapshot,
				Data:  propertiesFromDomain(docs),
			})
			if err != nil {
				log.Warn("failed to write snapshot", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("failed to write ping", "err", err)
				return
			}
		}
	}
}

func checkOrigin(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
