package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WSHandler upgrades GET /ws/{user_id} and streams the caller's events.
type WSHandler struct {
	bus      *Bus
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(bus *Bus, log *slog.Logger) *WSHandler {
	return &WSHandler{
		bus: bus,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin; auth happens at
			// the message level, not via cookies, so origin checks
			// add nothing here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("realtime: websocket upgrade failed", "error", err)
		return
	}

	events, cancel := h.bus.Subscribe()
	h.log.Info("realtime: websocket connected", "user_id", userID)

	// Reader exists only to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		cancel()
		_ = conn.Close()
		h.log.Info("realtime: websocket closed", "user_id", userID)
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			// Per-connection filter: only the connection's own user.
			if ev.UserID != userID {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
