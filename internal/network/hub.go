// Package network provides the WebSocket surface: one hub fanning out
// system events, one client per connected frontend routing actions
// into the engine.
package network

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/phantomguild/system-server/internal/engine"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/narrator"
	"github.com/phantomguild/system-server/internal/platform/logger"
	"github.com/phantomguild/system-server/internal/platform/metrics"
	"github.com/phantomguild/system-server/internal/platform/tuning"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	manager  *engine.Manager
	narrator *narrator.Narrator
	logger   *logger.Logger
	tuning   *tuning.Config
}

// NewHub initializes a new WebSocket Hub. A nil cfg uses the defaults.
func NewHub(manager *engine.Manager, voice *narrator.Narrator, log *logger.Logger, cfg *tuning.Config) *Hub {
	if cfg == nil {
		cfg = tuning.DefaultConfig()
	}
	return &Hub{
		broadcast:  make(chan []byte, cfg.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		manager:    manager,
		narrator:   voice,
		logger:     log,
		tuning:     cfg,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.tuning.MaxClients {
				h.mu.Unlock()
				close(client.send)
				metrics.Get().RecordWSError()
				h.logger.Warn("Connection refused: client limit %d reached", h.tuning.MaxClients)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent serializes a system event and sends it to all clients.
func (h *Hub) BroadcastEvent(event events.SystemEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize event for WebSocket broadcast: %v", err)
		return
	}
	h.broadcast <- payload
}

// WatchEventLog subscribes to the event log and pushes every appended
// event to connected clients. Runs until ctx is cancelled.
func (h *Hub) WatchEventLog(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		sub := eventLog.Subscribe(h.tuning.EventSubscriberBuffer)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-sub:
				h.BroadcastEvent(event)
			}
		}
	}()
}
