package network

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/engine"
	"github.com/phantomguild/system-server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"` // "UPDATE_PROGRESS", "STRUGGLE", etc.
	Email   string          `json:"email"`
	Payload json.RawMessage `json:"payload"` // Action-specific data
}

// actionResponse is sent back to the acting client only.
type actionResponse struct {
	Type  string      `json:"type"`
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Client represents an active WebSocket connection.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	cooldown       time.Duration // minimum gap between non-exempt actions
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	cooldown := time.Duration(0)
	if hub.tuning.MaxActionsPerSecond > 0 {
		cooldown = time.Second / time.Duration(hub.tuning.MaxActionsPerSecond)
	}
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.tuning.ClientSendBuffer),
		cooldown: cooldown,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error: %v", err)
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket: %v", err)
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	// Struggle is a click mini-game: 50 rapid interactions are the
	// whole point, so it bypasses the cooldown.
	if action.Type != "STRUGGLE" {
		if time.Since(c.lastActionTime) < c.cooldown {
			c.hub.logger.Warn("Rate limit exceeded for action %s from %s", action.Type, action.Email)
			return
		}
		c.lastActionTime = time.Now()
	}

	ctx := context.Background()

	// Login and chat work without a live session; everything else
	// requires one.
	switch action.Type {
	case "LOGIN":
		c.handleLogin(ctx, action)
		return
	case "CHAT":
		c.handleChat(ctx, action)
		return
	}

	session, ok := c.hub.manager.Get(action.Email)
	if !ok {
		c.respond(action.Type, engine.ErrNoActiveSession, nil)
		return
	}

	switch action.Type {
	case "LOGOUT":
		c.hub.manager.Logout(ctx, action.Email)
		c.respond(action.Type, nil, nil)
	case "UPDATE_PROGRESS":
		c.handleUpdateProgress(ctx, session, action.Payload)
	case "COMPLETE_QUEST":
		result, err := session.CompleteQuest(ctx)
		if err != nil {
			c.respond(action.Type, err, nil)
			return
		}
		c.respond(action.Type, nil, map[string]interface{}{
			"leveled_up": result.LeveledUp,
			"player":     result.Player,
		})
	case "FORFEIT":
		activated := session.Forfeit()
		c.respond(action.Type, nil, map[string]interface{}{"activated": activated})
	case "STRUGGLE":
		result := session.Struggle(ctx)
		c.respond(action.Type, nil, map[string]interface{}{
			"clicks_remaining": result.ClicksRemaining,
			"gate_open":        result.State == engine.PenaltyGateOpen,
			"survived":         result.Survived,
		})
	case "PURCHASE":
		c.handlePurchase(ctx, session, action.Payload)
	case "EQUIP":
		c.handleItemAction(action.Type, action.Payload, func(id string) error {
			return session.EquipItem(ctx, id)
		})
	case "UNEQUIP":
		c.handleUnequip(ctx, session, action.Payload)
	case "USE_ITEM", "DISCARD_ITEM":
		c.handleItemAction(action.Type, action.Payload, func(id string) error {
			return session.RemoveItem(ctx, id)
		})
	case "UPGRADE_STAT":
		c.handleUpgradeStat(ctx, session, action.Payload)
	case "STATUS":
		c.respond(action.Type, nil, map[string]interface{}{
			"player":    session.Player(),
			"today":     session.Today(),
			"inventory": session.Inventory(),
			"bonuses":   session.EquippedBonuses(),
		})
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: %s", action.Type)
	}
}

func (c *Client) handleLogin(ctx context.Context, action PlayerAction) {
	var parsed struct {
		Username string `json:"username"`
	}
	if len(action.Payload) > 0 {
		if err := json.Unmarshal(action.Payload, &parsed); err != nil {
			c.respond(action.Type, err, nil)
			return
		}
	}

	session, err := c.hub.manager.Login(ctx, action.Email, parsed.Username)
	if err != nil {
		c.respond(action.Type, err, nil)
		return
	}
	c.respond(action.Type, nil, map[string]interface{}{
		"player": session.Player(),
		"today":  session.Today(),
	})
}

func (c *Client) handleChat(ctx context.Context, action PlayerAction) {
	var parsed struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(action.Payload, &parsed); err != nil {
		c.respond(action.Type, err, nil)
		return
	}

	reply := c.hub.narrator.Ask(ctx, action.Email, parsed.Query)
	c.respond(action.Type, nil, map[string]interface{}{"reply": reply})
}

func (c *Client) handleUpdateProgress(ctx context.Context, session *engine.Session, rawPayload []byte) {
	var parsed struct {
		Field string  `json:"field"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.respond("UPDATE_PROGRESS", err, nil)
		return
	}

	if err := session.UpdateProgress(ctx, parsed.Field, parsed.Value); err != nil {
		c.respond("UPDATE_PROGRESS", err, nil)
		return
	}
	c.respond("UPDATE_PROGRESS", nil, map[string]interface{}{
		"today":     session.Today(),
		"goals_met": session.GoalsMet(),
	})
}

func (c *Client) handlePurchase(ctx context.Context, session *engine.Session, rawPayload []byte) {
	var parsed struct {
		CatalogID string `json:"catalog_id"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.respond("PURCHASE", err, nil)
		return
	}

	purchased, err := session.PurchaseItem(ctx, parsed.CatalogID)
	if err != nil {
		c.respond("PURCHASE", err, nil)
		return
	}
	c.respond("PURCHASE", nil, map[string]interface{}{"item": purchased})
}

func (c *Client) handleUnequip(ctx context.Context, session *engine.Session, rawPayload []byte) {
	var parsed struct {
		Slot string `json:"slot"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.respond("UNEQUIP", err, nil)
		return
	}

	session.UnequipSlot(ctx, player.EquipmentSlot(parsed.Slot))
	c.respond("UNEQUIP", nil, nil)
}

func (c *Client) handleUpgradeStat(ctx context.Context, session *engine.Session, rawPayload []byte) {
	var parsed struct {
		Stat string `json:"stat"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.respond("UPGRADE_STAT", err, nil)
		return
	}

	if err := session.UpgradeStat(ctx, parsed.Stat); err != nil {
		c.respond("UPGRADE_STAT", err, nil)
		return
	}
	c.respond("UPGRADE_STAT", nil, map[string]interface{}{"stats": session.Player().Stats})
}

// handleItemAction parses the shared {item_id} payload and applies fn.
func (c *Client) handleItemAction(actionType string, rawPayload []byte, fn func(id string) error) {
	var parsed struct {
		ItemID string `json:"item_id"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.respond(actionType, err, nil)
		return
	}

	if err := fn(parsed.ItemID); err != nil {
		c.respond(actionType, err, nil)
		return
	}
	c.respond(actionType, nil, nil)
}

// respond sends an acknowledgement to this client only.
func (c *Client) respond(actionType string, err error, data interface{}) {
	resp := actionResponse{Type: actionType, OK: err == nil, Data: data}
	if err != nil {
		resp.Error = err.Error()
	}

	payload, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		c.hub.logger.Error("Failed to serialize action response: %v", marshalErr)
		return
	}

	select {
	case c.send <- payload:
		metrics.Get().RecordWSMessage(false)
	default:
		// Send buffer full; the write pump will tear the client down.
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
