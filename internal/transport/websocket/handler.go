package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dropmind/backend/internal/config"
	"github.com/dropmind/backend/internal/domain"
	"github.com/dropmind/backend/internal/service/bot"
	"github.com/dropmind/backend/internal/service/game"
	"github.com/dropmind/backend/pkg/auth"
	"github.com/dropmind/backend/pkg/uid"
	"github.com/gorilla/websocket"
)

// Handler manages WebSocket dependencies
type Handler struct {
	ConnManager    *ConnectionManager
	SessionManager *game.SessionManager
	BotConfig      bot.Config
	EngineSide     domain.PlayerID
	Upgrader       websocket.Upgrader
}

// NewHandler creates a new WebSocket handler with dependencies
func NewHandler(cm *ConnectionManager, sm *game.SessionManager, botCfg bot.Config, engineSide domain.PlayerID) *Handler {
	return &Handler{
		ConnManager:    cm,
		SessionManager: sm,
		BotConfig:      botCfg,
		EngineSide:     engineSide,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range config.AppConfig.AllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket is the HTTP handler that upgrades the connection
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn)
}

// handleConnection manages the lifecycle of a single WebSocket connection
func (h *Handler) handleConnection(conn *websocket.Conn) {
	// Set read deadline to detect stale connections
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	// Keep-alive pinger. WriteControl is safe alongside the connection
	// manager's data writes, a plain WriteMessage here would race them.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// 1. Wait for initialization
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("[WS] Read error during init: %v", err)
		conn.Close()
		return
	}

	var message domain.ClientMessage
	if err := json.Unmarshal(data, &message); err != nil {
		log.Printf("[WS] Invalid JSON during init: %v", err)
		conn.Close()
		return
	}
	if message.Type != "init" {
		log.Printf("[WS] Missing initialization message")
		conn.Close()
		return
	}

	// Resume guest identity from the token, or mint a fresh one
	var clientID string
	if message.Token != "" {
		if claims, err := auth.ValidateGuestToken(message.Token); err == nil {
			clientID = claims.ClientID
		} else {
			log.Printf("[WS] Invalid guest token, issuing new identity: %v", err)
		}
	}
	var freshToken string
	if clientID == "" {
		clientID = uid.GenerateClientID()
		freshToken, err = auth.GenerateGuestToken(clientID)
		if err != nil {
			log.Printf("[WS] Failed to generate guest token: %v", err)
			conn.Close()
			return
		}
	}

	log.Printf("[WS] Connection initialized for client %s", clientID)
	h.ConnManager.AddConnection(clientID, conn)

	// 2. Cleanup on exit. A stale connection must not tear down the
	// session a token-resumed reconnect is now playing on, so the session
	// is removed only when this connection is still the client's active
	// one.
	defer func() {
		log.Printf("[WS] Connection closed for client %s", clientID)
		if h.ConnManager.RemoveConnectionIfMatching(clientID, conn) {
			h.SessionManager.RemoveSession(clientID)
		}
	}()

	// 3. Build the session: per-client strategy override, or server default
	session, ok := h.SessionManager.GetSession(clientID)
	if !ok {
		botCfg := h.BotConfig
		if message.Strategy != "" {
			botCfg.Strategy = message.Strategy
		}
		engineSide := h.EngineSide
		if message.Side == 1 || message.Side == 2 {
			// the client picks its OWN side, the engine takes the other
			engineSide = domain.Opponent(domain.PlayerID(message.Side))
		}

		engine, err := bot.New(botCfg)
		if err != nil {
			log.Printf("[WS] Failed to build strategy for %s: %v", clientID, err)
			conn.WriteJSON(domain.ServerMessage{Type: "error", Message: "unknown strategy"})
			return
		}
		session = h.SessionManager.CreateSession(clientID, botCfg.Strategy, engine, engineSide)
	}

	conn.WriteJSON(domain.ServerMessage{Type: "init_ok", GameID: session.GameID, Token: freshToken})
	session.Start()

	// 4. Message loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.ConnManager.SendMessage(clientID, domain.ServerMessage{Type: "error", Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case "move":
			session.HandleHumanMove(msg.Column)
		case "reset":
			session.Reset()
		default:
			h.ConnManager.SendMessage(clientID, domain.ServerMessage{Type: "error", Message: "unknown message type"})
		}
	}
}
