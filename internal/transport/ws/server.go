// Package ws serves the operator console over WebSocket.
package ws

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/juju/loggo/v2"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/catalogbot/internal/config"
	"github.com/xiaot623/catalogbot/internal/domain"
	"github.com/xiaot623/catalogbot/internal/hub"
	"github.com/xiaot623/catalogbot/internal/protocol"
)

var logger = loggo.GetLogger("catalogbot.transport.ws")

const stepTimeout = 30 * time.Second

// Engine runs one conversation step.
type Engine interface {
	HandleMessage(ctx context.Context, sessionID, text string) []domain.Reply
}

// Server handles console WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	engine   Engine
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, engine Engine) *Server {
	return &Server{
		cfg:    cfg,
		hub:    h,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warningf("failed to upgrade websocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	if err := s.hub.Register(conn); err != nil {
		ws.Close()
		return nil
	}

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the connection. Text messages are handled in
// arrival order.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warningf("websocket error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(conn, message)
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warningf("failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeText:
		s.handleText(conn, data)
	default:
		s.sendError(conn, baseMsg.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleHello binds the connection to a console session.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	if s.cfg.WSAPIKey != "" && subtle.ConstantTimeCompare([]byte(msg.APIKey), []byte(s.cfg.WSAPIKey)) != 1 {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeUnauthorized, "invalid api_key")
		return
	}

	// Console clients may only resume console sessions, never a chat's. The
	// id carries the session's login, so it gets the full 128 bits.
	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = protocol.SessionPrefix + uuid.New().String()
	} else if !strings.HasPrefix(sessionID, protocol.SessionPrefix) {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeInvalidMessage, "session_id must start with "+protocol.SessionPrefix)
		return
	}

	s.hub.BindSession(conn, sessionID)

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
	}
	if err := s.hub.SendJSONToConnection(conn, ack); err != nil {
		logger.Warningf("failed to send hello_ack: %v", err)
		return
	}

	logger.Infof("console session bound: %s", sessionID)
}

// handleText runs one conversation step and fans the replies out to every
// connection of the session.
func (s *Server) handleText(conn *hub.Connection, data []byte) {
	var msg protocol.TextMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid text message")
		return
	}

	sessionID := s.hub.SessionOf(conn)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	for _, r := range s.engine.HandleMessage(ctx, sessionID, msg.Content) {
		reply := protocol.ReplyMessage{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.TypeReply,
				Ts:        time.Now().UnixMilli(),
				RequestID: msg.RequestID,
				SessionID: sessionID,
			},
			Text:     r.Text,
			Keyboard: r.Keyboard.Buttons(),
		}
		if err := s.hub.BroadcastJSON(sessionID, reply); err != nil {
			logger.Warningf("failed to deliver reply to %s: %v", sessionID, err)
			return
		}
	}
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: s.hub.SessionOf(conn),
		},
		Code:    code,
		Message: message,
	}
	if err := s.hub.SendJSONToConnection(conn, errMsg); err != nil {
		logger.Warningf("failed to send error: %v", err)
	}
}
