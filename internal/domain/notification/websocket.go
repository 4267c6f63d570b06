package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"stitchworks/internal/domain/auth"
	jwtsvc "stitchworks/internal/pkg/jwt"
)

// Close codes used during the websocket handshake. Kept in the 4xxx
// application range so clients can distinguish auth failures from
// transport-level closes.
const (
	CloseTokenRequired = 4001
	CloseTokenExpired  = 4002
	CloseTokenInvalid  = 4003
	CloseUserNotFound  = 4004
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Allow all origins (configure in prod)
}

// WSHandler upgrades admin clients onto the notification channel.
type WSHandler struct {
	hub     *Hub
	jwt     *jwtsvc.Service
	service *Service
	users   *auth.UserRepository
}

func NewWSHandler(hub *Hub, jwt *jwtsvc.Service, service *Service, users *auth.UserRepository) *WSHandler {
	return &WSHandler{
		hub:     hub,
		jwt:     jwt,
		service: service,
		users:   users,
	}
}

// HandleWebSocket serves GET /ws/notifications?token=JWT.
//
// The token travels as a query parameter: the handshake is a plain HTTP
// upgrade and long-lived streaming clients do not uniformly support custom
// headers. Auth failures close the socket with an application close code
// rather than failing the upgrade, so clients can read the reason.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	token := c.Query("token")
	if token == "" {
		closeWith(ws, CloseTokenRequired, "Token required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwtsvc.ErrTokenExpired) {
			closeWith(ws, CloseTokenExpired, "Token expired")
		} else {
			closeWith(ws, CloseTokenInvalid, "Invalid token")
		}
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		closeWith(ws, CloseUserNotFound, "User not found")
		return
	}

	cn := &conn{
		userID:  user.ID,
		isAdmin: user.IsAdmin(),
		ws:      ws,
		send:    make(chan []byte, 256),
	}
	h.hub.register(cn)
	log.Info().Str("user_id", user.ID).Bool("is_admin", cn.isAdmin).Msg("websocket connected")

	go h.hub.writePump(cn)

	// Handshake: authoritative unread baseline for this channel.
	if cn.isAdmin {
		unread, err := h.service.UnreadCount(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("unread count for handshake")
			unread = 0
		}
		h.hub.sendTo(cn, NewConnectedEvent(unread))
	}

	h.readPump(cn)
}

func (h *WSHandler) readPump(c *conn) {
	defer func() {
		h.hub.unregister(c)
		c.ws.Close()
		log.Info().Str("user_id", c.userID).Msg("websocket disconnected")
	}()

	c.ws.SetReadLimit(maxMsgSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user_id", c.userID).Msg("websocket read error")
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn().Str("user_id", c.userID).Msg("discarding malformed websocket message")
			continue
		}

		switch msg.Type {
		case "ping":
			h.hub.sendTo(c, NewPongEvent())
		case "mark_read":
			h.handleMarkRead(c, msg)
		default:
			log.Debug().Str("type", msg.Type).Msg("ignoring unknown websocket message type")
		}
	}
}

func (h *WSHandler) handleMarkRead(c *conn, msg ClientMessage) {
	if !c.isAdmin || msg.NotificationID == "" {
		return
	}

	// Service broadcasts notification_read to all admin connections,
	// including this one.
	if err := h.service.MarkRead(context.Background(), msg.NotificationID); err != nil {
		if !errors.Is(err, ErrNotificationNotFound) {
			log.Error().Err(err).Str("notification_id", msg.NotificationID).Msg("mark read via websocket")
		}
	}
}

func closeWith(ws *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	ws.Close()
}
