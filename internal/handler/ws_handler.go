package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mookzZ/fast-websockets/internal/config"
	"github.com/mookzZ/fast-websockets/internal/hub"
	"github.com/mookzZ/fast-websockets/internal/service"
	"github.com/mookzZ/fast-websockets/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler terminates chat websocket connections.
type WSHandler struct {
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		service: svc,
		wsCfg:   wsCfg,
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/:chat_id", h.HandleWebSocket)
}

// HandleWebSocket authenticates and authorizes the handshake, registers
// the connection, and runs the session's read loop. Rejected handshakes
// close with a code and carry no application data:
//
//	1008 policy violation  - missing/invalid token, not a member
//	1003 unsupported data  - chat does not exist
//	1011 internal error    - unhandled fault
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	token := c.Query("token")
	if token == "" {
		closeWith(conn, websocket.ClosePolicyViolation)
		return
	}

	ctx := c.Request.Context()
	user, err := h.service.Authorize(ctx, token, chatID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatNotFound):
			closeWith(conn, websocket.CloseUnsupportedData)
		case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrNotMember):
			closeWith(conn, websocket.ClosePolicyViolation)
		default:
			l.Error().Err(err).Int64(log.FieldChatID, chatID).Msg("websocket authorization failed")
			closeWith(conn, websocket.CloseInternalServerErr)
		}
		return
	}

	client := hub.NewClient(conn, user.ID, user.Username, chatID, h.wsCfg)

	sessionLogger := l.With().
		Int64(log.FieldUserID, user.ID).
		Str(log.FieldUsername, user.Username).
		Int64(log.FieldChatID, chatID).
		Logger()
	// The request context dies when this handler returns; the session
	// outlives it.
	sessionCtx := log.WithLogger(context.Background(), sessionLogger)

	h.service.Register(sessionCtx, client)

	go client.WritePump()
	go client.ReadPump(
		func(payload []byte) {
			h.service.HandleFrame(sessionCtx, client, payload)
		},
		func() {
			// Runs exactly once on any exit path of the read loop, so a
			// dead connection never stays registered.
			h.service.HandleDisconnect(sessionCtx, client)
		},
	)
}

func closeWith(conn *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	conn.WriteMessage(websocket.CloseMessage, msg)
	conn.Close()
}
