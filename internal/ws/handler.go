// Package ws is the real-time surface: per-connection authentication, the
// event dispatch loop, and the read/write pumps. Business behaviour lives in
// the service layer shared with the REST handlers.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/auth"
	"github.com/khalteck/Rooms/internal/hub"
	"github.com/khalteck/Rooms/internal/presence"
	"github.com/khalteck/Rooms/internal/service"
)

type Config struct {
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
}

type Handler struct {
	hub           *hub.Hub
	tokens        *auth.Manager
	presence      *presence.Tracker
	rooms         *service.RoomService
	messages      *service.MessageService
	notifications *service.NotificationService
	cfg           Config
	log           *zap.SugaredLogger
}

func NewHandler(
	h *hub.Hub,
	tokens *auth.Manager,
	tracker *presence.Tracker,
	rooms *service.RoomService,
	messages *service.MessageService,
	notifications *service.NotificationService,
	cfg Config,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		hub:           h,
		tokens:        tokens,
		presence:      tracker,
		rooms:         rooms,
		messages:      messages,
		notifications: notifications,
		cfg:           cfg,
		log:           log,
	}
}

// Handle runs one socket connection to completion. Authentication happens
// before any event is processed: the bearer token comes from the `token`
// query parameter or the Authorization header, and a bad token closes the
// connection with an authentication error.
func (h *Handler) Handle(conn *websocket.Conn) {
	userID, err := h.authenticate(conn)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Authentication error: "+err.Error()))
		_ = conn.Close()
		return
	}

	connID := uuid.NewString()
	client := newClient(conn, h.log)

	// registration puts the connection in its personal group (user:<id>)
	// so every device of this user receives server-initiated pushes
	h.hub.Register(connID, userID, client)
	h.presence.Connect(context.Background(), userID, connID)
	h.log.Infow("ws: connected", "user", userID, "conn", connID)

	go client.writePump(h.cfg.PingInterval, h.cfg.WriteDeadline)

	h.readLoop(conn, connID, userID, client)

	// a disconnect mid-operation never aborts in-flight persistence;
	// whatever completes after this point broadcasts into a gone
	// connection, which is a no-op
	h.hub.Unregister(connID)
	h.presence.Disconnect(context.Background(), userID, connID, h.hub.ConnectionCount(userID))
	client.close()
	h.log.Infow("ws: disconnected", "user", userID, "conn", connID)
}

func (h *Handler) authenticate(conn *websocket.Conn) (string, error) {
	return h.resolveToken(conn.Query("token"), conn.Headers("Authorization"))
}

// resolveToken validates the handshake credential: the `token` query parameter
// wins, falling back to the Authorization header.
func (h *Handler) resolveToken(queryToken, authHeader string) (string, error) {
	token := queryToken
	if token == "" && authHeader != "" {
		token, _ = auth.ParseBearer(authHeader)
	}
	if token == "" {
		return "", auth.ErrNoToken
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		return "", auth.ErrInvalidToken
	}
	return claims.UserID, nil
}

func (h *Handler) readLoop(conn *websocket.Conn, connID, userID string, client *Client) {
	conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.cfg.PingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.cfg.PingInterval))
	})

	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			client.Send("error", map[string]any{"message": "Invalid message format"})
			continue
		}
		h.dispatch(connID, userID, client, env)
	}
}

func (h *Handler) dispatch(connID, userID string, client *Client, env envelope) {
	ctx := context.Background()

	switch env.Event {
	case "getRooms":
		var p struct {
			Search string `json:"search"`
		}
		_ = json.Unmarshal(env.Data, &p)
		rooms, err := h.rooms.List(ctx, userID, p.Search)
		if err != nil {
			h.emitError(client, err, "Failed to fetch rooms")
			return
		}
		client.Send("roomsList", map[string]any{"rooms": rooms})

	case "joinRoom":
		var p struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		if err := h.rooms.Authorize(ctx, userID, p.RoomID); err != nil {
			h.emitError(client, err, "Failed to join room")
			return
		}
		h.hub.JoinRoom(connID, p.RoomID)
		client.Send("joinedRoom", map[string]any{"roomId": p.RoomID})

	case "leaveRoom":
		var p struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		// local-only: detaches this connection from the broadcast
		// group, unlike the REST leave which edits the participant list
		h.hub.LeaveRoom(connID, p.RoomID)
		client.Send("leftRoom", map[string]any{"roomId": p.RoomID})

	case "getMessages":
		var p struct {
			RoomID string `json:"roomId"`
			Limit  int64  `json:"limit"`
			Cursor string `json:"cursor"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		msgs, page, err := h.messages.GetMessages(ctx, userID, p.RoomID, p.Limit, p.Cursor)
		if err != nil {
			h.emitError(client, err, "Failed to fetch messages")
			return
		}
		client.Send("messagesList", map[string]any{
			"roomId":     p.RoomID,
			"messages":   msgs,
			"pagination": page,
		})

	case "sendMessage":
		var p struct {
			RoomID  string `json:"roomId"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			client.Send("error", map[string]any{"message": "Invalid message data"})
			return
		}
		// success is broadcast by the pipeline itself (newMessage to the
		// room group includes the sender); only failures come back here
		if _, err := h.messages.Send(ctx, userID, p.RoomID, p.Content); err != nil {
			h.emitError(client, err, "Failed to send message")
		}

	case "markMessagesAsRead":
		var p struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		if err := h.messages.MarkRead(ctx, userID, p.RoomID); err != nil {
			h.emitError(client, err, "Failed to mark messages as read")
			return
		}
		client.Send("messagesMarkedAsRead", map[string]any{"roomId": p.RoomID})

	case "getNotifications":
		var p struct {
			Limit int64 `json:"limit"`
			Skip  int64 `json:"skip"`
		}
		_ = json.Unmarshal(env.Data, &p)
		notifications, unread, err := h.notifications.List(ctx, userID, p.Limit, p.Skip)
		if err != nil {
			h.emitError(client, err, "Failed to fetch notifications")
			return
		}
		client.Send("notificationsList", map[string]any{
			"notifications": notifications,
			"unreadCount":   unread,
		})

	case "typing":
		var p struct {
			RoomID   string `json:"roomId"`
			IsTyping bool   `json:"isTyping"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		// ephemeral relay: not persisted, not throttled, typist excluded
		h.hub.EmitToRoomExcept(p.RoomID, connID, "userTyping", map[string]any{
			"roomId":   p.RoomID,
			"userId":   userID,
			"isTyping": p.IsTyping,
		})

	default:
		// unknown events are ignored
	}
}

// emitError reports a failure to the initiating connection only. Known errors
// carry their own message; anything else is logged in full and reduced to the
// fallback.
func (h *Handler) emitError(client *Client, err error, fallback string) {
	if e, ok := apperr.As(err); ok {
		msg := e.Message
		if e.Details != "" {
			msg = e.Details
		}
		client.Send("error", map[string]any{"message": msg})
		return
	}
	h.log.Errorw("ws: handler error", "err", err)
	client.Send("error", map[string]any{"message": fallback})
}
