package domain

import "time"

// WebSocket frame types.
const (
	FrameTypeMessage = "message"
	FrameTypeInvite  = "chat_invite_notification"
)

// InboundFrame is the only frame clients may send on a chat connection.
type InboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// OutboundMessage is broadcast to every chat member when a message persists.
type OutboundMessage struct {
	Type           string `json:"type"`
	ChatID         int64  `json:"chat_id"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

// NewOutboundMessage builds the broadcast frame for a persisted message.
func NewOutboundMessage(msg *Message, senderUsername string) *OutboundMessage {
	return &OutboundMessage{
		Type:           FrameTypeMessage,
		ChatID:         msg.ChatID,
		SenderID:       msg.SenderID,
		SenderUsername: senderUsername,
		Content:        msg.Content,
		Timestamp:      msg.Timestamp.Format(time.RFC3339Nano),
	}
}

// InviteNotification is pushed to a user when they are added to a chat.
type InviteNotification struct {
	Type            string `json:"type"`
	ChatID          int64  `json:"chat_id"`
	ChatName        string `json:"chat_name"`
	InviterUsername string `json:"inviter_username"`
}

// ErrorFrame is the reply to a malformed or rejected inbound frame. The
// session stays open after it is sent.
type ErrorFrame struct {
	Error string `json:"error"`
}
