package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mookzZ/fast-websockets/internal/audit"
	"github.com/mookzZ/fast-websockets/internal/cache"
	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/events"
	"github.com/mookzZ/fast-websockets/internal/hub"
	"github.com/mookzZ/fast-websockets/internal/registry"
	"github.com/mookzZ/fast-websockets/internal/repository"
	"github.com/mookzZ/fast-websockets/internal/token"
	"github.com/mookzZ/fast-websockets/pkg/log"
)

type chatService struct {
	tokens   *token.Manager
	users    repository.UserRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository
	registry *registry.Registry
	cache    cache.MessageCache
	producer events.Producer
}

// NewChatService wires the live-session core.
func NewChatService(
	tokens *token.Manager,
	users repository.UserRepository,
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	reg *registry.Registry,
	msgCache cache.MessageCache,
	producer events.Producer,
) ChatService {
	return &chatService{
		tokens:   tokens,
		users:    users,
		chats:    chats,
		messages: messages,
		registry: reg,
		cache:    msgCache,
		producer: producer,
	}
}

// Authorize resolves the token to a stored user, then checks that the
// chat exists and the user is a member. Later membership revocation does
// not retroactively close the connection; the staleness window is
// bounded by the connection lifetime.
func (s *chatService) Authorize(ctx context.Context, rawToken string, chatID int64) (*domain.User, error) {
	claims, err := s.tokens.Validate(rawToken)
	if err != nil {
		audit.Log(ctx, audit.ActionAuthFailed, 0, "token rejected")
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		audit.Log(ctx, audit.ActionAuthFailed, claims.UserID, "token user not found")
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}

	exists, err := s.chats.Exists(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}
	if !exists {
		return nil, ErrChatNotFound
	}

	member, err := s.chats.IsMember(ctx, chatID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("%w: user %d, chat %d", ErrNotMember, user.ID, chatID)
	}

	return user, nil
}

func (s *chatService) Register(ctx context.Context, client *hub.Client) {
	s.registry.Connect(client.UserID, client)
	audit.Log(ctx, audit.ActionConnect, client.UserID, "websocket connected")
}

func (s *chatService) HandleFrame(ctx context.Context, client *hub.Client, payload []byte) {
	l := log.Ctx(ctx)

	var frame domain.InboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		client.SendJSON(&domain.ErrorFrame{Error: "Message must be valid JSON"})
		return
	}

	if frame.Type != domain.FrameTypeMessage || strings.TrimSpace(frame.Content) == "" {
		client.SendJSON(&domain.ErrorFrame{Error: "Invalid message format, expected type 'message' and 'content'"})
		return
	}

	// Persist first; the broadcast carries the server-assigned id and
	// timestamp. An unpersisted message is never broadcast.
	msg, err := s.messages.Create(ctx, client.ChatID, client.UserID, frame.Content)
	if err != nil {
		l.Error().Err(err).
			Int64(log.FieldChatID, client.ChatID).
			Int64(log.FieldUserID, client.UserID).
			Msg("failed to persist message")
		client.SendJSON(&domain.ErrorFrame{Error: "Failed to send message"})
		return
	}

	if err := s.cache.Invalidate(ctx, client.ChatID); err != nil {
		l.Warn().Err(err).Int64(log.FieldChatID, client.ChatID).Msg("failed to invalidate history cache")
	}
	if err := s.producer.PublishMessage(ctx, msg); err != nil {
		l.Warn().Err(err).Int64(log.FieldMessageID, msg.ID).Msg("failed to publish message event")
	}

	// Membership is re-read per message, so additions and removals are
	// visible on the next message without touching open connections.
	memberIDs, err := s.chats.ListMemberIDs(ctx, client.ChatID)
	if err != nil {
		l.Error().Err(err).
			Int64(log.FieldChatID, client.ChatID).
			Msg("failed to resolve chat members, broadcast skipped")
		return
	}

	out, err := json.Marshal(domain.NewOutboundMessage(msg, client.Username))
	if err != nil {
		l.Error().Err(err).Msg("failed to marshal broadcast frame")
		return
	}

	s.registry.Broadcast(memberIDs, out)

	audit.Log(ctx, audit.ActionSendMessage, client.UserID, "message broadcast")
}

func (s *chatService) HandleDisconnect(ctx context.Context, client *hub.Client) {
	s.registry.Disconnect(client.UserID, client)
	audit.Log(ctx, audit.ActionDisconnect, client.UserID, "websocket disconnected")
}
