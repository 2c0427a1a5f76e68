package notifier

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/registry"
	"github.com/mookzZ/fast-websockets/pkg/log"
)

// Notifier pushes one-off membership notifications to a user's live
// connections. Delivery is fire-and-forget: nothing is persisted and an
// offline user simply misses the notification.
type Notifier struct {
	registry *registry.Registry
	logger   zerolog.Logger
}

// New creates a notifier delivering through the given registry.
func New(reg *registry.Registry, logger zerolog.Logger) *Notifier {
	return &Notifier{registry: reg, logger: logger}
}

// NotifyInvite tells a user they were added to a chat. Call it only
// after the membership row is durably recorded.
func (n *Notifier) NotifyInvite(ctx context.Context, userID, chatID int64, chatName, inviterUsername string) {
	if chatName == "" {
		chatName = "Unnamed Group"
	}

	payload, err := json.Marshal(&domain.InviteNotification{
		Type:            domain.FrameTypeInvite,
		ChatID:          chatID,
		ChatName:        chatName,
		InviterUsername: inviterUsername,
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to marshal invite notification")
		return
	}

	n.registry.SendTo(userID, payload)

	n.logger.Debug().
		Int64(log.FieldUserID, userID).
		Int64(log.FieldChatID, chatID).
		Msg("invite notification dispatched")
}
