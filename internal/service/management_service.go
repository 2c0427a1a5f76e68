package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mookzZ/fast-websockets/internal/audit"
	"github.com/mookzZ/fast-websockets/internal/cache"
	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/notifier"
	"github.com/mookzZ/fast-websockets/internal/repository"
	"github.com/mookzZ/fast-websockets/internal/token"
	"github.com/mookzZ/fast-websockets/pkg/log"
)

type managementService struct {
	users    repository.UserRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository
	tokens   *token.Manager
	notifier *notifier.Notifier
	cache    cache.MessageCache
}

// NewManagementService wires the REST-facing account and chat admin
// operations.
func NewManagementService(
	users repository.UserRepository,
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	tokens *token.Manager,
	n *notifier.Notifier,
	msgCache cache.MessageCache,
) ManagementService {
	return &managementService{
		users:    users,
		chats:    chats,
		messages: messages,
		tokens:   tokens,
		notifier: n,
		cache:    msgCache,
	}
}

func (s *managementService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *managementService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, expiresAt, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *managementService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// CreateChat creates a group chat, or a private 1:1 chat with dedupe:
// an existing private chat between the two users is returned as is.
func (s *managementService) CreateChat(ctx context.Context, creatorID int64, req *domain.CreateChatRequest) (*domain.Chat, error) {
	if req.IsGroupChat {
		return s.createGroupChat(ctx, creatorID, req)
	}
	return s.createPrivateChat(ctx, creatorID, req)
}

func (s *managementService) createGroupChat(ctx context.Context, creatorID int64, req *domain.CreateChatRequest) (*domain.Chat, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: group chat requires a name", ErrInvalidRequest)
	}

	chat := &domain.Chat{
		Name:        req.Name,
		IsGroupChat: true,
		CreatorID:   &creatorID,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	if _, err := s.chats.AddMember(ctx, chat.ID, creatorID); err != nil {
		return nil, err
	}
	for _, memberID := range req.InitialMemberIDs {
		if memberID == creatorID {
			continue
		}
		if _, err := s.chats.AddMember(ctx, chat.ID, memberID); err != nil {
			return nil, err
		}
	}

	return s.chats.GetByID(ctx, chat.ID)
}

func (s *managementService) createPrivateChat(ctx context.Context, creatorID int64, req *domain.CreateChatRequest) (*domain.Chat, error) {
	if req.TargetUserID == nil {
		return nil, fmt.Errorf("%w: private chat requires target_user_id", ErrInvalidRequest)
	}
	targetID := *req.TargetUserID
	if targetID == creatorID {
		return nil, fmt.Errorf("%w: cannot create a private chat with yourself", ErrInvalidRequest)
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	existing, err := s.chats.FindPrivateChat(ctx, creatorID, targetID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrChatNotFound) {
		return nil, err
	}

	// Private chats carry no name or creator.
	chat := &domain.Chat{IsGroupChat: false}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	if _, err := s.chats.AddMember(ctx, chat.ID, creatorID); err != nil {
		return nil, err
	}
	if _, err := s.chats.AddMember(ctx, chat.ID, targetID); err != nil {
		return nil, err
	}

	return s.chats.GetByID(ctx, chat.ID)
}

func (s *managementService) ListChats(ctx context.Context, userID int64) ([]domain.Chat, error) {
	return s.chats.ListForUser(ctx, userID)
}

func (s *managementService) GetChat(ctx context.Context, chatID, callerID int64) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chatHasMember(chat, callerID) {
		return nil, fmt.Errorf("%w: not a chat member", ErrForbidden)
	}
	return chat, nil
}

// AddMember invites a user into a group chat. Only the creator may
// invite. The invite notification goes out only after the membership
// row is committed.
func (s *managementService) AddMember(ctx context.Context, chatID, callerID, userID int64) (*domain.ChatMember, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroupChat {
		return nil, fmt.Errorf("%w: cannot add members to a private chat", ErrInvalidRequest)
	}
	if chat.CreatorID == nil || *chat.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the chat creator may add members", ErrForbidden)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if chatHasMember(chat, userID) {
		return nil, repository.ErrAlreadyMember
	}

	member, err := s.chats.AddMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		// Membership is committed; the notification just loses the
		// inviter's name.
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to load inviter for notification")
		caller = &domain.User{}
	}
	s.notifier.NotifyInvite(ctx, userID, chatID, chat.Name, caller.Username)

	audit.LogWithDetail(ctx, audit.ActionInvite, callerID,
		fmt.Sprintf("invited user %d to chat %d", userID, chatID), "member added")

	return member, nil
}

// RemoveMember removes a user from a group chat. Only the creator may
// remove, and the creator cannot be removed.
func (s *managementService) RemoveMember(ctx context.Context, chatID, callerID, userID int64) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsGroupChat {
		return fmt.Errorf("%w: cannot remove members from a private chat", ErrInvalidRequest)
	}
	if chat.CreatorID == nil || *chat.CreatorID != callerID {
		return fmt.Errorf("%w: only the chat creator may remove members", ErrForbidden)
	}
	if chat.CreatorID != nil && *chat.CreatorID == userID {
		return fmt.Errorf("%w: the creator cannot be removed", ErrInvalidRequest)
	}
	if !chatHasMember(chat, userID) {
		return repository.ErrMemberNotFound
	}

	if err := s.chats.RemoveMember(ctx, chatID, userID); err != nil {
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionRemoveMember, callerID,
		fmt.Sprintf("removed user %d from chat %d", userID, chatID), "member removed")

	return nil
}

// ListMessages serves chat history, member-only, through the cache when
// it is warm.
func (s *managementService) ListMessages(ctx context.Context, chatID, callerID int64) ([]domain.Message, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chatHasMember(chat, callerID) {
		return nil, fmt.Errorf("%w: not a chat member", ErrForbidden)
	}

	l := log.Ctx(ctx)
	if cached, err := s.cache.GetMessages(ctx, chatID); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Int64(log.FieldChatID, chatID).Msg("history cache read failed")
	}

	messages, err := s.messages.ListForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetMessages(ctx, chatID, messages); err != nil {
		l.Warn().Err(err).Int64(log.FieldChatID, chatID).Msg("history cache write failed")
	}

	return messages, nil
}

func chatHasMember(chat *domain.Chat, userID int64) bool {
	for i := range chat.Members {
		if chat.Members[i].UserID == userID {
			return true
		}
	}
	return false
}
