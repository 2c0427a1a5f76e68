package repository

import (
	"context"
	"errors"

	"github.com/mookzZ/fast-websockets/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrChatNotFound   = errors.New("chat not found")
	ErrAlreadyMember  = errors.New("user is already a chat member")
	ErrMemberNotFound = errors.New("user is not a chat member")
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ChatRepository provides access to chats and their memberships.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, id int64) (*domain.Chat, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Chat, error)
	// FindPrivateChat returns the existing 1:1 chat between two users,
	// or ErrChatNotFound when there is none.
	FindPrivateChat(ctx context.Context, userID1, userID2 int64) (*domain.Chat, error)

	AddMember(ctx context.Context, chatID, userID int64) (*domain.ChatMember, error)
	RemoveMember(ctx context.Context, chatID, userID int64) error
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
	ListMemberIDs(ctx context.Context, chatID int64) ([]int64, error)
}

// MessageRepository provides access to persisted chat messages.
type MessageRepository interface {
	// Create persists a message and assigns its id and timestamp.
	Create(ctx context.Context, chatID, senderID int64, content string) (*domain.Message, error)
	ListForChat(ctx context.Context, chatID int64) ([]domain.Message, error)
}
