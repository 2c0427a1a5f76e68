package service

import (
	"context"
	"errors"

	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/hub"
)

var (
	// Connection-fatal failures, surfaced only as websocket close codes.
	ErrUnauthorized = errors.New("unauthorized")
	ErrChatNotFound = errors.New("chat not found")
	ErrNotMember    = errors.New("user is not a chat member")

	// REST failures.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRequest     = errors.New("invalid request")
)

// ChatService drives one user's live participation in one chat.
type ChatService interface {
	// Authorize resolves the credential token and checks chat existence
	// and membership. Both checks happen once, at connect time.
	Authorize(ctx context.Context, rawToken string, chatID int64) (*domain.User, error)

	// Register adds the client to the connection registry.
	Register(ctx context.Context, client *hub.Client)

	// HandleFrame processes one inbound frame: validate, persist,
	// broadcast. Protocol and persistence failures are answered with an
	// error frame on this connection only; the session stays open.
	HandleFrame(ctx context.Context, client *hub.Client, payload []byte)

	// HandleDisconnect deregisters the client. Safe to call from any
	// exit path; double deregistration is a no-op.
	HandleDisconnect(ctx context.Context, client *hub.Client)
}

// ManagementService covers the REST surface: accounts and chat
// administration.
type ManagementService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	CreateChat(ctx context.Context, creatorID int64, req *domain.CreateChatRequest) (*domain.Chat, error)
	ListChats(ctx context.Context, userID int64) ([]domain.Chat, error)
	GetChat(ctx context.Context, chatID, callerID int64) (*domain.Chat, error)
	AddMember(ctx context.Context, chatID, callerID, userID int64) (*domain.ChatMember, error)
	RemoveMember(ctx context.Context, chatID, callerID, userID int64) error
	ListMessages(ctx context.Context, chatID, callerID int64) ([]domain.Message, error)
}
