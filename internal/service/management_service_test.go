package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/notifier"
	"github.com/mookzZ/fast-websockets/internal/registry"
	"github.com/mookzZ/fast-websockets/internal/token"
)

// failingCache simulates an unreachable redis.
type failingCache struct{}

func (failingCache) GetMessages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	return nil, errors.New("redis down")
}

func (failingCache) SetMessages(ctx context.Context, chatID int64, messages []domain.Message) error {
	return errors.New("redis down")
}

func (failingCache) Invalidate(ctx context.Context, chatID int64) error {
	return errors.New("redis down")
}

func (failingCache) Close() error { return nil }

// History reads must fall through to the repository when the cache is
// unreachable, not fail the request.
func TestListMessagesSurvivesCacheFailure(t *testing.T) {
	users := &fakeUserRepo{users: map[int64]*domain.User{
		1: {ID: 1, Username: "alice"},
	}}
	chats := &fakeChatRepo{chats: map[int64][]int64{10: {1, 2}}}
	messages := &fakeMessageRepo{}
	reg := registry.New(zerolog.Nop())

	svc := NewManagementService(users, chats, messages,
		token.NewManager("test-secret", time.Minute, "test"),
		notifier.New(reg, zerolog.Nop()), failingCache{})

	ctx := testCtx()
	if _, err := messages.Create(ctx, 10, 1, "hello"); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	if _, err := messages.Create(ctx, 10, 1, "again"); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	got, err := svc.ListMessages(ctx, 10, 1)
	if err != nil {
		t.Fatalf("expected history despite cache failure: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
}

// A committed membership still gets its notification when the inviter's
// account row cannot be loaded; the frame just carries no inviter name.
func TestAddMemberNotifiesWhenInviterRecordMissing(t *testing.T) {
	users := &fakeUserRepo{users: map[int64]*domain.User{
		2: {ID: 2, Username: "bob"},
	}}
	chats := &fakeChatRepo{
		chats:    map[int64][]int64{10: {99}},
		creators: map[int64]int64{10: 99},
	}
	reg := registry.New(zerolog.Nop())

	svc := NewManagementService(users, chats, &fakeMessageRepo{},
		token.NewManager("test-secret", time.Minute, "test"),
		notifier.New(reg, zerolog.Nop()), failingCache{})

	invitee := &recordConn{}
	reg.Connect(2, invitee)

	member, err := svc.AddMember(testCtx(), 10, 99, 2)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if member.ChatID != 10 || member.UserID != 2 {
		t.Fatalf("unexpected membership row: %+v", member)
	}

	if invitee.count() != 1 {
		t.Fatalf("expected 1 invite notification, got %d", invitee.count())
	}
	var note domain.InviteNotification
	if err := json.Unmarshal(invitee.last(), &note); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if note.InviterUsername != "" {
		t.Fatalf("expected empty inviter name, got %q", note.InviterUsername)
	}
	if note.ChatName != "Unnamed Group" {
		t.Fatalf("expected fallback chat name, got %q", note.ChatName)
	}
}
