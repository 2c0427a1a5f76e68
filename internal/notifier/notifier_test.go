package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/registry"
)

type recordConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *recordConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, payload)
	return nil
}

func (c *recordConn) Close(code int, reason string) {}

func (c *recordConn) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func TestNotifyInviteDeliversToAllConnections(t *testing.T) {
	reg := registry.New(zerolog.Nop())
	phone := &recordConn{}
	laptop := &recordConn{}
	reg.Connect(7, phone)
	reg.Connect(7, laptop)

	n := New(reg, zerolog.Nop())
	n.NotifyInvite(context.Background(), 7, 42, "Weekend Plans", "alice")

	for _, conn := range []*recordConn{phone, laptop} {
		frames := conn.all()
		if len(frames) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(frames))
		}
		var note domain.InviteNotification
		if err := json.Unmarshal(frames[0], &note); err != nil {
			t.Fatalf("unmarshal notification: %v", err)
		}
		if note.Type != domain.FrameTypeInvite {
			t.Fatalf("expected type %q, got %q", domain.FrameTypeInvite, note.Type)
		}
		if note.ChatID != 42 || note.ChatName != "Weekend Plans" || note.InviterUsername != "alice" {
			t.Fatalf("unexpected notification fields: %+v", note)
		}
	}
}

func TestNotifyInviteUnnamedChatFallback(t *testing.T) {
	reg := registry.New(zerolog.Nop())
	conn := &recordConn{}
	reg.Connect(7, conn)

	New(reg, zerolog.Nop()).NotifyInvite(context.Background(), 7, 42, "", "alice")

	var note domain.InviteNotification
	if err := json.Unmarshal(conn.all()[0], &note); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if note.ChatName != "Unnamed Group" {
		t.Fatalf("expected fallback chat name, got %q", note.ChatName)
	}
}

// An offline invitee misses the notification entirely; connecting later
// must not replay it.
func TestNotifyInviteOfflineUserIsDropped(t *testing.T) {
	reg := registry.New(zerolog.Nop())
	n := New(reg, zerolog.Nop())

	n.NotifyInvite(context.Background(), 7, 42, "Weekend Plans", "alice")

	late := &recordConn{}
	reg.Connect(7, late)
	if got := len(late.all()); got != 0 {
		t.Fatalf("expected no replayed notifications, got %d", got)
	}
}
