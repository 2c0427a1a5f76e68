package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type fakeConn struct {
	mu        sync.Mutex
	received  [][]byte
	fail      bool
	closes    int
	closeCode int
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection dead")
	}
	c.received = append(c.received, payload)
	return nil
}

func (c *fakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.closeCode = code
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func newTestRegistry() *Registry {
	return New(zerolog.Nop())
}

func TestConnectDisconnect(t *testing.T) {
	r := newTestRegistry()
	c1 := &fakeConn{}
	c2 := &fakeConn{}

	r.Connect(1, c1)
	r.Connect(1, c2)
	if got := r.ConnectionCount(1); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	r.Disconnect(1, c1)
	if got := r.ConnectionCount(1); got != 1 {
		t.Fatalf("expected 1 connection after disconnect, got %d", got)
	}

	r.Disconnect(1, c2)
	if got := r.ConnectionCount(1); got != 0 {
		t.Fatalf("expected empty entry after last disconnect, got %d", got)
	}
	if _, ok := r.conns[1]; ok {
		t.Fatal("user entry should be removed when its last connection closes")
	}
}

func TestDisconnectUnknownIsNoop(t *testing.T) {
	r := newTestRegistry()
	c1 := &fakeConn{}
	stranger := &fakeConn{}

	r.Connect(1, c1)

	// Never registered, wrong user, and double disconnect must all be
	// harmless.
	r.Disconnect(1, stranger)
	r.Disconnect(2, stranger)
	r.Disconnect(1, c1)
	r.Disconnect(1, c1)

	if got := r.ConnectionCount(1); got != 0 {
		t.Fatalf("expected 0 connections, got %d", got)
	}

	r.Connect(2, c1)
	r.Disconnect(1, c1)
	if got := r.ConnectionCount(2); got != 1 {
		t.Fatalf("disconnect for the wrong user corrupted another entry: %d", got)
	}
}

func TestSendToOfflineUser(t *testing.T) {
	r := newTestRegistry()
	// Must not panic or error.
	r.SendTo(42, []byte("hello"))
}

func TestSendToAllConnections(t *testing.T) {
	r := newTestRegistry()
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	r.Connect(1, c1)
	r.Connect(1, c2)

	r.SendTo(1, []byte("hi"))

	if c1.count() != 1 || c2.count() != 1 {
		t.Fatalf("expected both connections to receive, got %d and %d", c1.count(), c2.count())
	}
}

func TestBroadcastSkipsOfflineUsers(t *testing.T) {
	r := newTestRegistry()
	online1 := &fakeConn{}
	online2 := &fakeConn{}
	r.Connect(1, online1)
	r.Connect(2, online2)

	// Users 3 and 4 are offline.
	r.Broadcast([]int64{1, 2, 3, 4}, []byte("hello"))

	if online1.count() != 1 {
		t.Fatalf("user 1 expected 1 frame, got %d", online1.count())
	}
	if online2.count() != 1 {
		t.Fatalf("user 2 expected 1 frame, got %d", online2.count())
	}
}

func TestFailedSendDoesNotAbortDelivery(t *testing.T) {
	r := newTestRegistry()
	dead := &fakeConn{fail: true}
	alive := &fakeConn{}
	other := &fakeConn{}
	r.Connect(1, dead)
	r.Connect(1, alive)
	r.Connect(2, other)

	r.Broadcast([]int64{1, 2}, []byte("hello"))

	if alive.count() != 1 {
		t.Fatalf("healthy connection of the same user expected 1 frame, got %d", alive.count())
	}
	if other.count() != 1 {
		t.Fatalf("other user's connection expected 1 frame, got %d", other.count())
	}
}

func TestCloseAllClosesEveryConnection(t *testing.T) {
	r := newTestRegistry()
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	c3 := &fakeConn{}
	r.Connect(1, c1)
	r.Connect(1, c2)
	r.Connect(2, c3)

	r.CloseAll(1001, "server shutting down")

	for i, c := range []*fakeConn{c1, c2, c3} {
		c.mu.Lock()
		closes, code := c.closes, c.closeCode
		c.mu.Unlock()
		if closes != 1 {
			t.Fatalf("connection %d expected 1 close, got %d", i, closes)
		}
		if code != 1001 {
			t.Fatalf("connection %d expected close code 1001, got %d", i, code)
		}
	}
}

// Exercises connect/disconnect/broadcast interleavings across users;
// run with -race.
func TestConcurrentAccess(t *testing.T) {
	r := newTestRegistry()
	users := []int64{1, 2, 3}

	var wg sync.WaitGroup
	for _, userID := range users {
		userID := userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c := &fakeConn{}
				r.Connect(userID, c)
				r.Broadcast(users, []byte("m"))
				r.Disconnect(userID, c)
				r.Disconnect(userID, c)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.SendTo(2, []byte("direct"))
		}
	}()
	wg.Wait()

	for _, userID := range users {
		if got := r.ConnectionCount(userID); got != 0 {
			t.Fatalf("user %d expected 0 connections after churn, got %d", userID, got)
		}
	}
}
