package hub

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mookzZ/fast-websockets/internal/config"
)

type fakeWSConn struct {
	mu          sync.Mutex
	inbound     [][]byte
	written     chan []byte
	closed      bool
	closeFrames int
}

func newFakeWSConn(inbound ...[]byte) *fakeWSConn {
	return &fakeWSConn{
		inbound: inbound,
		written: make(chan []byte, 16),
	}
}

func (c *fakeWSConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbound) == 0 {
		return 0, nil, io.EOF
	}
	payload := c.inbound[0]
	c.inbound = c.inbound[1:]
	return websocket.TextMessage, payload, nil
}

func (c *fakeWSConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	if messageType == websocket.CloseMessage {
		c.closeFrames++
	}
	c.mu.Unlock()
	if closed {
		return errors.New("write on closed connection")
	}
	if messageType == websocket.TextMessage {
		c.written <- data
	}
	return nil
}

func (c *fakeWSConn) SetReadLimit(int64)                {}
func (c *fakeWSConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeWSConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeWSConn) SetPongHandler(func(string) error) {}

func (c *fakeWSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   time.Minute,
		PongWait:       time.Minute,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
		SendBufferSize: 4,
	}
}

func TestReadPumpDeliversFramesAndCleansUpOnce(t *testing.T) {
	conn := newFakeWSConn([]byte(`one`), []byte(`two`))
	client := NewClient(conn, 1, "alice", 10, testWSConfig())

	var frames [][]byte
	cleanups := 0
	client.ReadPump(
		func(payload []byte) { frames = append(frames, payload) },
		func() { cleanups++ },
	)

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames handled, got %d", len(frames))
	}
	if cleanups != 1 {
		t.Fatalf("expected cleanup to run exactly once, ran %d times", cleanups)
	}
	if !conn.closed {
		t.Fatal("expected connection to be closed after read pump exit")
	}
}

func TestWritePumpDrainsSendQueue(t *testing.T) {
	conn := newFakeWSConn()
	client := NewClient(conn, 1, "alice", 10, testWSConfig())

	go client.WritePump()

	if err := client.Send([]byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case data := <-conn.written:
		if string(data) != "hello" {
			t.Fatalf("expected %q written, got %q", "hello", data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write pump")
	}
}

// Close is reached through the registry's shutdown sweep, which can
// race the pumps' own teardown; a second call must not write another
// close frame.
func TestCloseWritesOneCloseFrame(t *testing.T) {
	conn := newFakeWSConn()
	client := NewClient(conn, 1, "alice", 10, testWSConfig())

	client.Close(websocket.CloseGoingAway, "server shutting down")
	client.Close(websocket.CloseGoingAway, "server shutting down")

	conn.mu.Lock()
	closeFrames, closed := conn.closeFrames, conn.closed
	conn.mu.Unlock()
	if closeFrames != 1 {
		t.Fatalf("expected exactly 1 close frame, got %d", closeFrames)
	}
	if !closed {
		t.Fatal("expected underlying connection to be closed")
	}
}

func TestSendFailsWhenBufferFull(t *testing.T) {
	conn := newFakeWSConn()
	client := NewClient(conn, 1, "alice", 10, testWSConfig())

	// No write pump running, so the buffer fills up.
	for i := 0; i < 4; i++ {
		if err := client.Send([]byte("x")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := client.Send([]byte("overflow")); !errors.Is(err, ErrSendBufferFull) {
		t.Fatalf("expected ErrSendBufferFull, got %v", err)
	}
}
