package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mookzZ/fast-websockets/internal/config"
	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/hub"
	"github.com/mookzZ/fast-websockets/internal/service"
)

type fakeChatService struct {
	mu            sync.Mutex
	authorizeErr  error
	registered    int
	disconnected  int
	frames        [][]byte
	frameReceived chan struct{}
}

func newFakeChatService() *fakeChatService {
	return &fakeChatService{frameReceived: make(chan struct{}, 16)}
}

func (s *fakeChatService) Authorize(ctx context.Context, rawToken string, chatID int64) (*domain.User, error) {
	if s.authorizeErr != nil {
		return nil, s.authorizeErr
	}
	return &domain.User{ID: 1, Username: "alice"}, nil
}

func (s *fakeChatService) Register(ctx context.Context, client *hub.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered++
}

func (s *fakeChatService) HandleFrame(ctx context.Context, client *hub.Client, payload []byte) {
	s.mu.Lock()
	s.frames = append(s.frames, payload)
	s.mu.Unlock()
	s.frameReceived <- struct{}{}
}

func (s *fakeChatService) HandleDisconnect(ctx context.Context, client *hub.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected++
}

func (s *fakeChatService) registerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

func (s *fakeChatService) disconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

func newWSServer(t *testing.T, svc service.ChatService) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWSHandler(svc, config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       time.Minute,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
		SendBufferSize: 16,
	}).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return strings.Replace(srv.URL, "http://", "ws://", 1) + path
}

func dialAndReadClose(t *testing.T, url string) int {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected close frame, got %v", err)
	}
	return closeErr.Code
}

func TestHandshakeWithoutTokenClosesPolicyViolation(t *testing.T) {
	svc := newFakeChatService()
	srv := newWSServer(t, svc)

	code := dialAndReadClose(t, wsURL(srv, "/ws/10"))
	if code != websocket.ClosePolicyViolation {
		t.Fatalf("expected close code %d, got %d", websocket.ClosePolicyViolation, code)
	}
	if svc.registerCount() != 0 {
		t.Fatal("rejected handshake must not register a connection")
	}
}

func TestHandshakeCloseCodes(t *testing.T) {
	cases := []struct {
		name         string
		authorizeErr error
		wantCode     int
	}{
		{"unknown chat", service.ErrChatNotFound, websocket.CloseUnsupportedData},
		{"bad token", service.ErrUnauthorized, websocket.ClosePolicyViolation},
		{"not a member", service.ErrNotMember, websocket.ClosePolicyViolation},
		{"internal fault", errors.New("boom"), websocket.CloseInternalServerErr},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeChatService()
			svc.authorizeErr = tc.authorizeErr
			srv := newWSServer(t, svc)

			code := dialAndReadClose(t, wsURL(srv, "/ws/10?token=sometoken"))
			if code != tc.wantCode {
				t.Fatalf("expected close code %d, got %d", tc.wantCode, code)
			}
			if svc.registerCount() != 0 {
				t.Fatal("rejected handshake must not register a connection")
			}
		})
	}
}

func TestHandshakeRejectsNonNumericChatID(t *testing.T) {
	svc := newFakeChatService()
	srv := newWSServer(t, svc)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/abc?token=sometoken"), nil)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %+v", resp)
	}
}

func TestSessionDeliversFramesAndDeregistersOnClose(t *testing.T) {
	svc := newFakeChatService()
	srv := newWSServer(t, svc)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/10?token=sometoken"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"message","content":"hi"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-svc.frameReceived:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame to reach the service")
	}

	if svc.registerCount() != 1 {
		t.Fatalf("expected 1 registration, got %d", svc.registerCount())
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.After(time.Second)
	for svc.disconnectCount() != 1 {
		select {
		case <-deadline:
			t.Fatalf("expected 1 disconnect, got %d", svc.disconnectCount())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
