package registry

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mookzZ/fast-websockets/pkg/log"
)

// Connection is one live client channel. Send must not block: the hub
// client implements it with a buffered queue drained by its write pump.
// Close must tolerate repeated calls.
type Connection interface {
	Send(payload []byte) error
	Close(code int, reason string)
}

// Registry maps a user id to the set of its currently open connections.
// It is the only state shared across connection goroutines, so every
// operation takes the lock. An entry exists iff its set is non-empty.
type Registry struct {
	mu     sync.RWMutex
	conns  map[int64]map[Connection]struct{}
	logger zerolog.Logger
}

// New creates an empty registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[int64]map[Connection]struct{}),
		logger: logger,
	}
}

// Connect registers a connection under a user.
func (r *Registry) Connect(userID int64, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[Connection]struct{})
		r.conns[userID] = set
	}
	set[conn] = struct{}{}

	r.logger.Debug().
		Int64(log.FieldUserID, userID).
		Int("connections", len(set)).
		Msg("connection registered")
}

// Disconnect removes a connection from a user's set, dropping the user
// entry when the set becomes empty. Disconnecting a connection that was
// never registered, or twice, is a no-op.
func (r *Registry) Disconnect(userID int64, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}

	delete(set, conn)
	if len(set) == 0 {
		delete(r.conns, userID)
	}

	r.logger.Debug().
		Int64(log.FieldUserID, userID).
		Int("connections", len(set)).
		Msg("connection unregistered")
}

// SendTo delivers a payload to every registered connection of a user.
// An offline user is a silent no-op. A failed send is logged and never
// aborts delivery to the user's other connections.
func (r *Registry) SendTo(userID int64, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.sendLocked(userID, payload)
}

// Broadcast delivers a payload to every connection of every listed user.
// Delivery is best effort; order across users is unspecified.
func (r *Registry) Broadcast(userIDs []int64, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, userID := range userIDs {
		r.sendLocked(userID, payload)
	}
}

func (r *Registry) sendLocked(userID int64, payload []byte) {
	for conn := range r.conns[userID] {
		if err := conn.Send(payload); err != nil {
			r.logger.Warn().
				Err(err).
				Int64(log.FieldUserID, userID).
				Msg("failed to deliver to connection")
		}
	}
}

// CloseAll writes a close frame to every registered connection. Used on
// shutdown so peers see a real close code instead of a dropped TCP
// connection. Deregistration still happens through each connection's
// normal teardown path.
func (r *Registry) CloseAll(code int, reason string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, set := range r.conns {
		for conn := range set {
			conn.Close(code, reason)
		}
	}
}

// ConnectionCount returns how many connections a user currently holds.
func (r *Registry) ConnectionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
