package cache

import (
	"context"
	"errors"

	"github.com/mookzZ/fast-websockets/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MessageCache caches chat history pages keyed by chat id. It is a pure
// read-through optimisation; a miss or a failure always falls back to
// the repository.
type MessageCache interface {
	GetMessages(ctx context.Context, chatID int64) ([]domain.Message, error)
	SetMessages(ctx context.Context, chatID int64, messages []domain.Message) error
	Invalidate(ctx context.Context, chatID int64) error
	Close() error
}

// NoopCache is used when redis is disabled; every read is a miss.
type NoopCache struct{}

func (NoopCache) GetMessages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) SetMessages(ctx context.Context, chatID int64, messages []domain.Message) error {
	return nil
}

func (NoopCache) Invalidate(ctx context.Context, chatID int64) error {
	return nil
}

func (NoopCache) Close() error {
	return nil
}
