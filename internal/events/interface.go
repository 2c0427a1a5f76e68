package events

import (
	"context"

	"github.com/mookzZ/fast-websockets/internal/domain"
)

// Producer publishes persisted messages for downstream consumers
// (search indexing, analytics). It is an egress feed, never part of the
// live delivery path: a publish failure is logged by the caller and the
// broadcast proceeds regardless.
type Producer interface {
	PublishMessage(ctx context.Context, msg *domain.Message) error
	Close() error
}

// NoopProducer is used when kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) PublishMessage(ctx context.Context, msg *domain.Message) error {
	return nil
}

func (NoopProducer) Close() error {
	return nil
}
