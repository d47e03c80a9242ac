// Package event publishes search index outcome events to Kafka so other
// services can observe sync activity. Publishing is fire-and-forget; the
// sync path never blocks on it.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/prismcart/search/pkg/kafka"
)

const (
	TopicIndexSynced     = "prismcart.search.index_synced"
	TopicIndexSyncFailed = "prismcart.search.index_sync_failed"
)

const SourceSearchService = "search-service"

// IndexSyncedData is the payload for both sync outcome topics.
type IndexSyncedData struct {
	EntityKind string `json:"entity_kind"`
	EntityID   int64  `json:"entity_id"`
	Operation  string `json:"operation"`
	Error      string `json:"error,omitempty"`
}

// Producer wraps the shared Kafka producer with search event helpers.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishSynced reports a successful index operation. Errors are logged,
// never returned: observability must not affect sync semantics.
func (p *Producer) PublishSynced(ctx context.Context, entityKind string, entityID int64, operation string) {
	p.publish(ctx, TopicIndexSynced, IndexSyncedData{
		EntityKind: entityKind,
		EntityID:   entityID,
		Operation:  operation,
	})
}

// PublishSyncFailed reports a failed index operation.
func (p *Producer) PublishSyncFailed(ctx context.Context, entityKind string, entityID int64, operation string, cause error) {
	data := IndexSyncedData{
		EntityKind: entityKind,
		EntityID:   entityID,
		Operation:  operation,
	}
	if cause != nil {
		data.Error = cause.Error()
	}
	p.publish(ctx, TopicIndexSyncFailed, data)
}

func (p *Producer) publish(ctx context.Context, topic string, data IndexSyncedData) {
	if p == nil || p.kafka == nil {
		return
	}
	aggregateID := data.EntityKind + "-" + strconv.FormatInt(data.EntityID, 10)
	ev, err := pkgkafka.NewEvent(topic, aggregateID, data.EntityKind, SourceSearchService, data)
	if err != nil {
		p.logger.WarnContext(ctx, "build sync event", slog.String("error", err.Error()))
		return
	}
	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		p.logger.WarnContext(ctx, "publish sync event",
			slog.String("topic", topic),
			slog.String("error", fmt.Sprintf("%v", err)),
		)
	}
}
