package sync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/event"
	"github.com/prismcart/search/internal/index"
	apperrors "github.com/prismcart/search/pkg/errors"
)

var syncOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "search_sync_operations_total",
	Help: "Index sync operations by operation and outcome.",
}, []string{"operation", "status"})

// Syncer reacts to catalog change events by rewriting index documents.
// Every handler is best-effort: failures are logged and counted, and the
// event is considered handled either way.
type Syncer struct {
	engine   index.Engine
	products catalog.ProductRepository
	entities catalog.EntityRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewSyncer builds a syncer. producer may be nil when Kafka is not
// configured.
func NewSyncer(
	engine index.Engine,
	products catalog.ProductRepository,
	entities catalog.EntityRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *Syncer {
	return &Syncer{
		engine:   engine,
		products: products,
		entities: entities,
		producer: producer,
		logger:   logger,
	}
}

// Register subscribes the syncer to the bus.
func (s *Syncer) Register(bus *Bus) {
	bus.Subscribe(s.Handle)
}

// Handle dispatches one event.
func (s *Syncer) Handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case ProductSaved:
		s.syncProduct(ctx, e.ProductID)
	case ProductDeleted:
		s.removeProduct(ctx, e.ProductID)
	case EntitySaved:
		s.syncEntity(ctx, e.Kind, e.EntityID)
	case EntityDeleted:
		s.removeEntity(ctx, e)
	case RelationsChanged:
		s.syncProduct(ctx, e.ProductID)
	default:
		s.logger.WarnContext(ctx, "unhandled sync event", slog.String("event", ev.name()))
	}
}

// syncProduct rebuilds one product document from the catalog. A product
// that no longer exists is removed from the index instead.
func (s *Syncer) syncProduct(ctx context.Context, productID int64) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.removeProduct(ctx, productID)
			return
		}
		s.fail(ctx, "index_product", "product", productID, err)
		return
	}
	if err := s.engine.IndexProduct(ctx, domain.BuildProductDocument(p)); err != nil {
		s.fail(ctx, "index_product", "product", productID, err)
		return
	}
	s.ok(ctx, "index_product", "product", productID)
}

func (s *Syncer) removeProduct(ctx context.Context, productID int64) {
	if err := s.engine.DeleteProduct(ctx, productID); err != nil {
		s.fail(ctx, "delete_product", "product", productID, err)
		return
	}
	s.ok(ctx, "delete_product", "product", productID)
}

// syncEntity upserts the entity's own document (categories, brands and
// tags have one) and then fans out to every product embedding it, so a
// rename propagates to all denormalized copies.
func (s *Syncer) syncEntity(ctx context.Context, kind domain.EntityKind, entityID int64) {
	if idx := entityIndex(kind); idx != "" {
		s.syncEntityDocument(ctx, idx, kind, entityID)
	}

	ids, err := s.products.IDsReferencing(ctx, kind, entityID)
	if err != nil {
		s.fail(ctx, "cascade_"+string(kind), string(kind), entityID, err)
		return
	}
	s.reindexProducts(ctx, ids)
	s.ok(ctx, "cascade_"+string(kind), string(kind), entityID)
}

func (s *Syncer) syncEntityDocument(ctx context.Context, idx string, kind domain.EntityKind, entityID int64) {
	e, err := s.entities.Get(ctx, kind, entityID)
	if err != nil {
		s.fail(ctx, "index_"+string(kind), string(kind), entityID, err)
		return
	}
	count, err := s.entities.ProductCount(ctx, kind, entityID)
	if err != nil {
		s.fail(ctx, "index_"+string(kind), string(kind), entityID, err)
		return
	}
	doc := domain.BuildEntityDocument(e.ID, e.Name, e.Slug, count)
	if err := s.engine.IndexEntity(ctx, idx, doc); err != nil {
		s.fail(ctx, "index_"+string(kind), string(kind), entityID, err)
		return
	}
	s.ok(ctx, "index_"+string(kind), string(kind), entityID)
}

// removeEntity drops the entity's own document and reindexes the products
// that referenced it, which now embed a null reference.
func (s *Syncer) removeEntity(ctx context.Context, ev EntityDeleted) {
	if idx := entityIndex(ev.Kind); idx != "" {
		if err := s.engine.DeleteEntity(ctx, idx, ev.EntityID); err != nil {
			s.fail(ctx, "delete_"+string(ev.Kind), string(ev.Kind), ev.EntityID, err)
		}
	}
	s.reindexProducts(ctx, ev.ProductIDs)
	s.ok(ctx, "detach_"+string(ev.Kind), string(ev.Kind), ev.EntityID)
}

// reindexProducts rebuilds each product independently; one failure does
// not stop the rest.
func (s *Syncer) reindexProducts(ctx context.Context, ids []int64) (indexed, failed int) {
	for _, id := range ids {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			failed++
			s.fail(ctx, "reindex_product", "product", id, err)
			continue
		}
		if err := s.engine.IndexProduct(ctx, domain.BuildProductDocument(p)); err != nil {
			failed++
			s.fail(ctx, "reindex_product", "product", id, err)
			continue
		}
		indexed++
		syncOps.WithLabelValues("reindex_product", "ok").Inc()
	}
	return indexed, failed
}

func (s *Syncer) ok(ctx context.Context, operation, kind string, id int64) {
	syncOps.WithLabelValues(operation, "ok").Inc()
	s.logger.DebugContext(ctx, "index synced",
		slog.String("operation", operation),
		slog.String("kind", kind),
		slog.Int64("id", id),
	)
	if s.producer != nil {
		s.producer.PublishSynced(ctx, kind, id, operation)
	}
}

func (s *Syncer) fail(ctx context.Context, operation, kind string, id int64, err error) {
	syncOps.WithLabelValues(operation, "error").Inc()
	s.logger.ErrorContext(ctx, "index sync failed",
		slog.String("operation", operation),
		slog.String("kind", kind),
		slog.Int64("id", id),
		slog.String("error", err.Error()),
	)
	if s.producer != nil {
		s.producer.PublishSyncFailed(ctx, kind, id, operation, err)
	}
}
