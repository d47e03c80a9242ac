package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prismcart/search/internal/domain"
)

// Drift statuses.
const (
	StatusSynced    = "synced"
	StatusOutOfSync = "out_of_sync"
)

// IndexDrift compares one index's document count against the database.
type IndexDrift struct {
	Index      string `json:"index"`
	DBCount    int64  `json:"db_count"`
	IndexCount int64  `json:"index_count"`
	Status     string `json:"status"`
	Difference int64  `json:"difference"`
}

// DriftReport covers all managed indices. Report only; resolving drift is
// an explicit resync.
type DriftReport struct {
	Indices []IndexDrift `json:"indices"`
}

// ResyncCount tallies one entity type's resync outcome.
type ResyncCount struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// ResyncReport summarizes a full database-to-index walk.
type ResyncReport struct {
	Products   ResyncCount `json:"products"`
	Categories ResyncCount `json:"categories"`
	Brands     ResyncCount `json:"brands"`
	Tags       ResyncCount `json:"tags"`
}

const resyncBatchSize = 500

// Drift counts rows and documents per index and flags mismatches.
func (s *Syncer) Drift(ctx context.Context) (*DriftReport, error) {
	report := &DriftReport{}

	productCount, err := s.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("drift: %w", err)
	}
	drift, err := s.indexDrift(ctx, domain.IndexProducts, productCount)
	if err != nil {
		return nil, err
	}
	report.Indices = append(report.Indices, drift)

	for _, pair := range []struct {
		kind  domain.EntityKind
		index string
	}{
		{domain.KindCategory, domain.IndexCategories},
		{domain.KindBrand, domain.IndexBrands},
		{domain.KindTag, domain.IndexTags},
	} {
		entities, err := s.entities.List(ctx, pair.kind)
		if err != nil {
			return nil, fmt.Errorf("drift: %w", err)
		}
		drift, err := s.indexDrift(ctx, pair.index, int64(len(entities)))
		if err != nil {
			return nil, err
		}
		report.Indices = append(report.Indices, drift)
	}
	return report, nil
}

func (s *Syncer) indexDrift(ctx context.Context, index string, dbCount int64) (IndexDrift, error) {
	indexCount, err := s.engine.Count(ctx, index)
	if err != nil {
		return IndexDrift{}, fmt.Errorf("drift count %s: %w", index, err)
	}
	diff := dbCount - indexCount
	if diff < 0 {
		diff = -diff
	}
	status := StatusSynced
	if diff != 0 {
		status = StatusOutOfSync
	}
	return IndexDrift{
		Index:      index,
		DBCount:    dbCount,
		IndexCount: indexCount,
		Status:     status,
		Difference: diff,
	}, nil
}

// Resync walks the whole catalog and upserts every document, batching
// products through the bulk API. Per-document failures are tallied, not
// fatal.
func (s *Syncer) Resync(ctx context.Context) (*ResyncReport, error) {
	report := &ResyncReport{}

	var afterID int64
	for {
		products, err := s.products.ListAfter(ctx, afterID, resyncBatchSize)
		if err != nil {
			return nil, fmt.Errorf("resync products: %w", err)
		}
		if len(products) == 0 {
			break
		}
		docs := make([]*domain.ProductDocument, 0, len(products))
		for _, p := range products {
			docs = append(docs, domain.BuildProductDocument(p))
		}
		indexed, failed, errs, err := s.engine.BulkIndexProducts(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("resync products: %w", err)
		}
		report.Products.Indexed += indexed
		report.Products.Failed += failed
		for _, msg := range errs {
			s.logger.WarnContext(ctx, "resync product failed", slog.String("error", msg))
		}
		afterID = products[len(products)-1].ID
	}

	for _, pair := range []struct {
		kind  domain.EntityKind
		index string
		count *ResyncCount
	}{
		{domain.KindCategory, domain.IndexCategories, &report.Categories},
		{domain.KindBrand, domain.IndexBrands, &report.Brands},
		{domain.KindTag, domain.IndexTags, &report.Tags},
	} {
		entities, err := s.entities.List(ctx, pair.kind)
		if err != nil {
			return nil, fmt.Errorf("resync %s: %w", pair.kind, err)
		}
		for _, e := range entities {
			count, err := s.entities.ProductCount(ctx, pair.kind, e.ID)
			if err != nil {
				pair.count.Failed++
				s.logger.WarnContext(ctx, "resync entity failed",
					slog.String("kind", string(pair.kind)),
					slog.Int64("id", e.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			doc := domain.BuildEntityDocument(e.ID, e.Name, e.Slug, count)
			if err := s.engine.IndexEntity(ctx, pair.index, doc); err != nil {
				pair.count.Failed++
				s.logger.WarnContext(ctx, "resync entity failed",
					slog.String("kind", string(pair.kind)),
					slog.Int64("id", e.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			pair.count.Indexed++
		}
	}

	s.logger.InfoContext(ctx, "resync complete",
		slog.Int("products_indexed", report.Products.Indexed),
		slog.Int("products_failed", report.Products.Failed),
	)
	return report, nil
}

// Rebuild drops and recreates all indices, then resyncs from scratch.
func (s *Syncer) Rebuild(ctx context.Context) (*ResyncReport, error) {
	if err := s.engine.DeleteIndices(ctx); err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	if err := s.engine.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	return s.Resync(ctx)
}

// DeleteIndices removes all managed indices.
func (s *Syncer) DeleteIndices(ctx context.Context) error {
	return s.engine.DeleteIndices(ctx)
}
