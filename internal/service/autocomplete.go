package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/index"
	apperrors "github.com/prismcart/search/pkg/errors"
)

const (
	minQueryLength        = 2
	defaultSuggestLimit   = 10
	maxSuggestLimit       = 20
	suggestionCacheTTL    = 30 * time.Second
	suggestionCachePrefix = "search:ac:"
)

// AutocompleteService serves typeahead suggestions. Results are cached in
// Redis for a short window since the same prefixes repeat heavily while a
// user types.
type AutocompleteService struct {
	engine  index.Engine
	cache   *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewAutocompleteService builds the service. cache may be nil; caching is
// then skipped.
func NewAutocompleteService(engine index.Engine, cache *redis.Client, logger *slog.Logger) *AutocompleteService {
	return &AutocompleteService{
		engine:  engine,
		cache:   cache,
		breaker: newIndexBreaker("autocomplete"),
		logger:  logger,
	}
}

// Suggest runs one autocomplete strategy. Queries under two characters
// return empty without touching the index: single characters match far
// too much to be useful.
func (s *AutocompleteService) Suggest(ctx context.Context, query, strategy string, limit int) ([]domain.Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return []domain.Suggestion{}, nil
	}
	if !domain.IsValidStrategy(strategy) {
		return nil, apperrors.InvalidInput("invalid strategy: " + strategy)
	}
	if strategy == "" {
		strategy = domain.StrategyWordStart
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%d", suggestionCachePrefix, strategy, strings.ToLower(query), limit)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	if !s.engine.ProductIndexReady(ctx) {
		return nil, apperrors.ErrIndexUnavailable
	}

	result, err := s.breaker.Execute(func() (any, error) {
		return s.engine.Suggest(ctx, query, strategy, limit)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "autocomplete unavailable",
			slog.String("query", query),
			slog.String("strategy", strategy),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ErrIndexUnavailable
	}

	suggestions := result.([]domain.Suggestion)
	s.cacheSet(ctx, cacheKey, suggestions)
	return suggestions, nil
}

// Complete runs the completion suggester across all indices, grouped per
// index. Same minimum-length short circuit as Suggest.
func (s *AutocompleteService) Complete(ctx context.Context, prefix string, limit int) ([]domain.CompletionGroup, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < minQueryLength {
		return []domain.CompletionGroup{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	if !s.engine.ProductIndexReady(ctx) {
		return nil, apperrors.ErrIndexUnavailable
	}

	result, err := s.breaker.Execute(func() (any, error) {
		return s.engine.Complete(ctx, prefix, limit)
	})
	if err != nil {
		return nil, apperrors.ErrIndexUnavailable
	}
	return result.([]domain.CompletionGroup), nil
}

func (s *AutocompleteService) cacheGet(ctx context.Context, key string) ([]domain.Suggestion, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var suggestions []domain.Suggestion
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, false
	}
	return suggestions, true
}

func (s *AutocompleteService) cacheSet(ctx context.Context, key string, suggestions []domain.Suggestion) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, suggestionCacheTTL).Err(); err != nil {
		s.logger.DebugContext(ctx, "suggestion cache write failed", slog.String("error", err.Error()))
	}
}
