package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/index/memory"
	"github.com/prismcart/search/internal/service"
	"github.com/prismcart/search/pkg/pagination"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// listOnlyProducts serves List from a canned page; everything else is
// unused by these tests.
type listOnlyProducts struct {
	page pagination.Result[*domain.Product]
}

func (f *listOnlyProducts) Create(context.Context, *domain.Product) error { return nil }

func (f *listOnlyProducts) GetByID(context.Context, int64) (*domain.Product, error) {
	return nil, nil
}

func (f *listOnlyProducts) GetByIDs(context.Context, []int64) ([]*domain.Product, error) {
	return nil, nil
}

func (f *listOnlyProducts) List(context.Context, catalog.ProductFilter, pagination.Params) (pagination.Result[*domain.Product], error) {
	return f.page, nil
}

func (f *listOnlyProducts) ListAfter(context.Context, int64, int) ([]*domain.Product, error) {
	return nil, nil
}

func (f *listOnlyProducts) Update(context.Context, *domain.Product) error { return nil }
func (f *listOnlyProducts) Delete(context.Context, int64) error           { return nil }

func (f *listOnlyProducts) IDsReferencing(context.Context, domain.EntityKind, int64) ([]int64, error) {
	return nil, nil
}

func (f *listOnlyProducts) ReplaceRelations(context.Context, int64, domain.EntityKind, []int64) error {
	return nil
}

func (f *listOnlyProducts) Count(context.Context) (int64, error) { return 0, nil }

// notReadyEngine reports the products index as absent.
type notReadyEngine struct {
	*memory.Engine
}

func (notReadyEngine) ProductIndexReady(context.Context) bool { return false }

func newTestHandler(products catalog.ProductRepository) *Handler {
	engine := memory.New()
	log := testLogger()
	return NewHandler(
		service.NewSearchService(engine, products, log),
		service.NewAutocompleteService(engine, nil, log),
		nil,
		nil,
		log,
	)
}

func TestSearch_InvalidMinPrice(t *testing.T) {
	h := newTestHandler(&listOnlyProducts{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?min_price=abc", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_PARAMETER", body.Error.Code)
}

func TestSearch_InvalidInStock(t *testing.T) {
	h := newTestHandler(&listOnlyProducts{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?in_stock=maybe", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_EnvelopeShape(t *testing.T) {
	products := &listOnlyProducts{page: pagination.NewResult(
		[]*domain.Product{{ID: 1, Name: "Trail Runner"}},
		int64(1),
		pagination.Params{Page: 1, PageSize: 20},
	)}
	h := newTestHandler(products)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Total      int64            `json:"total"`
			Products   []map[string]any `json:"products"`
			Page       int              `json:"page"`
			PageSize   int              `json:"page_size"`
			TotalPages int              `json:"total_pages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Data.Total)
	require.Len(t, body.Data.Products, 1)
	assert.Equal(t, 1, body.Data.Page)
	assert.Equal(t, 20, body.Data.PageSize)
	assert.Equal(t, 1, body.Data.TotalPages)
}

func TestSearch_EmptyResultIsArrayNotNull(t *testing.T) {
	h := newTestHandler(&listOnlyProducts{page: pagination.NewResult[*domain.Product](
		nil, 0, pagination.Params{Page: 1, PageSize: 20},
	)})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"products":[]`)
}

func TestAutocomplete_ShortQuery(t *testing.T) {
	h := newTestHandler(&listOnlyProducts{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/autocomplete?q=a", nil)
	rec := httptest.NewRecorder()

	h.Autocomplete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body autocompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Suggestions)
}

func TestAutocomplete_IndexNotReadyStaysHTTP200(t *testing.T) {
	engine := notReadyEngine{memory.New()}
	log := testLogger()
	h := NewHandler(
		service.NewSearchService(engine, &listOnlyProducts{}, log),
		service.NewAutocompleteService(engine, nil, log),
		nil,
		nil,
		log,
	)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/autocomplete?q=sho", nil)
	rec := httptest.NewRecorder()

	h.Autocomplete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body autocompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "search index not ready", body.Error)
	assert.Empty(t, body.Suggestions)
}

func TestAutocomplete_DefaultStrategyEchoed(t *testing.T) {
	engine := memory.New()
	require.NoError(t, engine.IndexProduct(context.Background(), &domain.ProductDocument{
		ID: 1, Name: "Shoes", NameSuggest: domain.Completion{Input: []string{"Shoes"}, Weight: 1},
	}))
	log := testLogger()
	h := NewHandler(
		service.NewSearchService(engine, &listOnlyProducts{}, log),
		service.NewAutocompleteService(engine, nil, log),
		nil,
		nil,
		log,
	)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/autocomplete?q=sho", nil)
	rec := httptest.NewRecorder()

	h.Autocomplete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body autocompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, domain.StrategyWordStart, body.Strategy)
}
