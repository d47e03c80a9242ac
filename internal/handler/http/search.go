// Package http exposes the search, autocomplete, catalog and admin
// endpoints.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/service"
	syncpkg "github.com/prismcart/search/internal/sync"
	apperrors "github.com/prismcart/search/pkg/errors"
	"github.com/prismcart/search/pkg/httputil"
	"github.com/prismcart/search/pkg/pagination"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	search       *service.SearchService
	autocomplete *service.AutocompleteService
	catalog      *service.CatalogService
	syncer       *syncpkg.Syncer
	logger       *slog.Logger
}

func NewHandler(
	search *service.SearchService,
	autocomplete *service.AutocompleteService,
	catalog *service.CatalogService,
	syncer *syncpkg.Syncer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		search:       search,
		autocomplete: autocomplete,
		catalog:      catalog,
		syncer:       syncer,
		logger:       logger,
	}
}

// productPageResponse is the uniform product listing envelope.
type productPageResponse struct {
	Total      int64             `json:"total"`
	Products   []*domain.Product `json:"products"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// Search handles GET /products: hybrid search and browse.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, ok := parseCriteria(w, r)
	if !ok {
		return
	}

	page, err := h.search.Search(r.Context(), criteria)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	products := page.Items
	if products == nil {
		products = []*domain.Product{}
	}
	httputil.WriteJSON(w, http.StatusOK, productPageResponse{
		Total:      page.Total,
		Products:   products,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

func parseCriteria(w http.ResponseWriter, r *http.Request) (domain.SearchCriteria, bool) {
	q := r.URL.Query()
	criteria := domain.SearchCriteria{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Brand:    strings.TrimSpace(q.Get("brand")),
		Sort:     q.Get("sort"),
	}

	if v := q.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			httputil.WriteBadRequest(w, r, "INVALID_PARAMETER", "min_price must be a non-negative number")
			return criteria, false
		}
		criteria.MinPrice = &f
	}
	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			httputil.WriteBadRequest(w, r, "INVALID_PARAMETER", "max_price must be a non-negative number")
			return criteria, false
		}
		criteria.MaxPrice = &f
	}
	if v := q.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				criteria.Tags = append(criteria.Tags, tag)
			}
		}
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteBadRequest(w, r, "INVALID_PARAMETER", "in_stock must be a boolean")
			return criteria, false
		}
		criteria.InStockOnly = b
	}

	params := pagination.FromRequest(r)
	criteria.Page = params.Page
	criteria.PageSize = params.PageSize
	return criteria, true
}

// Facets handles GET /facets.
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.search.Facets(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, facets)
}

// Similar handles GET /products/{id}/similar.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, r, "INVALID_PARAMETER", "id must be a positive integer")
		return
	}
	limit := parseLimit(r, 0)
	products, err := h.search.Similar(r.Context(), id, limit)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if products == nil {
		products = []*domain.ProductDocument{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"product_id": id,
		"similar":    products,
	})
}

// autocompleteResponse mirrors the shape storefront clients consume; it
// is written raw, outside the data envelope, so the not-ready case can
// keep HTTP 200 with success=false.
type autocompleteResponse struct {
	Success     bool                `json:"success"`
	Query       string              `json:"query"`
	Strategy    string              `json:"strategy,omitempty"`
	Count       int                 `json:"count"`
	Suggestions []domain.Suggestion `json:"suggestions"`
	Error       string              `json:"error,omitempty"`
}

// Autocomplete handles GET /autocomplete.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	strategy := r.URL.Query().Get("strategy")
	limit := parseLimit(r, 0)

	suggestions, err := h.autocomplete.Suggest(r.Context(), q, strategy, limit)
	if err != nil {
		h.writeAutocompleteError(w, r, q, err)
		return
	}
	if strategy == "" {
		strategy = domain.StrategyWordStart
	}
	writeRawJSON(w, http.StatusOK, autocompleteResponse{
		Success:     true,
		Query:       q,
		Strategy:    strategy,
		Count:       len(suggestions),
		Suggestions: suggestions,
	})
}

// Suggest handles GET /suggest: completion across all indices.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := parseLimit(r, 0)

	groups, err := h.autocomplete.Complete(r.Context(), q, limit)
	if err != nil {
		h.writeAutocompleteError(w, r, q, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": groups,
	})
}

// writeAutocompleteError keeps the typeahead contract soft: an index that
// is not ready answers 200 with success=false and no suggestions, so the
// storefront dropdown degrades quietly. Anything else is a real error.
func (h *Handler) writeAutocompleteError(w http.ResponseWriter, r *http.Request, query string, err error) {
	if errors.Is(err, apperrors.ErrIndexUnavailable) {
		writeRawJSON(w, http.StatusOK, autocompleteResponse{
			Success:     false,
			Query:       query,
			Error:       "search index not ready",
			Suggestions: []domain.Suggestion{},
		})
		return
	}
	httputil.WriteError(w, r, err)
}

func writeRawJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func parseLimit(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
