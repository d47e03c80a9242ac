package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/service"
	"github.com/prismcart/search/pkg/httputil"
	pkgvalidator "github.com/prismcart/search/pkg/validator"
)

const maxBodyBytes = 1 << 20

// entityKinds maps the URL segment to the entity kind.
var entityKinds = map[string]domain.EntityKind{
	"categories":     domain.KindCategory,
	"brands":         domain.KindBrand,
	"tags":           domain.KindTag,
	"colors":         domain.KindColor,
	"sub-categories": domain.KindSubCategory,
}

// CreateProduct handles POST /catalog/products. The write triggers a
// synchronous reindex before the response is sent.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.ProductInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := pkgvalidator.DecodeAndValidate(r.Body, &input); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /catalog/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var input service.ProductInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := pkgvalidator.DecodeAndValidate(r.Body, &input); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /catalog/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type relationsRequest struct {
	IDs []int64 `json:"ids" validate:"required"`
}

// SetRelations handles PUT /catalog/products/{id}/relations/{kind}.
func (h *Handler) SetRelations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req relationsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := pkgvalidator.DecodeAndValidate(r.Body, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.catalog.SetProductRelations(r.Context(), id, kind, req.IDs); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type entityRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateEntity handles POST /catalog/{kind}.
func (h *Handler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req entityRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := pkgvalidator.DecodeAndValidate(r.Body, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	entity, err := h.catalog.CreateEntity(r.Context(), kind, req.Name)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":   entity.ID,
		"name": entity.Name,
		"slug": entity.Slug,
	})
}

// RenameEntity handles PUT /catalog/{kind}/{id}. Renames fan out to every
// product document embedding the entity.
func (h *Handler) RenameEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req entityRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := pkgvalidator.DecodeAndValidate(r.Body, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.catalog.RenameEntity(r.Context(), kind, id, req.Name); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntity handles DELETE /catalog/{kind}/{id}.
func (h *Handler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteEntity(r.Context(), kind, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, r, "INVALID_PARAMETER", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseKind(w http.ResponseWriter, r *http.Request) (domain.EntityKind, bool) {
	kind, ok := entityKinds[chi.URLParam(r, "kind")]
	if !ok {
		httputil.WriteBadRequest(w, r, "INVALID_PARAMETER", "unknown entity kind")
		return "", false
	}
	return kind, true
}
