package http

import (
	"net/http"

	"github.com/prismcart/search/pkg/httputil"
)

// Drift handles GET /admin/drift: per-index count comparison, report only.
func (h *Handler) Drift(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.Drift(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// Resync handles POST /admin/resync: full database-to-index walk. Runs in
// the request scope and returns the tally.
func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.Resync(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// RebuildIndices handles POST /admin/indices/rebuild: drop, recreate,
// resync.
func (h *Handler) RebuildIndices(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.Rebuild(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// DeleteIndices handles DELETE /admin/indices.
func (h *Handler) DeleteIndices(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.DeleteIndices(r.Context()); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
