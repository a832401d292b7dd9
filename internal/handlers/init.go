package handlers

import (
	"net/http"

	"github.com/gurutech/guru-erp/internal/db"
)

// InitHandler serves the bulk read a client performs at session start
type InitHandler struct {
	store db.Store
}

// NewInitHandler creates a new init handler
func NewInitHandler(store db.Store) *InitHandler {
	return &InitHandler{store: store}
}

// Snapshot returns every dataset in one response, with the AMC expiry
// view computed at read time and password hashes stripped.
func (h *InitHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.FetchAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
