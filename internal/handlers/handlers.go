package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps known domain errors onto HTTP status codes. The body
// is JSON so API clients can surface the reason; unknown errors become a
// 500 with a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, db.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, db.ErrLastAdmin),
		errors.Is(err, db.ErrDuplicateEmail),
		errors.Is(err, db.ErrDuplicatePhone),
		errors.Is(err, engine.ErrIllegalTransition),
		errors.Is(err, engine.ErrNotSold):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, engine.ErrMissingCustomer),
		errors.Is(err, engine.ErrMissingDescription),
		errors.Is(err, engine.ErrMissingReason),
		errors.Is(err, engine.ErrMissingName),
		errors.Is(err, engine.ErrMissingPhone):
		status, message = http.StatusBadRequest, err.Error()
	}
	writeJSON(w, status, map[string]string{"error": message})
}
