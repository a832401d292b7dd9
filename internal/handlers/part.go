package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

// PartHandler handles inventory part and machine type catalog requests
type PartHandler struct {
	parts        db.PartCollection
	machineTypes db.MachineTypeCollection
}

// NewPartHandler creates a new part handler
func NewPartHandler(parts db.PartCollection, machineTypes db.MachineTypeCollection) *PartHandler {
	return &PartHandler{parts: parts, machineTypes: machineTypes}
}

// List returns all parts
func (h *PartHandler) List(w http.ResponseWriter, r *http.Request) {
	parts, err := h.parts.FindParts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

// Create registers a part
func (h *PartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var part models.Part
	if err := json.NewDecoder(r.Body).Decode(&part); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if part.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	id, err := h.parts.InsertPart(r.Context(), part)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Update replaces a part's details
func (h *PartHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var part models.Part
	if err := json.NewDecoder(r.Body).Decode(&part); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.parts.UpdatePart(r.Context(), id, part); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Part updated"})
}

// ListMachineTypes returns the machine type catalog
func (h *PartHandler) ListMachineTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.machineTypes.FindMachineTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

// CreateMachineType registers a catalog entry
func (h *PartHandler) CreateMachineType(w http.ResponseWriter, r *http.Request) {
	var mt models.MachineType
	if err := json.NewDecoder(r.Body).Decode(&mt); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if mt.ModelName == "" {
		http.Error(w, "Model name is required", http.StatusBadRequest)
		return
	}

	id, err := h.machineTypes.InsertMachineType(r.Context(), mt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
