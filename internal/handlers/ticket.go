package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/middleware"
	"github.com/gurutech/guru-erp/internal/models"
)

// TicketHandler handles service ticket requests
type TicketHandler struct {
	engine  *engine.TicketEngine
	tickets db.TicketCollection
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(e *engine.TicketEngine, tickets db.TicketCollection) *TicketHandler {
	return &TicketHandler{engine: e, tickets: tickets}
}

// List returns all tickets
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.FindTickets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Create opens a new ticket
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	// Sync clients generate ids optimistically; a supplied id is stored
	// verbatim so the client's copy stays addressable.
	var req struct {
		ID            string                `json:"id"`
		CustomerID    string                `json:"customerId"`
		Type          models.ServiceType    `json:"type"`
		Description   string                `json:"description"`
		Priority      models.TicketPriority `json:"priority"`
		ScheduledDate string                `json:"scheduledDate"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ticket, err := h.engine.Create(r.Context(), engine.CreateTicketParams{
		ID:            req.ID,
		CustomerID:    req.CustomerID,
		Type:          req.Type,
		Description:   req.Description,
		Priority:      req.Priority,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ticket)
}

// Update applies a partial ticket update. Admins may pass ?override=true
// to bypass the status transition check for manual corrections.
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var update models.TicketUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	override := false
	if r.URL.Query().Get("override") == "true" {
		claims, ok := middleware.GetUserFromContext(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			http.Error(w, "Override requires admin role", http.StatusForbidden)
			return
		}
		override = true
	}

	if err := h.engine.Update(r.Context(), id, update, override); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Ticket updated"})
}

// Assign assigns or reassigns a ticket to a technician
func (h *TicketHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		TechnicianID  string `json:"technicianId"`
		ScheduledDate string `json:"scheduledDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.TechnicianID == "" {
		http.Error(w, "Technician is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.Assign(r.Context(), id, req.TechnicianID, req.ScheduledDate); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Ticket assigned"})
}

// Start marks an assigned ticket as in progress
func (h *TicketHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.engine.Start(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Ticket started"})
}

// Complete closes an in-progress ticket with consumed parts and charges.
// Stock shortfalls come back as warnings alongside the completed ticket.
func (h *TicketHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var params engine.CompleteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ticket, warnings, err := h.engine.Complete(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}

	messages := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		messages = append(messages, warning.String())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticket":   ticket,
		"warnings": messages,
	})
}

// Cancel cancels a pending or assigned ticket with a reason
func (h *TicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.engine.Cancel(r.Context(), id, req.Reason); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Ticket cancelled"})
}

// History returns a ticket's assignment log, oldest first
func (h *TicketHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	history, err := h.tickets.FindAssignmentHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
