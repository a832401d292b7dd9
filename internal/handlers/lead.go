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

// LeadHandler handles sales lead requests
type LeadHandler struct {
	engine *engine.LeadEngine
	leads  db.LeadCollection
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(e *engine.LeadEngine, leads db.LeadCollection) *LeadHandler {
	return &LeadHandler{engine: e, leads: leads}
}

// List returns all leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.FindLeads(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// Create registers a new inquiry
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	// A client-generated id, when supplied, is stored verbatim.
	var req struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Source  string `json:"source"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	lead, err := h.engine.Create(r.Context(), engine.CreateLeadParams{
		ID:      req.ID,
		Name:    req.Name,
		Phone:   req.Phone,
		Source:  req.Source,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// Update applies a partial lead update. Admins may pass ?override=true to
// bypass the pipeline transition check.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var update models.LeadUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
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

	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead updated"})
}

// Delete removes a lead and its history
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.engine.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead deleted"})
}

// ScheduleFollowUp moves a lead to Follow-Up with a scheduled date
func (h *LeadHandler) ScheduleFollowUp(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Date  string `json:"date"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.engine.ScheduleFollowUp(r.Context(), id, req.Date, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Follow-up scheduled"})
}

// SendEstimate moves a lead to Estimate Sent with a quoted amount
func (h *LeadHandler) SendEstimate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Amount float64 `json:"amount"`
		Notes  string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.engine.SendEstimate(r.Context(), id, req.Amount, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Estimate sent"})
}

// MarkSold moves a lead to Sold
func (h *LeadHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.engine.MarkSold(r.Context(), id, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead marked sold"})
}

// MarkLost moves a lead to Lost with a reason
func (h *LeadHandler) MarkLost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.engine.MarkLost(r.Context(), id, req.Reason, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead marked lost"})
}

// Convert turns a sold lead into a customer and returns the new customer id
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var details engine.ConversionDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	customerID, err := h.engine.ConvertToCustomer(r.Context(), id, details)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"customerId": customerID})
}

// History returns a lead's activity log, oldest first
func (h *LeadHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	history, err := h.leads.FindLeadHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
