package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

// CustomerHandler handles customer and machine requests
type CustomerHandler struct {
	customers db.CustomerCollection
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers db.CustomerCollection) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List returns all customers with their machines
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.FindCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// Get returns a single customer
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.FindCustomerByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// Create registers a customer. The phone number must be unique.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var customer models.Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if customer.Name == "" || customer.Phone == "" {
		http.Error(w, "Name and phone are required", http.StatusBadRequest)
		return
	}
	if customer.Type == "" {
		customer.Type = models.CustomerGuruInstalled
	}
	if customer.Machines == nil {
		customer.Machines = []models.Machine{}
	}

	id, err := h.customers.InsertCustomer(r.Context(), customer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// AddMachine registers a machine under a customer
func (h *CustomerHandler) AddMachine(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("id")

	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if machine.ModelNo == "" {
		http.Error(w, "Model number is required", http.StatusBadRequest)
		return
	}

	id, err := h.customers.AddMachine(r.Context(), customerID, machine)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateMachine edits a machine in place
func (h *CustomerHandler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("id")

	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	machine.ID = r.PathValue("machineId")

	if err := h.customers.UpdateMachine(r.Context(), customerID, machine); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Machine updated"})
}

// DeleteMachine removes a machine from a customer
func (h *CustomerHandler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("id")
	machineID := r.PathValue("machineId")

	if err := h.customers.DeleteMachine(r.Context(), customerID, machineID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Machine deleted"})
}
