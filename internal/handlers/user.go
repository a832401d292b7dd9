package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gurutech/guru-erp/internal/auth"
	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

// UserHandler handles staff account management requests
type UserHandler struct {
	authService *auth.Service
	users       db.UserCollection
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, users db.UserCollection) *UserHandler {
	return &UserHandler{authService: authService, users: users}
}

// List returns all staff accounts
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userRequest struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Role     models.Role       `json:"role"`
	Phone    string            `json:"phone"`
	Address  string            `json:"address"`
	Status   models.UserStatus `json:"status"`
}

// Create registers a staff account
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req userRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.authService.ValidateEmail(req.Email); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !models.IsValidRole(req.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	status := req.Status
	if status == "" {
		status = models.UserActive
	}

	now := time.Now()
	id, err := h.users.InsertUser(r.Context(), models.User{
		ID:           req.ID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Update edits a staff account. The password is only rehashed when a new
// one is supplied.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		if err := h.authService.ValidateEmail(req.Email); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Email = req.Email
	}
	if req.Role != "" {
		if !models.IsValidRole(req.Role) {
			http.Error(w, "Invalid role", http.StatusBadRequest)
			return
		}
		user.Role = req.Role
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if req.Password != "" {
		if err := h.authService.ValidatePassword(req.Password); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hash, err := h.authService.HashPassword(req.Password)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now()

	if err := h.users.UpdateUser(r.Context(), id, *user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

// Delete removes a staff account. Deleting the last remaining admin is
// rejected with a conflict.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
