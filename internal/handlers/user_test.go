package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gurutech/guru-erp/internal/auth"
	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

func newUserHandlerFixture(t *testing.T) (*UserHandler, *db.MemoryStore) {
	t.Helper()
	authService, err := auth.NewService()
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}
	store := db.NewMemoryStore()
	return NewUserHandler(authService, store), store
}

func TestUserHandler_Create(t *testing.T) {
	t.Run("creates an active account with hashed password", func(t *testing.T) {
		handler, store := newUserHandlerFixture(t)

		body, _ := json.Marshal(map[string]string{
			"name": "Ravi Shankar", "email": "ravi@gurutech.in",
			"password": "welcome123", "role": "Technician",
		})
		req := httptest.NewRequest("POST", "/api/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		user, err := store.FindUserByEmail(context.Background(), "ravi@gurutech.in")
		assert.NoError(t, err)
		assert.Equal(t, models.UserActive, user.Status)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "welcome123", user.PasswordHash)
	})

	t.Run("stores a client-supplied id verbatim", func(t *testing.T) {
		handler, store := newUserHandlerFixture(t)

		body, _ := json.Marshal(map[string]string{
			"id": "7c1d9e2f-client", "name": "Ravi Shankar", "email": "ravi@gurutech.in",
			"password": "welcome123", "role": "Technician",
		})
		w := httptest.NewRecorder()
		handler.Create(w, httptest.NewRequest("POST", "/api/users", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "7c1d9e2f-client", resp["id"])

		user, err := store.FindUserByID(context.Background(), "7c1d9e2f-client")
		assert.NoError(t, err)
		assert.Equal(t, "ravi@gurutech.in", user.Email)
	})

	t.Run("duplicate email is a 409", func(t *testing.T) {
		handler, _ := newUserHandlerFixture(t)

		body, _ := json.Marshal(map[string]string{
			"name": "Ravi", "email": "ravi@gurutech.in", "password": "welcome123", "role": "Technician",
		})
		w := httptest.NewRecorder()
		handler.Create(w, httptest.NewRequest("POST", "/api/users", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusCreated, w.Code)

		body, _ = json.Marshal(map[string]string{
			"name": "Clone", "email": "ravi@gurutech.in", "password": "welcome456", "role": "Manager",
		})
		w = httptest.NewRecorder()
		handler.Create(w, httptest.NewRequest("POST", "/api/users", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("weak password and bad role rejected", func(t *testing.T) {
		handler, _ := newUserHandlerFixture(t)

		body, _ := json.Marshal(map[string]string{
			"name": "X", "email": "x@gurutech.in", "password": "short", "role": "Technician",
		})
		w := httptest.NewRecorder()
		handler.Create(w, httptest.NewRequest("POST", "/api/users", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		body, _ = json.Marshal(map[string]string{
			"name": "X", "email": "x@gurutech.in", "password": "welcome123", "role": "Superuser",
		})
		w = httptest.NewRecorder()
		handler.Create(w, httptest.NewRequest("POST", "/api/users", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_Delete(t *testing.T) {
	t.Run("last admin deletion is a 409", func(t *testing.T) {
		handler, store := newUserHandlerFixture(t)
		ctx := context.Background()

		adminID, _ := store.InsertUser(ctx, models.User{
			Name: "Admin", Email: "admin@gurutech.in", Role: models.RoleAdmin, Status: models.UserActive,
		})

		req := httptest.NewRequest("DELETE", "/api/users/"+adminID, nil)
		req.SetPathValue("id", adminID)
		w := httptest.NewRecorder()

		handler.Delete(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)

		// account untouched
		_, err := store.FindUserByID(ctx, adminID)
		assert.NoError(t, err)
	})

	t.Run("deletion succeeds with a second admin", func(t *testing.T) {
		handler, store := newUserHandlerFixture(t)
		ctx := context.Background()

		adminID, _ := store.InsertUser(ctx, models.User{
			Name: "Admin", Email: "admin@gurutech.in", Role: models.RoleAdmin, Status: models.UserActive,
		})
		_, _ = store.InsertUser(ctx, models.User{
			Name: "Backup", Email: "backup@gurutech.in", Role: models.RoleAdmin, Status: models.UserActive,
		})

		req := httptest.NewRequest("DELETE", "/api/users/"+adminID, nil)
		req.SetPathValue("id", adminID)
		w := httptest.NewRecorder()

		handler.Delete(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestUserHandler_Update(t *testing.T) {
	t.Run("deactivating an account", func(t *testing.T) {
		handler, store := newUserHandlerFixture(t)
		ctx := context.Background()

		id, _ := store.InsertUser(ctx, models.User{
			Name: "Ravi", Email: "ravi@gurutech.in", Role: models.RoleTechnician, Status: models.UserActive,
		})

		body, _ := json.Marshal(map[string]string{"status": "Inactive"})
		req := httptest.NewRequest("PUT", "/api/users/"+id, bytes.NewBuffer(body))
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()

		handler.Update(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		user, _ := store.FindUserByID(ctx, id)
		assert.Equal(t, models.UserInactive, user.Status)
		assert.Equal(t, "Ravi", user.Name) // untouched fields survive
	})

	t.Run("unknown user is a 404", func(t *testing.T) {
		handler, _ := newUserHandlerFixture(t)

		body, _ := json.Marshal(map[string]string{"name": "Ghost"})
		req := httptest.NewRequest("PUT", "/api/users/ghost", bytes.NewBuffer(body))
		req.SetPathValue("id", "ghost")
		w := httptest.NewRecorder()

		handler.Update(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
