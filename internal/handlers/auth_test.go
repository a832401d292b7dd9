package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gurutech/guru-erp/internal/auth"
	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthHandler_Login(t *testing.T) {
	authService, err := auth.NewService()
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}

	t.Run("successful login", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUsers))

		passwordHash, err := authService.HashPassword("welcome123")
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		user := &models.User{
			ID:           "u1",
			Name:         "Admin",
			Email:        "admin@gurutech.in",
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
			Status:       models.UserActive,
		}

		mockUsers.On("FindUserByEmail", mock.Anything, "admin@gurutech.in").Return(user, nil)
		mockUsers.On("UpdateLastLogin", mock.Anything, "u1").Return(nil)

		body, _ := json.Marshal(models.LoginRequest{Email: "admin@gurutech.in", Password: "welcome123"})
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response models.LoginResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, user.Email, response.User.Email)

		mockUsers.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUsers))

		mockUsers.On("FindUserByEmail", mock.Anything, "admin@gurutech.in").Return(nil, db.ErrNotFound)

		body, _ := json.Marshal(models.LoginRequest{Email: "admin@gurutech.in", Password: "wrong"})
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password gets the same message as unknown email", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUsers))

		passwordHash, _ := authService.HashPassword("welcome123")
		user := &models.User{
			ID: "u1", Email: "admin@gurutech.in",
			PasswordHash: passwordHash, Role: models.RoleAdmin, Status: models.UserActive,
		}
		mockUsers.On("FindUserByEmail", mock.Anything, "admin@gurutech.in").Return(user, nil)

		body, _ := json.Marshal(models.LoginRequest{Email: "admin@gurutech.in", Password: "wrongpass"})
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email or password")
	})

	t.Run("inactive account gets a distinct response", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUsers))

		passwordHash, _ := authService.HashPassword("welcome123")
		user := &models.User{
			ID: "u9", Email: "former@gurutech.in",
			PasswordHash: passwordHash, Role: models.RoleTechnician, Status: models.UserInactive,
		}
		mockUsers.On("FindUserByEmail", mock.Anything, "former@gurutech.in").Return(user, nil)

		body, _ := json.Marshal(models.LoginRequest{Email: "former@gurutech.in", Password: "welcome123"})
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "inactive")
	})

	t.Run("missing fields", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUsers))

		body, _ := json.Marshal(models.LoginRequest{Email: "admin@gurutech.in"})
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUsers))

		req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString("{not-json"))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
