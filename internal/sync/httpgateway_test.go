package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gurutech/guru-erp/internal/models"
)

func TestHTTPGatewayErrorDecoding(t *testing.T) {
	t.Run("surfaces JSON error bodies", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "illegal status transition: Completed -> Assigned"})
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "")
		err := gw.StartTicket(context.Background(), "t1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "409")
		assert.Contains(t, err.Error(), "illegal status transition")
	})

	t.Run("surfaces plain-text error bodies", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Technician is required", http.StatusBadRequest)
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "")
		err := gw.AssignTicket(context.Background(), "t1", "", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Technician is required")
	})

	t.Run("empty body falls back to the status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "")
		err := gw.StartTicket(context.Background(), "t1")
		assert.EqualError(t, err, "server returned 500")
	})
}

func TestHTTPGatewayInsertCarriesClientID(t *testing.T) {
	t.Run("ticket id travels in the request body", func(t *testing.T) {
		var received map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": received["id"].(string)})
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "")
		id, err := gw.InsertTicket(context.Background(), models.Ticket{
			ID: "4f3a2b1c-client", CustomerID: "c1", Description: "Leak",
		})
		assert.NoError(t, err)
		assert.Equal(t, "4f3a2b1c-client", received["id"])
		assert.Equal(t, "4f3a2b1c-client", id)
	})

	t.Run("user id travels alongside the plain password", func(t *testing.T) {
		var received map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": received["id"].(string)})
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "")
		id, err := gw.InsertUser(context.Background(), models.User{
			ID: "7c1d9e2f-client", Name: "Ravi", Email: "ravi@gurutech.in",
			PasswordHash: "welcome123", Role: models.RoleTechnician,
		})
		assert.NoError(t, err)
		assert.Equal(t, "7c1d9e2f-client", received["id"])
		assert.Equal(t, "welcome123", received["password"])
		assert.Equal(t, "7c1d9e2f-client", id)
	})
}
