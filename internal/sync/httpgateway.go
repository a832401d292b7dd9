package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/models"
)

// HTTPGateway implements Gateway over the server's REST API. All calls
// carry the bearer token obtained at login.
type HTTPGateway struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPGateway creates a gateway for a server base URL, e.g.
// "http://localhost:8080".
func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{},
	}
}

type idResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// do issues a JSON request and decodes the response into out (if non-nil).
func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		// Plain-text bodies come from http.Error on validation paths.
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the bearer token for subsequent calls.
func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := g.do(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, err
	}
	g.Token = resp.Token
	return &resp.User, nil
}

func (g *HTTPGateway) FetchAll(ctx context.Context) (*db.Snapshot, error) {
	var snap db.Snapshot
	if err := g.do(ctx, http.MethodGet, "/api/init", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (g *HTTPGateway) InsertTicket(ctx context.Context, ticket models.Ticket) (string, error) {
	var resp idResponse
	if err := g.do(ctx, http.MethodPost, "/api/tickets", ticket, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *HTTPGateway) UpdateTicket(ctx context.Context, id string, update models.TicketUpdate) error {
	return g.do(ctx, http.MethodPut, "/api/tickets/"+url.PathEscape(id), update, nil)
}

func (g *HTTPGateway) AssignTicket(ctx context.Context, id, technicianID, scheduledDate string) error {
	body := map[string]string{
		"technicianId":  technicianID,
		"scheduledDate": scheduledDate,
	}
	return g.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(id)+"/assign", body, nil)
}

func (g *HTTPGateway) StartTicket(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(id)+"/start", nil, nil)
}

func (g *HTTPGateway) CompleteTicket(ctx context.Context, id string, p engine.CompleteParams) error {
	return g.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(id)+"/complete", p, nil)
}

func (g *HTTPGateway) CancelTicket(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return g.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(id)+"/cancel", body, nil)
}

func (g *HTTPGateway) InsertLead(ctx context.Context, lead models.Lead) (string, error) {
	var resp idResponse
	if err := g.do(ctx, http.MethodPost, "/api/leads", lead, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *HTTPGateway) UpdateLead(ctx context.Context, id string, update models.LeadUpdate) error {
	return g.do(ctx, http.MethodPut, "/api/leads/"+url.PathEscape(id), update, nil)
}

func (g *HTTPGateway) DeleteLead(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodDelete, "/api/leads/"+url.PathEscape(id), nil, nil)
}

func (g *HTTPGateway) ConvertLead(ctx context.Context, id string, details engine.ConversionDetails) (string, error) {
	var resp struct {
		CustomerID string `json:"customerId"`
	}
	if err := g.do(ctx, http.MethodPost, "/api/leads/"+url.PathEscape(id)+"/convert", details, &resp); err != nil {
		return "", err
	}
	return resp.CustomerID, nil
}

func (g *HTTPGateway) InsertCustomer(ctx context.Context, customer models.Customer) (string, error) {
	var resp idResponse
	if err := g.do(ctx, http.MethodPost, "/api/customers", customer, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *HTTPGateway) AddMachine(ctx context.Context, customerID string, machine models.Machine) (string, error) {
	var resp idResponse
	path := "/api/customers/" + url.PathEscape(customerID) + "/machines"
	if err := g.do(ctx, http.MethodPost, path, machine, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *HTTPGateway) UpdateMachine(ctx context.Context, customerID string, machine models.Machine) error {
	path := "/api/customers/" + url.PathEscape(customerID) + "/machines/" + url.PathEscape(machine.ID)
	return g.do(ctx, http.MethodPut, path, machine, nil)
}

func (g *HTTPGateway) DeleteMachine(ctx context.Context, customerID, machineID string) error {
	path := "/api/customers/" + url.PathEscape(customerID) + "/machines/" + url.PathEscape(machineID)
	return g.do(ctx, http.MethodDelete, path, nil, nil)
}

func (g *HTTPGateway) InsertPart(ctx context.Context, part models.Part) (string, error) {
	var resp idResponse
	if err := g.do(ctx, http.MethodPost, "/api/parts", part, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *HTTPGateway) UpdatePart(ctx context.Context, id string, part models.Part) error {
	return g.do(ctx, http.MethodPut, "/api/parts/"+url.PathEscape(id), part, nil)
}

func (g *HTTPGateway) InsertMachineType(ctx context.Context, mt models.MachineType) (string, error) {
	var resp idResponse
	if err := g.do(ctx, http.MethodPost, "/api/machine-types", mt, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// InsertUser sends the account fields explicitly because the password
// never round-trips through models.User JSON: the server expects a plain
// password to hash, carried here in the PasswordHash field.
func (g *HTTPGateway) InsertUser(ctx context.Context, user models.User) (string, error) {
	body := map[string]interface{}{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"password": user.PasswordHash,
		"role":     user.Role,
		"phone":    user.Phone,
		"address":  user.Address,
		"status":   user.Status,
	}
	var resp idResponse
	if err := g.do(ctx, http.MethodPost, "/api/users", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *HTTPGateway) UpdateUser(ctx context.Context, id string, user models.User) error {
	return g.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), user, nil)
}

func (g *HTTPGateway) DeleteUser(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
}
